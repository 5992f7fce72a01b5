package geo

import (
	"testing"

	"github.com/paulmach/orb/geojson"
)

// A feature added in a previous session then deleted in the next one must
// net to absent, while the next session's own addition survives.
func TestReconcileAddThenDelete(t *testing.T) {
	x := namedPoint("userGenerated_x", 103.9, 1.3)
	y := namedPoint("userGenerated_y", 103.91, 1.31)

	existing := Delta{NewFeatures: feats(x)}
	session := Delta{NewFeatures: feats(y), DeletedFeatures: feats(x)}

	got := Reconcile(existing, session)

	if len(got.NewFeatures) != 1 || Identity(got.NewFeatures[0]) != "userGenerated_y" {
		t.Fatalf("additions=%v, want [userGenerated_y]", deltaNames(got.NewFeatures))
	}
	if len(got.DeletedFeatures) != 1 || Identity(got.DeletedFeatures[0]) != "userGenerated_x" {
		t.Fatalf("deletions=%v, want [userGenerated_x]", deltaNames(got.DeletedFeatures))
	}
}

func TestReconcileIdempotent(t *testing.T) {
	existing := Delta{
		NewFeatures:     feats(namedPoint("userGenerated_a", 0, 0)),
		DeletedFeatures: feats(namedPoint("b", 1, 1)),
	}
	session := Delta{DeletedFeatures: feats(namedPoint("c", 2, 2))}

	once := Reconcile(existing, session)
	again := Reconcile(once, Delta{})

	if !sameNames(deltaNames(once.NewFeatures), deltaNames(again.NewFeatures)) {
		t.Fatalf("additions drifted: %v != %v", deltaNames(once.NewFeatures), deltaNames(again.NewFeatures))
	}
	if !sameNames(deltaNames(once.DeletedFeatures), deltaNames(again.DeletedFeatures)) {
		t.Fatalf("deletions drifted: %v != %v", deltaNames(once.DeletedFeatures), deltaNames(again.DeletedFeatures))
	}
}

// The net result must not depend on which session contributed which edit.
func TestReconcileOrderIndependent(t *testing.T) {
	add := namedPoint("userGenerated_a", 0, 0)
	del := namedPoint("userGenerated_a", 0, 0)

	first := Reconcile(Delta{NewFeatures: feats(add)}, Delta{DeletedFeatures: feats(del)})
	second := Reconcile(Delta{DeletedFeatures: feats(del)}, Delta{NewFeatures: feats(add)})

	if len(first.NewFeatures) != 0 || len(second.NewFeatures) != 0 {
		t.Fatalf("additions=%d/%d, want 0/0", len(first.NewFeatures), len(second.NewFeatures))
	}
}

func TestReconcilePreservesInputs(t *testing.T) {
	existing := Delta{NewFeatures: feats(namedPoint("userGenerated_a", 0, 0))}
	session := Delta{DeletedFeatures: feats(namedPoint("userGenerated_a", 0, 0))}

	Reconcile(existing, session)

	if len(existing.NewFeatures) != 1 {
		t.Fatalf("existing delta mutated: additions=%d, want 1", len(existing.NewFeatures))
	}
	if len(session.DeletedFeatures) != 1 {
		t.Fatalf("session delta mutated: deletions=%d, want 1", len(session.DeletedFeatures))
	}
}

func feats(fs ...*geojson.Feature) []*geojson.Feature { return fs }

func deltaNames(fs []*geojson.Feature) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, string(Identity(f)))
	}
	return out
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
