package geo

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func namedPoint(name string, lng, lat float64) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{lng, lat})
	f.Properties = geojson.Properties{"Name": name, "Description": ""}
	return f
}

func collection(features ...*geojson.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f)
	}
	return fc
}

func names(fc *geojson.FeatureCollection) []string {
	out := make([]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		out = append(out, f.Properties.MustString("Name", ""))
	}
	return out
}

func TestPatchRemovesThenAppends(t *testing.T) {
	base := collection(
		namedPoint("a", 103.85, 1.33),
		namedPoint("b", 103.86, 1.34),
		namedPoint("c", 103.87, 1.35),
	)
	added := NewPointFeature(GeneratedName(), orb.Point{103.9, 1.3})

	got := Patch(base, []*geojson.Feature{added}, []FeatureID{"b"})

	want := []string{"a", "c", added.Properties.MustString("Name", "")}
	if len(got.Features) != 3 {
		t.Fatalf("features=%d, want 3", len(got.Features))
	}
	for i, name := range names(got) {
		if name != want[i] {
			t.Fatalf("feature[%d]=%q, want %q", i, name, want[i])
		}
	}
}

func TestPatchNilBase(t *testing.T) {
	got := Patch(nil, nil, nil)
	if got == nil {
		t.Fatal("Patch returned nil collection")
	}
	if len(got.Features) != 0 {
		t.Fatalf("features=%d, want 0", len(got.Features))
	}
}

func TestPatchUnknownRemovalIgnored(t *testing.T) {
	base := collection(namedPoint("a", 0, 0))
	got := Patch(base, nil, []FeatureID{"missing"})
	if len(got.Features) != 1 {
		t.Fatalf("features=%d, want 1", len(got.Features))
	}
}

func TestPatchDoesNotMutateInputs(t *testing.T) {
	base := collection(namedPoint("a", 0, 0), namedPoint("b", 1, 1))
	adds := []*geojson.Feature{namedPoint("x", 2, 2)}
	dels := []FeatureID{"a"}

	first := Patch(base, adds, dels)
	second := Patch(base, adds, dels)

	if len(base.Features) != 2 {
		t.Fatalf("base mutated: features=%d, want 2", len(base.Features))
	}
	fj, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	sj, err := json.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if string(fj) != string(sj) {
		t.Fatalf("repeated Patch not idempotent:\n%s\n%s", fj, sj)
	}
}

func TestIdentityPrecedence(t *testing.T) {
	named := namedPoint("block-22", 0, 0)
	if got := Identity(named); got != "block-22" {
		t.Fatalf("identity=%q, want block-22", got)
	}

	anon := geojson.NewFeature(orb.Point{0, 0})
	anon.ID = "65f0c2"
	if got := Identity(anon); got != "65f0c2" {
		t.Fatalf("identity=%q, want 65f0c2", got)
	}

	blank := geojson.NewFeature(orb.Point{0, 0})
	if got := Identity(blank); got != "" {
		t.Fatalf("identity=%q, want empty", got)
	}
	if got := Identity(nil); got != "" {
		t.Fatalf("identity of nil=%q, want empty", got)
	}
}

func TestIdentitySurvivesRoundTrip(t *testing.T) {
	f := NewPointFeature(GeneratedName(), orb.Point{103.9, 1.3})
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	back, err := geojson.UnmarshalFeature(data)
	if err != nil {
		t.Fatal(err)
	}
	if Identity(back) != Identity(f) {
		t.Fatalf("identity changed across round trip: %q != %q", Identity(back), Identity(f))
	}
}
