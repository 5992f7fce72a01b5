//go:build integration

package service

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/walkingwizard/wizard/internal/db"
)

// Run with: go test -tags integration ./internal/service/
// Exercises the real DuckDB driver; the unit suite stays CGO-free.

func testDatasetService(t *testing.T) *DatasetService {
	t.Helper()
	conn, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	svc, err := NewDatasetService(conn, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func named(name string) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{103.85, 1.33})
	f.Properties["Name"] = name
	return f
}

func TestDatasetCreateGetRoundTrip(t *testing.T) {
	svc := testDatasetService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, CreateDataset{
		Title:         "my parks",
		ParentLayerID: "parks",
		UserID:        "u-1",
		NewFeatures:   []*geojson.Feature{named("userGenerated_1")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID == "" {
		t.Fatal("no id assigned")
	}

	got, err := svc.Get(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "my parks" || len(got.NewFeatures) != 1 {
		t.Fatalf("got %+v", got)
	}
	if len(got.DeletedFeatures) != 0 {
		t.Fatalf("deletedFeatures=%d, want 0", len(got.DeletedFeatures))
	}
}

func TestDatasetUpdateReconcilesSessions(t *testing.T) {
	svc := testDatasetService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, CreateDataset{
		Title:         "edits",
		ParentLayerID: "parks",
		UserID:        "u-1",
		NewFeatures:   []*geojson.Feature{named("userGenerated_x")},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Second session adds Y and deletes the previously added X: X nets out.
	updated, err := svc.Update(ctx, rec.ID, UpdateDataset{
		UserID:          "u-1",
		NewFeatures:     []*geojson.Feature{named("userGenerated_y")},
		DeletedFeatures: []*geojson.Feature{named("userGenerated_x")},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(updated.NewFeatures) != 1 {
		t.Fatalf("newFeatures=%d, want 1", len(updated.NewFeatures))
	}
	if got := updated.NewFeatures[0].Properties.MustString("Name", ""); got != "userGenerated_y" {
		t.Fatalf("surviving addition=%q, want userGenerated_y", got)
	}
	if len(updated.DeletedFeatures) != 1 {
		t.Fatalf("deletedFeatures=%d, want 1", len(updated.DeletedFeatures))
	}
}

func TestDatasetOwnership(t *testing.T) {
	svc := testDatasetService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, CreateDataset{
		Title:         "mine",
		ParentLayerID: "parks",
		UserID:        "u-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Update(ctx, rec.ID, UpdateDataset{UserID: "u-2"}); err != ErrNotOwner {
		t.Fatalf("update err=%v, want ErrNotOwner", err)
	}
	if err := svc.Delete(ctx, rec.ID, "u-2"); err != ErrNotOwner {
		t.Fatalf("delete err=%v, want ErrNotOwner", err)
	}
	if err := svc.Delete(ctx, rec.ID, "u-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, rec.ID); err != ErrDatasetNotFound {
		t.Fatalf("get err=%v, want ErrDatasetNotFound", err)
	}
}
