package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/walkingwizard/wizard/internal/geo"
)

// The map client keys records by _id and reads the delta from newFeatures
// and deletedFeatures, so the wire shape is load-bearing.
func TestDatasetRecordWireShape(t *testing.T) {
	added := geojson.NewFeature(orb.Point{103.85, 1.33})
	added.Properties["Name"] = "userGenerated_abc"

	rec := DatasetRecord{
		ID:              "d-1",
		UserID:          "u-1",
		Title:           "my parks",
		ParentLayerID:   "parks",
		NewFeatures:     []*geojson.Feature{added},
		DeletedFeatures: []*geojson.Feature{},
		CreatedAt:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}

	var wire map[string]json.RawMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"_id", "userId", "title", "parentLayerId", "newFeatures", "deletedFeatures"} {
		if _, ok := wire[key]; !ok {
			t.Errorf("missing wire key %q in %s", key, data)
		}
	}

	var back DatasetRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if len(back.NewFeatures) != 1 {
		t.Fatalf("newFeatures=%d, want 1", len(back.NewFeatures))
	}
	if got := geo.Identity(back.NewFeatures[0]); got != "userGenerated_abc" {
		t.Fatalf("identity=%q, want userGenerated_abc", got)
	}
}

func TestUpdateDatasetDeltaRoundTrip(t *testing.T) {
	doomed := geojson.NewFeature(orb.Point{103.9, 1.3})
	doomed.Properties["Name"] = "blk42"

	in := UpdateDataset{
		NewFeatures:     []*geojson.Feature{},
		DeletedFeatures: []*geojson.Feature{doomed},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var back UpdateDataset
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}

	delta := geo.Delta{NewFeatures: back.NewFeatures, DeletedFeatures: back.DeletedFeatures}
	ids := delta.DeletedIDs()
	if len(ids) != 1 || ids[0] != "blk42" {
		t.Fatalf("deleted ids=%v, want [blk42]", ids)
	}
}
