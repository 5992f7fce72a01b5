// Package geo defines feature identity and the dataset patch engine.
//
// A dataset on the map is rendered from a base FeatureCollection plus a
// user-authored delta: an ordered list of added features and an ordered list
// of deleted features. This package computes the rendered view and merges
// deltas across edit sessions.
package geo

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureID correlates a feature with its rendered instance across
// serialize/deserialize round trips.
type FeatureID string

// Identity returns the stable identity of a feature.
//
// Base-dataset features carry a stable Name property assigned at load time.
// User-created features are given a generated pseudo-unique Name when the
// session commits, so Name is the identity for both populations. Features
// without a Name fall back to the feature's ID (server-assigned for
// persisted deltas). A feature with neither has no identity and matches
// nothing.
func Identity(f *geojson.Feature) FeatureID {
	if f == nil {
		return ""
	}
	if name := f.Properties.MustString("Name", ""); name != "" {
		return FeatureID(name)
	}
	if f.ID != nil {
		return FeatureID(fmt.Sprintf("%v", f.ID))
	}
	return ""
}

// GeneratedName returns a pseudo-unique name for a user-authored feature.
// Names never collide across sessions, so reconciling deltas from different
// sessions cannot conflate two additions.
func GeneratedName() string {
	return "userGenerated_" + uuid.NewString()
}

// NewPointFeature creates a user-authored point feature.
func NewPointFeature(name string, p orb.Point) *geojson.Feature {
	f := geojson.NewFeature(p)
	f.Properties = geojson.Properties{
		"Name":        name,
		"Description": "",
	}
	return f
}

// Delta is a user's edits relative to a base dataset: features added and
// features removed, each in creation/click order.
type Delta struct {
	NewFeatures     []*geojson.Feature `json:"newFeatures"`
	DeletedFeatures []*geojson.Feature `json:"deletedFeatures"`
}

// DeletedIDs returns the identities of the delta's deleted features.
func (d Delta) DeletedIDs() []FeatureID {
	ids := make([]FeatureID, 0, len(d.DeletedFeatures))
	for _, f := range d.DeletedFeatures {
		ids = append(ids, Identity(f))
	}
	return ids
}
