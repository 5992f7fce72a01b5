package geo

import "github.com/paulmach/orb/geojson"

// Patch computes the FeatureCollection to render for a layer: the base
// collection minus the removed identities, with additions appended.
//
// Patch never mutates its inputs and is idempotent, so it is safe to call
// speculatively. A nil base with no additions yields an empty collection.
// A removal identity that matches nothing is a no-op: deleting an
// already-absent feature is not a failure.
//
// Additions are appended as-is. The engine does not deduplicate; adding a
// feature that is already present is a caller error surfaced upstream.
func Patch(base *geojson.FeatureCollection, additions []*geojson.Feature, removals []FeatureID) *geojson.FeatureCollection {
	removed := make(map[FeatureID]struct{}, len(removals))
	for _, id := range removals {
		if id != "" {
			removed[id] = struct{}{}
		}
	}

	out := geojson.NewFeatureCollection()
	if base != nil {
		for _, f := range base.Features {
			if _, ok := removed[Identity(f)]; ok {
				continue
			}
			out.Append(f)
		}
	}
	for _, f := range additions {
		out.Append(f)
	}
	return out
}
