package geo

import "github.com/paulmach/orb/geojson"

// Reconcile merges a new edit session's delta into a layer's persisted
// delta, producing the layer's next canonical delta.
//
// Additions and deletions are concatenated in history order, then any merged
// addition whose identity appears among the merged deletions is dropped: a
// feature added in one session and deleted in a later one nets to absent,
// never resurrected.
//
// Reconcile is a pure function. Feeding its output back in with an empty
// session delta returns an equal delta, so a retried update is harmless.
func Reconcile(existing, session Delta) Delta {
	additions := concat(existing.NewFeatures, session.NewFeatures)
	deletions := concat(existing.DeletedFeatures, session.DeletedFeatures)

	removed := make(map[FeatureID]struct{}, len(deletions))
	for _, f := range deletions {
		if id := Identity(f); id != "" {
			removed[id] = struct{}{}
		}
	}

	kept := make([]*geojson.Feature, 0, len(additions))
	for _, f := range additions {
		if _, ok := removed[Identity(f)]; ok {
			continue
		}
		kept = append(kept, f)
	}

	return Delta{NewFeatures: kept, DeletedFeatures: deletions}
}

func concat(a, b []*geojson.Feature) []*geojson.Feature {
	out := make([]*geojson.Feature, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
