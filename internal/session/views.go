package session

import (
	"github.com/paulmach/orb/geojson"

	"github.com/walkingwizard/wizard/internal/geo"
)

// Derived views. Each is recomputed from current state on every call; the
// store caches nothing.

// Layers returns a copy of the layer list.
func (s *Store) Layers() []DatasetLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]DatasetLayer(nil), s.layers...)
}

// Layer returns the layer with the given id.
func (s *Store) Layer(layerID string) (DatasetLayer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.layers {
		if l.LayerID == layerID {
			return l, true
		}
	}
	return DatasetLayer{}, false
}

// EditingLayers returns every layer with IsEditing set. EnterEditMode
// guarantees at most one element.
func (s *Store) EditingLayers() []DatasetLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []DatasetLayer
	for _, l := range s.layers {
		if l.IsEditing {
			out = append(out, l)
		}
	}
	return out
}

// TotalEditingLayers returns the number of layers in edit mode.
func (s *Store) TotalEditingLayers() int {
	return len(s.EditingLayers())
}

// CurrEditingLayer returns the layer under edit, or false when no session
// is active.
func (s *Store) CurrEditingLayer() (DatasetLayer, bool) {
	s.mu.RLock()
	id := s.currEditing
	s.mu.RUnlock()
	if id == "" {
		return DatasetLayer{}, false
	}
	return s.Layer(id)
}

// Markers returns the pending-add markers in creation order.
func (s *Store) Markers() []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Marker(nil), s.markers...)
}

// MarkersGeoJSON renders the pending markers as a FeatureCollection with
// generated names, for preview rendering.
func (s *Store) MarkersGeoJSON() *geojson.FeatureCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fc := geojson.NewFeatureCollection()
	for _, m := range s.markers {
		fc.Append(geo.NewPointFeature(m.Name, m.Position))
	}
	return fc
}

// DeletedFeatures returns the pending deletions in click order.
func (s *Store) DeletedFeatures() []*geojson.Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleted.features()
}

// DeletedFeaturesGeoJSON renders the pending deletions as a collection.
func (s *Store) DeletedFeaturesGeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range s.DeletedFeatures() {
		fc.Append(f)
	}
	return fc
}

// DeletedFeatureIDs returns the identities pending deletion, in click order.
func (s *Store) DeletedFeatureIDs() []geo.FeatureID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleted.ids()
}

// DeletedCount returns how many features are pending deletion.
func (s *Store) DeletedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleted.len()
}
