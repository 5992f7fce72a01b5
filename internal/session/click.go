package session

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/walkingwizard/wizard/internal/geo"
)

// ClickAction tells the map adapter how to echo a classified click.
type ClickAction string

const (
	// ClickIgnored means no layer is in edit mode; nothing changed.
	ClickIgnored ClickAction = "ignored"
	// MarkerAdded means a new pending-add marker was created.
	MarkerAdded ClickAction = "marker-added"
	// MarkerRemoved means the click landed on a pending marker and
	// toggled it off.
	MarkerRemoved ClickAction = "marker-removed"
	// FeatureMarkedDeleted means a rendered feature joined the pending
	// deletion set; the adapter should flag it visually.
	FeatureMarkedDeleted ClickAction = "feature-marked"
	// FeatureUnmarkedDeleted means a pending deletion was toggled off.
	FeatureUnmarkedDeleted ClickAction = "feature-unmarked"
)

// ClickResult reports what a click did. MarkerID is set for marker actions,
// FeatureID for deletion toggles.
type ClickResult struct {
	Action    ClickAction   `json:"action"`
	MarkerID  int           `json:"markerId,omitempty"`
	FeatureID geo.FeatureID `json:"featureId,omitempty"`
}

// RecordClick classifies a map click during an active edit session.
//
// hits are the rendered features the map adapter found at the click point.
// With no hits the click toggles a pending-add marker: a click on an
// existing marker's position removes it, anywhere else creates one. With a
// hit, the first hit feature's membership in the pending deletion set is
// toggled. Without an active session the click is ignored.
func (s *Store) RecordClick(p orb.Point, hits []*geojson.Feature) ClickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currEditing == "" {
		return ClickResult{Action: ClickIgnored}
	}

	if len(hits) == 0 {
		for i, m := range s.markers {
			if m.Position.Equal(p) {
				removed := m.ID
				s.markers = append(s.markers[:i], s.markers[i+1:]...)
				s.publish("marker-removed", s.currEditing)
				return ClickResult{Action: MarkerRemoved, MarkerID: removed}
			}
		}
		s.nextMarkerID++
		m := Marker{ID: s.nextMarkerID, Name: geo.GeneratedName(), Position: p}
		s.markers = append(s.markers, m)
		s.publish("marker-added", s.currEditing)
		return ClickResult{Action: MarkerAdded, MarkerID: m.ID}
	}

	target := hits[0]
	id := geo.Identity(target)
	if s.deleted.has(id) {
		s.deleted.remove(id)
		s.publish("feature-unmarked", s.currEditing)
		return ClickResult{Action: FeatureUnmarkedDeleted, FeatureID: id}
	}
	s.deleted.add(id, target)
	s.publish("feature-marked", s.currEditing)
	return ClickResult{Action: FeatureMarkedDeleted, FeatureID: id}
}

// deletionSet maps feature identity to the original feature, iterating in
// click order so derived views are deterministic.
type deletionSet struct {
	order []geo.FeatureID
	byID  map[geo.FeatureID]*geojson.Feature
}

func newDeletionSet() *deletionSet {
	return &deletionSet{byID: make(map[geo.FeatureID]*geojson.Feature)}
}

func (d *deletionSet) has(id geo.FeatureID) bool {
	_, ok := d.byID[id]
	return ok
}

func (d *deletionSet) add(id geo.FeatureID, f *geojson.Feature) {
	if d.has(id) {
		return
	}
	d.order = append(d.order, id)
	d.byID[id] = f
}

func (d *deletionSet) remove(id geo.FeatureID) {
	if !d.has(id) {
		return
	}
	delete(d.byID, id)
	for i, existing := range d.order {
		if existing == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *deletionSet) features() []*geojson.Feature {
	out := make([]*geojson.Feature, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id])
	}
	return out
}

func (d *deletionSet) ids() []geo.FeatureID {
	return append([]geo.FeatureID(nil), d.order...)
}

func (d *deletionSet) len() int {
	return len(d.order)
}
