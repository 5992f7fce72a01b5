// Package session holds the map-editing state for one editor: the layer
// list, the single layer under edit, pending added markers, and pending
// deletions. All mutations go through the Store; the map adapter and UI
// read derived views and echo changes visually.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/walkingwizard/wizard/internal/event"
	"github.com/walkingwizard/wizard/internal/geo"
)

// Visibility of a rendered layer.
type Visibility string

const (
	Visible Visibility = "visible"
	Hidden  Visibility = "none"
)

// DatasetLayer is one dataset currently rendered on the map.
type DatasetLayer struct {
	LayerID       string     `json:"layerId"`
	Visibility    Visibility `json:"visibility"`
	IsEditing     bool       `json:"isEditing"`
	IsUserCreated bool       `json:"isUserCreated"`
	BackendID     string     `json:"backendId"`
	ParentLayerID string     `json:"parentLayerId,omitempty"`
}

// Marker is a pending point addition. The map adapter owns the rendered
// visual handle, correlated by ID. Name is assigned when the marker is
// created and becomes the committed feature's identity.
type Marker struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Position orb.Point `json:"position"`
}

var (
	// ErrEditConflict reports an attempt to enter edit mode while another
	// layer is already being edited. This is a contract violation by the
	// caller, never merged or queued.
	ErrEditConflict = errors.New("another layer is already in editing mode")

	// ErrDuplicateLayer reports an AddLayer call with an existing layer id.
	ErrDuplicateLayer = errors.New("layer id already exists")

	// ErrUnknownLayer reports an operation against a layer id the store
	// does not know.
	ErrUnknownLayer = errors.New("layer not found")
)

// Store is the sole authority for edit-session state. Construct one per
// editor with NewStore; there is no package-level instance.
type Store struct {
	mu           sync.RWMutex
	layers       []DatasetLayer
	markers      []Marker
	nextMarkerID int
	deleted      *deletionSet
	currEditing  string

	bus *event.Bus
}

// NewStore creates an empty store. The bus may be nil when no subscriber
// cares about change events.
func NewStore(bus *event.Bus) *Store {
	return &Store{
		deleted: newDeletionSet(),
		bus:     bus,
	}
}

func (s *Store) publish(action, id string) {
	if s.bus != nil {
		s.bus.Publish(event.Event{Resource: "session", Action: action, ID: id})
	}
}

// AddLayer appends a layer to the list. Duplicate layer ids are rejected.
func (s *Store) AddLayer(layer DatasetLayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.layers {
		if l.LayerID == layer.LayerID {
			return fmt.Errorf("%w: %q", ErrDuplicateLayer, layer.LayerID)
		}
	}
	s.layers = append(s.layers, layer)
	s.publish("layer-added", layer.LayerID)
	return nil
}

// SetLayerProps replaces the layer list wholesale, preserving order. Layer
// ids must stay unique.
func (s *Store) SetLayerProps(layers []DatasetLayer) error {
	seen := make(map[string]struct{}, len(layers))
	for _, l := range layers {
		if _, ok := seen[l.LayerID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateLayer, l.LayerID)
		}
		seen[l.LayerID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = append([]DatasetLayer(nil), layers...)
	s.publish("layers-replaced", "")
	return nil
}

// RemoveLayer drops a layer from the list, for explicit deletion of a
// user-created layer.
func (s *Store) RemoveLayer(layerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.layers {
		if l.LayerID == layerID {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			s.publish("layer-removed", layerID)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownLayer, layerID)
}

// RemoveLayerByBackendID drops the user-created layer rendered for a
// persisted dataset id. Returns false when no layer matches, so deleting a
// dataset that was never rendered is a no-op.
func (s *Store) RemoveLayerByBackendID(backendID string) bool {
	s.mu.RLock()
	layerID := ""
	for _, l := range s.layers {
		if l.IsUserCreated && l.BackendID == backendID {
			layerID = l.LayerID
			break
		}
	}
	s.mu.RUnlock()

	if layerID == "" {
		return false
	}
	return s.RemoveLayer(layerID) == nil
}

// ToggleVisibility flips a layer between visible and none.
func (s *Store) ToggleVisibility(layerID string) (Visibility, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.layers {
		if l.LayerID != layerID {
			continue
		}
		if l.Visibility == Visible {
			s.layers[i].Visibility = Hidden
		} else {
			s.layers[i].Visibility = Visible
		}
		s.publish("visibility-toggled", layerID)
		return s.layers[i].Visibility, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLayer, layerID)
}

// EnterEditMode begins an edit session on one layer.
//
// Invariant: at most one layer has IsEditing set at any time. A second
// concurrent call fails with ErrEditConflict and leaves all state, including
// the first session, untouched.
func (s *Store) EnterEditMode(layerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.layers {
		if l.IsEditing {
			return fmt.Errorf("%w: %q", ErrEditConflict, l.LayerID)
		}
	}

	for i, l := range s.layers {
		if l.LayerID == layerID {
			s.layers[i].IsEditing = true
			s.currEditing = layerID
			s.publish("edit-started", layerID)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownLayer, layerID)
}

// CancelEdit discards all pending markers and deletions and leaves edit
// mode. Safe to call with no session in progress.
func (s *Store) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markers = nil
	s.deleted = newDeletionSet()
	s.currEditing = ""
	for i := range s.layers {
		s.layers[i].IsEditing = false
	}
	s.publish("edit-cancelled", "")
}

// CommitEdit snapshots the session's accumulated delta: markers become
// features with generated names, the deletion set becomes the deleted
// feature list. State is NOT cleared; the caller clears it (via CancelEdit)
// only after persistence succeeds, so a failed network call loses nothing.
func (s *Store) CommitEdit() (geo.Delta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currEditing == "" {
		return geo.Delta{}, errors.New("no layer in editing mode")
	}

	added := make([]*geojson.Feature, 0, len(s.markers))
	for _, m := range s.markers {
		added = append(added, geo.NewPointFeature(m.Name, m.Position))
	}
	return geo.Delta{
		NewFeatures:     added,
		DeletedFeatures: s.deleted.features(),
	}, nil
}
