package service

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/walkingwizard/wizard/internal/event"
)

// ErrScenarioNotFound reports a lookup for an unknown scenario id.
var ErrScenarioNotFound = errors.New("scenario not found")

// LayerResolver resolves a layer id to its currently rendered collection:
// the raw base collection for base layers, the patched view for user
// datasets.
type LayerResolver interface {
	Resolve(ctx context.Context, layerID string) (*geojson.FeatureCollection, error)
}

// PlatformResolver resolves against the base catalog first, then persisted
// user datasets.
type PlatformResolver struct {
	Catalog  *BaseCatalog
	Datasets *DatasetService
}

func (r PlatformResolver) Resolve(ctx context.Context, layerID string) (*geojson.FeatureCollection, error) {
	if r.Catalog != nil {
		if fc, ok := r.Catalog.Get(layerID); ok {
			return fc, nil
		}
	}
	if r.Datasets != nil {
		return r.Datasets.PatchedCollection(ctx, layerID)
	}
	return nil, fmt.Errorf("layer %q not found", layerID)
}

// ScenarioService bundles selected datasets into downloadable archives for
// offline walking analysis. Scenario metadata is kept in a JSON file under
// the data directory; bundles live next to it as zip archives.
type ScenarioService struct {
	dataDir   string
	resolver  LayerResolver
	bus       *event.Bus
	mu        sync.RWMutex
	scenarios map[string]Scenario
}

// NewScenarioService creates a scenario service rooted at dataDir.
func NewScenarioService(dataDir string, resolver LayerResolver, bus *event.Bus) *ScenarioService {
	s := &ScenarioService{
		dataDir:   dataDir,
		resolver:  resolver,
		bus:       bus,
		scenarios: make(map[string]Scenario),
	}
	s.loadFromDisk()
	return s
}

// List returns all scenarios.
func (s *ScenarioService) List() []Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Scenario, 0, len(s.scenarios))
	for _, sc := range s.scenarios {
		out = append(out, sc)
	}
	return out
}

// Get returns a scenario by id.
func (s *ScenarioService) Get(id string) (Scenario, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scenarios[id]
	return sc, ok
}

// Create resolves the scenario's selected layers, writes the bundle
// archive, and persists the scenario. Each archive entry is named
// {layerId}_data.geojson.
func (s *ScenarioService) Create(ctx context.Context, sc Scenario) (Scenario, error) {
	sc.ID = uuid.NewString()
	sc.Bundle = sc.ID + ".zip"
	sc.CreatedAt = time.Now().UTC()

	selected := []string{sc.OriginID, sc.DestID, sc.NetworkID}
	if err := s.writeBundle(ctx, sc.Bundle, selected); err != nil {
		return Scenario{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenarios[sc.ID] = sc
	if err := s.saveToDisk(); err != nil {
		return Scenario{}, err
	}

	if s.bus != nil {
		s.bus.Publish(event.Event{Resource: "scenarios", Action: "created", ID: sc.ID})
	}
	return sc, nil
}

// Delete removes a scenario and its bundle.
func (s *ScenarioService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scenarios[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrScenarioNotFound, id)
	}
	delete(s.scenarios, id)
	os.Remove(filepath.Join(s.scenariosDir(), sc.Bundle))
	if err := s.saveToDisk(); err != nil {
		return err
	}

	if s.bus != nil {
		s.bus.Publish(event.Event{Resource: "scenarios", Action: "deleted", ID: id})
	}
	return nil
}

// BundlePath returns the path of a scenario's archive.
func (s *ScenarioService) BundlePath(id string) (string, error) {
	sc, ok := s.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrScenarioNotFound, id)
	}
	return filepath.Join(s.scenariosDir(), sc.Bundle), nil
}

// Analyze returns the walking analysis for a scenario.
//
// TODO: replace the fixed Bedok summary with a shortest-path computation
// over the scenario's network layer.
func (s *ScenarioService) Analyze(id string) (ScenarioResult, error) {
	if _, ok := s.Get(id); !ok {
		return ScenarioResult{}, fmt.Errorf("%w: %q", ErrScenarioNotFound, id)
	}
	return ScenarioResult{
		ScenarioID:      id,
		MeanDistanceM:   523.7,
		MedianDistanceM: 486.0,
		CoveredPct:      87.3,
	}, nil
}

func (s *ScenarioService) writeBundle(ctx context.Context, bundle string, layerIDs []string) error {
	if err := os.MkdirAll(s.scenariosDir(), 0755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(s.scenariosDir(), bundle))
	if err != nil {
		return fmt.Errorf("creating bundle: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	seen := make(map[string]struct{}, len(layerIDs))
	for _, id := range layerIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		fc, err := s.resolver.Resolve(ctx, id)
		if err != nil {
			zw.Close()
			return fmt.Errorf("resolving layer %q: %w", id, err)
		}
		data, err := json.Marshal(fc)
		if err != nil {
			zw.Close()
			return fmt.Errorf("encoding layer %q: %w", id, err)
		}

		entry, err := zw.Create(id + "_data.geojson")
		if err != nil {
			zw.Close()
			return err
		}
		if _, err := entry.Write(data); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

func (s *ScenarioService) scenariosDir() string {
	return filepath.Join(s.dataDir, "scenarios")
}

func (s *ScenarioService) configFile() string {
	return filepath.Join(s.dataDir, "scenarios.json")
}

// loadFromDisk loads scenario metadata from disk.
func (s *ScenarioService) loadFromDisk() {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		return // File doesn't exist yet, start empty
	}

	var scenarios map[string]Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return // Invalid JSON, start empty
	}
	s.scenarios = scenarios
}

// saveToDisk persists scenario metadata to disk.
func (s *ScenarioService) saveToDisk() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.scenarios, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.configFile(), data, 0644)
}
