package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/paulmach/orb/geojson"
)

// BaseDataset describes one immutable preloaded dataset.
type BaseDataset struct {
	ID       string `json:"id" doc:"Layer id, derived from the file name" example:"hdb"`
	Features int    `json:"features" doc:"Number of features in the collection"`
}

// BaseCatalog serves the immutable base FeatureCollections (housing blocks,
// preschools, transit stations, path network) loaded from disk at startup.
type BaseCatalog struct {
	datasetsDir string
	mu          sync.RWMutex
	collections map[string]*geojson.FeatureCollection
}

// NewBaseCatalog loads every *.geojson file under <dataDir>/datasets. The
// file stem becomes the layer id. A missing directory yields an empty
// catalog, not an error.
func NewBaseCatalog(dataDir string) (*BaseCatalog, error) {
	c := &BaseCatalog{
		datasetsDir: filepath.Join(dataDir, "datasets"),
		collections: make(map[string]*geojson.FeatureCollection),
	}
	if err := c.loadFromDisk(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *BaseCatalog) loadFromDisk() error {
	entries, err := os.ReadDir(c.datasetsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".geojson" && ext != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(c.datasetsDir, entry.Name()))
		if err != nil {
			return err
		}
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}

		id := strings.TrimSuffix(entry.Name(), ext)
		c.collections[id] = fc
	}
	return nil
}

// Get returns the base collection for a layer id.
func (c *BaseCatalog) Get(id string) (*geojson.FeatureCollection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fc, ok := c.collections[id]
	return fc, ok
}

// List returns all base datasets, sorted by id.
func (c *BaseCatalog) List() []BaseDataset {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]BaseDataset, 0, len(c.collections))
	for id, fc := range c.collections {
		out = append(out, BaseDataset{ID: id, Features: len(fc.Features)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
