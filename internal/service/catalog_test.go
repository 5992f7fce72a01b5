package service

import (
	"os"
	"path/filepath"
	"testing"
)

const hdbSample = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {"Name": "a", "Description": ""}, "geometry": {"type": "Point", "coordinates": [103.85, 1.33]}},
		{"type": "Feature", "properties": {"Name": "b", "Description": ""}, "geometry": {"type": "Point", "coordinates": [103.86, 1.34]}}
	]
}`

func writeDataset(t *testing.T, dataDir, name, content string) {
	t.Helper()
	dir := filepath.Join(dataDir, "datasets")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCatalogLoadsGeoJSON(t *testing.T) {
	dataDir := t.TempDir()
	writeDataset(t, dataDir, "hdb.geojson", hdbSample)
	writeDataset(t, dataDir, "notes.txt", "not geojson")

	catalog, err := NewBaseCatalog(dataDir)
	if err != nil {
		t.Fatal(err)
	}

	fc, ok := catalog.Get("hdb")
	if !ok {
		t.Fatal("hdb dataset not loaded")
	}
	if len(fc.Features) != 2 {
		t.Fatalf("features=%d, want 2", len(fc.Features))
	}

	list := catalog.List()
	if len(list) != 1 || list[0].ID != "hdb" || list[0].Features != 2 {
		t.Fatalf("list=%+v, want [{hdb 2}]", list)
	}
}

func TestCatalogMissingDirIsEmpty(t *testing.T) {
	catalog, err := NewBaseCatalog(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog.List()) != 0 {
		t.Fatalf("list=%v, want empty", catalog.List())
	}
}

func TestCatalogRejectsInvalidGeoJSON(t *testing.T) {
	dataDir := t.TempDir()
	writeDataset(t, dataDir, "broken.geojson", "{not json")

	if _, err := NewBaseCatalog(dataDir); err == nil {
		t.Fatal("invalid geojson loaded without error")
	}
}
