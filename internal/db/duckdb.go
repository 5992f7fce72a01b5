// Package db opens the DuckDB database backing user dataset persistence.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Config holds database configuration.
type Config struct {
	DataDir string
	DBName  string
}

// Open opens (creating if needed) the DuckDB database under the data
// directory. Callers own the returned handle and must Close it.
func Open(cfg Config) (*sql.DB, error) {
	duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
	if err := os.MkdirAll(duckdbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
	}

	dbPath := filepath.Join(duckdbDir, cfg.DBName+".duckdb")
	return sql.Open("duckdb", dbPath)
}

// OpenMemory opens an in-memory DuckDB database, for tests.
func OpenMemory() (*sql.DB, error) {
	return sql.Open("duckdb", "")
}
