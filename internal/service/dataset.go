package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/walkingwizard/wizard/internal/event"
	"github.com/walkingwizard/wizard/internal/geo"
)

var (
	// ErrDatasetNotFound reports a lookup for an id with no persisted record.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrNotOwner reports a mutation attempted by a non-owning user.
	ErrNotOwner = errors.New("dataset belongs to another user")
)

// DatasetService persists user dataset deltas in DuckDB and computes their
// rendered views against the base catalog.
type DatasetService struct {
	db      *sql.DB
	catalog *BaseCatalog
	bus     *event.Bus
}

// NewDatasetService creates the service and its backing table.
func NewDatasetService(db *sql.DB, catalog *BaseCatalog, bus *event.Bus) (*DatasetService, error) {
	s := &DatasetService{db: db, catalog: catalog, bus: bus}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DatasetService) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS user_datasets (
			id               VARCHAR PRIMARY KEY,
			user_id          VARCHAR NOT NULL,
			title            VARCHAR NOT NULL,
			description      VARCHAR,
			parent_layer_id  VARCHAR,
			new_features     VARCHAR NOT NULL,
			deleted_features VARCHAR NOT NULL,
			created_at       TIMESTAMP,
			updated_at       TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("creating user_datasets table: %w", err)
	}
	return nil
}

func (s *DatasetService) publish(action, id string) {
	if s.bus != nil {
		s.bus.Publish(event.Event{Resource: "datasets", Action: action, ID: id})
	}
}

// Create persists a new dataset delta and returns the stored record with
// its server-assigned id.
func (s *DatasetService) Create(ctx context.Context, in CreateDataset) (DatasetRecord, error) {
	now := time.Now().UTC()
	rec := DatasetRecord{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Title:           in.Title,
		Description:     in.Description,
		ParentLayerID:   in.ParentLayerID,
		NewFeatures:     in.NewFeatures,
		DeletedFeatures: in.DeletedFeatures,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	newJSON, delJSON, err := marshalDelta(rec.NewFeatures, rec.DeletedFeatures)
	if err != nil {
		return DatasetRecord{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_datasets
			(id, user_id, title, description, parent_layer_id, new_features, deleted_features, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Title, rec.Description, rec.ParentLayerID,
		newJSON, delJSON, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return DatasetRecord{}, fmt.Errorf("inserting dataset: %w", err)
	}

	s.publish("created", rec.ID)
	return rec, nil
}

// Get returns a persisted dataset by id.
func (s *DatasetService) Get(ctx context.Context, id string) (DatasetRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, parent_layer_id,
		       new_features, deleted_features, created_at, updated_at
		FROM user_datasets WHERE id = ?`, id)
	return scanDataset(row)
}

// ListByUser returns all datasets owned by a user, oldest first.
func (s *DatasetService) ListByUser(ctx context.Context, userID string) ([]DatasetRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, parent_layer_id,
		       new_features, deleted_features, created_at, updated_at
		FROM user_datasets WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	defer rows.Close()

	datasets := []DatasetRecord{}
	for rows.Next() {
		rec, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, rec)
	}
	return datasets, rows.Err()
}

// ListAll returns every persisted dataset, oldest first. Used to rebuild
// the rendered layer list at startup.
func (s *DatasetService) ListAll(ctx context.Context) ([]DatasetRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, parent_layer_id,
		       new_features, deleted_features, created_at, updated_at
		FROM user_datasets ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	defer rows.Close()

	datasets := []DatasetRecord{}
	for rows.Next() {
		rec, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, rec)
	}
	return datasets, rows.Err()
}

// Update merges a new edit session's delta into the persisted one and
// writes back the reconciled result. A feature added in an earlier session
// and deleted in this one nets to absent. Re-running the same update is
// harmless.
func (s *DatasetService) Update(ctx context.Context, id string, in UpdateDataset) (DatasetRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return DatasetRecord{}, err
	}
	if in.UserID != "" && rec.UserID != in.UserID {
		return DatasetRecord{}, ErrNotOwner
	}

	merged := geo.Reconcile(
		geo.Delta{NewFeatures: rec.NewFeatures, DeletedFeatures: rec.DeletedFeatures},
		geo.Delta{NewFeatures: in.NewFeatures, DeletedFeatures: in.DeletedFeatures},
	)

	if in.Title != "" {
		rec.Title = in.Title
	}
	if in.Description != "" {
		rec.Description = in.Description
	}
	rec.NewFeatures = merged.NewFeatures
	rec.DeletedFeatures = merged.DeletedFeatures
	rec.UpdatedAt = time.Now().UTC()

	newJSON, delJSON, err := marshalDelta(rec.NewFeatures, rec.DeletedFeatures)
	if err != nil {
		return DatasetRecord{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE user_datasets
		SET title = ?, description = ?, new_features = ?, deleted_features = ?, updated_at = ?
		WHERE id = ?`,
		rec.Title, rec.Description, newJSON, delJSON, rec.UpdatedAt, id)
	if err != nil {
		return DatasetRecord{}, fmt.Errorf("updating dataset: %w", err)
	}

	s.publish("updated", id)
	return rec, nil
}

// Delete removes a dataset. userID, when non-empty, must match the owner.
func (s *DatasetService) Delete(ctx context.Context, id, userID string) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if userID != "" && rec.UserID != userID {
		return ErrNotOwner
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_datasets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting dataset: %w", err)
	}
	s.publish("deleted", id)
	return nil
}

// PatchedCollection computes the dataset's rendered view: parent base
// collection minus deleted identities, plus the added features. A dataset
// without a known parent patches against an empty base.
func (s *DatasetService) PatchedCollection(ctx context.Context, id string) (*geojson.FeatureCollection, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var base *geojson.FeatureCollection
	if s.catalog != nil {
		base, _ = s.catalog.Get(rec.ParentLayerID)
	}

	delta := geo.Delta{NewFeatures: rec.NewFeatures, DeletedFeatures: rec.DeletedFeatures}
	return geo.Patch(base, delta.NewFeatures, delta.DeletedIDs()), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row rowScanner) (DatasetRecord, error) {
	var rec DatasetRecord
	var description sql.NullString
	var newJSON, delJSON string

	err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &description, &rec.ParentLayerID,
		&newJSON, &delJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DatasetRecord{}, ErrDatasetNotFound
	}
	if err != nil {
		return DatasetRecord{}, fmt.Errorf("scanning dataset: %w", err)
	}
	rec.Description = description.String

	if err := json.Unmarshal([]byte(newJSON), &rec.NewFeatures); err != nil {
		return DatasetRecord{}, fmt.Errorf("parsing new features: %w", err)
	}
	if err := json.Unmarshal([]byte(delJSON), &rec.DeletedFeatures); err != nil {
		return DatasetRecord{}, fmt.Errorf("parsing deleted features: %w", err)
	}
	return rec, nil
}

func marshalDelta(added, deleted []*geojson.Feature) (string, string, error) {
	if added == nil {
		added = []*geojson.Feature{}
	}
	if deleted == nil {
		deleted = []*geojson.Feature{}
	}
	newJSON, err := json.Marshal(added)
	if err != nil {
		return "", "", fmt.Errorf("encoding new features: %w", err)
	}
	delJSON, err := json.Marshal(deleted)
	if err != nil {
		return "", "", fmt.Errorf("encoding deleted features: %w", err)
	}
	return string(newJSON), string(delJSON), nil
}
