// Package service contains business logic for the walking-wizard platform.
package service

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

// DatasetRecord is a persisted user dataset: a delta against a base layer.
type DatasetRecord struct {
	ID              string             `json:"_id" doc:"Server-assigned dataset id"`
	UserID          string             `json:"userId" doc:"Owning user id"`
	Title           string             `json:"title" doc:"Layer title, used as the rendered layer id"`
	Description     string             `json:"description,omitempty" doc:"Free-form description"`
	ParentLayerID   string             `json:"parentLayerId" doc:"Base dataset this delta applies to"`
	NewFeatures     []*geojson.Feature `json:"newFeatures" doc:"Features added by the user, in creation order"`
	DeletedFeatures []*geojson.Feature `json:"deletedFeatures" doc:"Features removed from the base, in click order"`
	CreatedAt       time.Time          `json:"createdAt,omitempty"`
	UpdatedAt       time.Time          `json:"updatedAt,omitempty"`
}

// CreateDataset is the payload for persisting a new dataset delta.
type CreateDataset struct {
	Title           string             `json:"title" required:"true" minLength:"1" maxLength:"100" doc:"Layer title"`
	Description     string             `json:"description,omitempty" doc:"Free-form description"`
	ParentLayerID   string             `json:"parentLayerId" required:"true" doc:"Base dataset the delta applies to"`
	UserID          string             `json:"userId,omitempty" doc:"Owning user id (from the auth token)"`
	NewFeatures     []*geojson.Feature `json:"newFeatures" doc:"Features added in the edit session"`
	DeletedFeatures []*geojson.Feature `json:"deletedFeatures" doc:"Features deleted in the edit session"`
}

// UpdateDataset is the payload for re-submitting an existing dataset. The
// feature lists carry only the new session's edits; the service reconciles
// them with the persisted delta.
type UpdateDataset struct {
	Title           string             `json:"title,omitempty" doc:"New layer title"`
	Description     string             `json:"description,omitempty" doc:"New description"`
	UserID          string             `json:"userId,omitempty" doc:"Owning user id (from the auth token)"`
	NewFeatures     []*geojson.Feature `json:"newFeatures" doc:"Features added in this session"`
	DeletedFeatures []*geojson.Feature `json:"deletedFeatures" doc:"Features deleted in this session"`
}

// Scenario bundles selected datasets for offline walking analysis.
type Scenario struct {
	ID        string    `json:"id,omitempty" doc:"Scenario id"`
	Name      string    `json:"name" required:"true" minLength:"1" maxLength:"100" doc:"Scenario name"`
	UserID    string    `json:"userId,omitempty" doc:"Owning user id"`
	OriginID  string    `json:"origin" required:"true" doc:"Origin dataset layer id" example:"hdb"`
	DestID    string    `json:"dest" required:"true" doc:"Destination dataset layer id" example:"preschools"`
	NetworkID string    `json:"network" required:"true" doc:"Path network layer id" example:"network"`
	Bundle    string    `json:"bundle,omitempty" doc:"Bundle archive file name"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ScenarioResult is the walking analysis summary for a scenario.
type ScenarioResult struct {
	ScenarioID      string  `json:"scenarioId"`
	MeanDistanceM   float64 `json:"meanDistanceM" doc:"Mean walking distance, metres"`
	MedianDistanceM float64 `json:"medianDistanceM" doc:"Median walking distance, metres"`
	CoveredPct      float64 `json:"coveredPct" doc:"Share of origins within 800m of a destination"`
}
