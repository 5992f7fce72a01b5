// Package server wires the walking-wizard services into an HTTP handler.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/walkingwizard/wizard/internal/api"
	"github.com/walkingwizard/wizard/internal/api/editor"
	"github.com/walkingwizard/wizard/internal/auth"
	"github.com/walkingwizard/wizard/internal/db"
	"github.com/walkingwizard/wizard/internal/event"
	"github.com/walkingwizard/wizard/internal/service"
	"github.com/walkingwizard/wizard/internal/session"
)

// Config holds the server configuration.
type Config struct {
	Host      string
	Port      string
	DataDir   string
	JWTSecret string
}

// Server is the walking-wizard HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	bus      *event.Bus
	store    *session.Store
	services *api.Services
}

// New creates a new server and loads the base catalog, dataset store, and
// edit-session layer list.
func New(cfg Config) (*Server, error) {
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("walking-wizard API", "1.0.0")
	humaConfig.Info.Description = "Geospatial dataset platform: base layers, user dataset deltas, edit sessions, and walking scenarios."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	bus := event.NewBus()

	catalog, err := service.NewBaseCatalog(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("loading base catalog: %w", err)
	}

	conn, err := db.Open(db.Config{DataDir: cfg.DataDir, DBName: "wizard"})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	datasets, err := service.NewDatasetService(conn, catalog, bus)
	if err != nil {
		conn.Close()
		return nil, err
	}

	resolver := service.PlatformResolver{Catalog: catalog, Datasets: datasets}
	scenarios := service.NewScenarioService(cfg.DataDir, resolver, bus)
	verifier := auth.NewVerifier(cfg.JWTSecret)

	store := session.NewStore(bus)
	if err := loadLayers(store, catalog, datasets); err != nil {
		conn.Close()
		return nil, err
	}

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humaAPI,
		db:      conn,
		bus:     bus,
		store:   store,
		services: &api.Services{
			Catalog:   catalog,
			Datasets:  datasets,
			Scenarios: scenarios,
			Verifier:  verifier,
		},
	}
	s.routes(verifier)
	return s, nil
}

// loadLayers rebuilds the rendered layer list: one entry per base dataset,
// one per persisted user dataset.
func loadLayers(store *session.Store, catalog *service.BaseCatalog, datasets *service.DatasetService) error {
	for _, base := range catalog.List() {
		err := store.AddLayer(session.DatasetLayer{
			LayerID:    base.ID,
			Visibility: session.Visible,
		})
		if err != nil {
			return err
		}
	}

	records, err := datasets.ListAll(context.Background())
	if err != nil {
		return err
	}
	for _, rec := range records {
		err := store.AddLayer(session.DatasetLayer{
			LayerID:       rec.Title,
			Visibility:    session.Visible,
			IsUserCreated: true,
			BackendID:     rec.ID,
			ParentLayerID: rec.ParentLayerID,
		})
		if err != nil {
			// Title collisions between users are possible; log and render
			// the older layer only.
			log.Printf("skipping layer %q: %v", rec.Title, err)
		}
	}
	return nil
}

func (s *Server) routes(verifier *auth.Verifier) {
	api.NewInfoHandler(s.config.DataDir, s.db != nil).RegisterRoutes(s.humaAPI)
	api.NewBaseHandler(s.services.Catalog).RegisterRoutes(s.humaAPI)
	api.NewDatasetHandler(s.services.Datasets, verifier, s.store).RegisterRoutes(s.humaAPI)
	api.NewScenarioHandler(s.services.Scenarios, verifier).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.db).RegisterRoutes(s.humaAPI)

	editor.NewHandler(s.store, s.services.Datasets, verifier).RegisterRoutes(s.humaAPI)
	editor.NewEventHandler(s.store, s.bus).RegisterRoutes(s.humaAPI)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the API description for spec export.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
