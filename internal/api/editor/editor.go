package editor

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/walkingwizard/wizard/internal/auth"
	"github.com/walkingwizard/wizard/internal/service"
	"github.com/walkingwizard/wizard/internal/session"
)

// Handler drives the server-held edit session: entering and leaving edit
// mode, classifying clicks, and committing the accumulated delta to the
// dataset store.
type Handler struct {
	store    *session.Store
	datasets *service.DatasetService
	verifier *auth.Verifier
}

func NewHandler(store *session.Store, datasets *service.DatasetService, verifier *auth.Verifier) *Handler {
	return &Handler{store: store, datasets: datasets, verifier: verifier}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/state", h.GetState, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/edit/{layerId}", h.EnterEdit, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/layers/{layerId}/visibility", h.ToggleVisibility, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/click", h.Click, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/cancel", h.Cancel, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/commit", h.Commit, huma.OperationTags("editor"))
}

type LayerIDInput struct {
	LayerID string `path:"layerId" doc:"Layer id" example:"hdb"`
}

// StateBody is a snapshot of the edit session for the map client.
type StateBody struct {
	Layers           []session.DatasetLayer `json:"layers"`
	CurrEditingLayer string                 `json:"currEditingLayer,omitempty" doc:"Layer under edit, empty when none"`
	Markers          []session.Marker       `json:"markers" doc:"Pending point additions"`
	DeletedCount     int                    `json:"deletedCount" doc:"Pending deletions"`
	DeletedIDs       []string               `json:"deletedIds" doc:"Identities pending deletion, in click order"`
}

func (h *Handler) snapshot() StateBody {
	body := StateBody{
		Layers:       h.store.Layers(),
		Markers:      h.store.Markers(),
		DeletedCount: h.store.DeletedCount(),
		DeletedIDs:   []string{},
	}
	for _, id := range h.store.DeletedFeatureIDs() {
		body.DeletedIDs = append(body.DeletedIDs, string(id))
	}
	if layer, ok := h.store.CurrEditingLayer(); ok {
		body.CurrEditingLayer = layer.LayerID
	}
	return body
}

func (h *Handler) GetState(ctx context.Context, input *struct{}) (*struct{ Body StateBody }, error) {
	return &struct{ Body StateBody }{Body: h.snapshot()}, nil
}

func (h *Handler) EnterEdit(ctx context.Context, input *LayerIDInput) (*struct{ Body StateBody }, error) {
	err := h.store.EnterEditMode(input.LayerID)
	switch {
	case errors.Is(err, session.ErrEditConflict):
		// Contract violation by the client, surfaced immediately.
		return nil, huma.Error409Conflict(err.Error())
	case errors.Is(err, session.ErrUnknownLayer):
		return nil, huma.Error404NotFound(err.Error())
	case err != nil:
		return nil, huma.Error500InternalServerError("entering edit mode", err)
	}
	return &struct{ Body StateBody }{Body: h.snapshot()}, nil
}

func (h *Handler) ToggleVisibility(ctx context.Context, input *LayerIDInput) (*struct{ Body StateBody }, error) {
	if _, err := h.store.ToggleVisibility(input.LayerID); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &struct{ Body StateBody }{Body: h.snapshot()}, nil
}

// ClickInput carries a map click: the clicked point and the rendered
// features the map client found at that point.
type ClickInput struct {
	Body struct {
		Point orb.Point          `json:"point" doc:"Clicked location as [lng, lat]"`
		Hits  []*geojson.Feature `json:"hits,omitempty" doc:"Rendered features at the click point"`
	}
}

type ClickBody struct {
	Result session.ClickResult `json:"result"`
	State  StateBody           `json:"state"`
}

func (h *Handler) Click(ctx context.Context, input *ClickInput) (*struct{ Body ClickBody }, error) {
	result := h.store.RecordClick(input.Body.Point, input.Body.Hits)
	return &struct{ Body ClickBody }{Body: ClickBody{Result: result, State: h.snapshot()}}, nil
}

func (h *Handler) Cancel(ctx context.Context, input *struct{}) (*struct{ Body StateBody }, error) {
	h.store.CancelEdit()
	return &struct{ Body StateBody }{Body: h.snapshot()}, nil
}

// CommitInput names and describes the dataset being saved.
type CommitInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Body          struct {
		Title       string `json:"title" required:"true" minLength:"1" maxLength:"100" doc:"Layer title"`
		Description string `json:"description,omitempty" doc:"Free-form description"`
	}
}

type CommitBody struct {
	Dataset service.DatasetRecord `json:"dataset"`
	State   StateBody             `json:"state"`
}

// Commit persists the session delta: a create for a base layer, a
// reconciling update for a previously-persisted user layer. The session is
// cleared only after persistence succeeds and only if the same session is
// still live, so a failed request or a cancel-during-flight loses nothing.
func (h *Handler) Commit(ctx context.Context, input *CommitInput) (*struct{ Body CommitBody }, error) {
	claims, err := h.verifier.ParseBearer(input.Authorization)
	if errors.Is(err, auth.ErrMissingToken) {
		return nil, huma.Error401Unauthorized("authentication required")
	}
	if err != nil {
		return nil, huma.Error401Unauthorized(err.Error())
	}

	layer, ok := h.store.CurrEditingLayer()
	if !ok {
		return nil, huma.Error400BadRequest("no layer in editing mode")
	}
	if err := h.checkTitle(layer, input.Body.Title); err != nil {
		return nil, err
	}

	delta, err := h.store.CommitEdit()
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	var rec service.DatasetRecord
	if layer.IsUserCreated {
		rec, err = h.datasets.Update(ctx, layer.BackendID, service.UpdateDataset{
			Title:           input.Body.Title,
			Description:     input.Body.Description,
			UserID:          claims.UserID,
			NewFeatures:     delta.NewFeatures,
			DeletedFeatures: delta.DeletedFeatures,
		})
	} else {
		rec, err = h.datasets.Create(ctx, service.CreateDataset{
			Title:           input.Body.Title,
			Description:     input.Body.Description,
			ParentLayerID:   layer.LayerID,
			UserID:          claims.UserID,
			NewFeatures:     delta.NewFeatures,
			DeletedFeatures: delta.DeletedFeatures,
		})
	}
	if err != nil {
		// Recoverable: the session delta stays intact for a retry.
		if errors.Is(err, service.ErrNotOwner) {
			return nil, huma.Error403Forbidden(err.Error())
		}
		if errors.Is(err, service.ErrDatasetNotFound) {
			return nil, huma.Error404NotFound(err.Error())
		}
		return nil, huma.Error502BadGateway("persisting dataset failed", err)
	}

	// Discard the session only if it is still the one we committed;
	// a cancel that raced the persistence call wins.
	if live, ok := h.store.CurrEditingLayer(); ok && live.LayerID == layer.LayerID {
		h.store.CancelEdit()
		h.applyLayerResult(layer, rec)
	}

	return &struct{ Body CommitBody }{Body: CommitBody{Dataset: rec, State: h.snapshot()}}, nil
}

// checkTitle refuses a commit whose title collides with an existing layer
// id, before anything is persisted. Re-committing a user layer under its
// own title is not a collision.
func (h *Handler) checkTitle(edited session.DatasetLayer, title string) error {
	existing, ok := h.store.Layer(title)
	if !ok {
		return nil
	}
	if edited.IsUserCreated && existing.BackendID == edited.BackendID {
		return nil
	}
	return huma.Error409Conflict(fmt.Sprintf("layer %q already exists", title))
}

// applyLayerResult reflects a successful persistence in the layer list:
// a fresh user layer appears for a create, an existing one is retitled for
// an update.
func (h *Handler) applyLayerResult(edited session.DatasetLayer, rec service.DatasetRecord) {
	if !edited.IsUserCreated {
		err := h.store.AddLayer(session.DatasetLayer{
			LayerID:       rec.Title,
			Visibility:    session.Visible,
			IsUserCreated: true,
			BackendID:     rec.ID,
			ParentLayerID: rec.ParentLayerID,
		})
		if err != nil {
			log.Printf("adding committed layer %q: %v", rec.Title, err)
		}
		return
	}

	layers := h.store.Layers()
	for i, l := range layers {
		if l.BackendID == rec.ID {
			layers[i].LayerID = rec.Title
		}
	}
	if err := h.store.SetLayerProps(layers); err != nil {
		log.Printf("retitling layer for dataset %s: %v", rec.ID, err)
	}
}
