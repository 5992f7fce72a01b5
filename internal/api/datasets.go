package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/walkingwizard/wizard/internal/auth"
	"github.com/walkingwizard/wizard/internal/service"
	"github.com/walkingwizard/wizard/internal/session"
)

// DatasetHandler serves persisted user dataset deltas.
type DatasetHandler struct {
	datasets *service.DatasetService
	verifier *auth.Verifier
	store    *session.Store
}

func NewDatasetHandler(datasets *service.DatasetService, verifier *auth.Verifier, store *session.Store) *DatasetHandler {
	return &DatasetHandler{datasets: datasets, verifier: verifier, store: store}
}

func (h *DatasetHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/datasets", h.ListDatasets, huma.OperationTags("datasets"))
	huma.Post(api, "/api/v1/datasets", h.CreateDataset, huma.OperationTags("datasets"))
	huma.Get(api, "/api/v1/datasets/{id}", h.GetDataset, huma.OperationTags("datasets"))
	huma.Patch(api, "/api/v1/datasets/{id}", h.UpdateDataset, huma.OperationTags("datasets"))
	huma.Delete(api, "/api/v1/datasets/{id}", h.DeleteDataset, huma.OperationTags("datasets"))
	huma.Get(api, "/api/v1/datasets/{id}/collection", h.GetCollection, huma.OperationTags("datasets"))
	huma.Get(api, "/api/v1/datasets/{id}/download", h.Download, huma.OperationTags("datasets"))
}

type DatasetIDInput struct {
	ID string `path:"id" doc:"Dataset id"`
}

type AuthInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
}

// user verifies the bearer token and returns the authenticated user id.
func (h *DatasetHandler) user(authorization string) (string, error) {
	claims, err := h.verifier.ParseBearer(authorization)
	if errors.Is(err, auth.ErrMissingToken) {
		return "", huma.Error401Unauthorized("authentication required")
	}
	if err != nil {
		return "", huma.Error401Unauthorized(err.Error())
	}
	return claims.UserID, nil
}

func datasetError(err error) error {
	switch {
	case errors.Is(err, service.ErrDatasetNotFound):
		return huma.Error404NotFound("dataset not found")
	case errors.Is(err, service.ErrNotOwner):
		return huma.Error403Forbidden("dataset belongs to another user")
	default:
		return huma.Error500InternalServerError("dataset operation failed", err)
	}
}

type DatasetsBody struct {
	Datasets []service.DatasetRecord `json:"datasets" doc:"Datasets owned by the authenticated user"`
}

func (h *DatasetHandler) ListDatasets(ctx context.Context, input *AuthInput) (*struct{ Body DatasetsBody }, error) {
	userID, err := h.user(input.Authorization)
	if err != nil {
		return nil, err
	}
	datasets, err := h.datasets.ListByUser(ctx, userID)
	if err != nil {
		return nil, datasetError(err)
	}
	return &struct{ Body DatasetsBody }{Body: DatasetsBody{Datasets: datasets}}, nil
}

type CreateDatasetInput struct {
	AuthInput
	Body service.CreateDataset
}

func (h *DatasetHandler) CreateDataset(ctx context.Context, input *CreateDatasetInput) (*struct{ Body service.DatasetRecord }, error) {
	userID, err := h.user(input.Authorization)
	if err != nil {
		return nil, err
	}

	in := input.Body
	in.UserID = userID
	created, err := h.datasets.Create(ctx, in)
	if err != nil {
		return nil, datasetError(err)
	}
	return &struct{ Body service.DatasetRecord }{Body: created}, nil
}

func (h *DatasetHandler) GetDataset(ctx context.Context, input *DatasetIDInput) (*struct{ Body service.DatasetRecord }, error) {
	rec, err := h.datasets.Get(ctx, input.ID)
	if err != nil {
		return nil, datasetError(err)
	}
	return &struct{ Body service.DatasetRecord }{Body: rec}, nil
}

type UpdateDatasetInput struct {
	DatasetIDInput
	AuthInput
	Body service.UpdateDataset
}

func (h *DatasetHandler) UpdateDataset(ctx context.Context, input *UpdateDatasetInput) (*struct{ Body service.DatasetRecord }, error) {
	userID, err := h.user(input.Authorization)
	if err != nil {
		return nil, err
	}

	in := input.Body
	in.UserID = userID
	updated, err := h.datasets.Update(ctx, input.ID, in)
	if err != nil {
		return nil, datasetError(err)
	}
	return &struct{ Body service.DatasetRecord }{Body: updated}, nil
}

type DeleteDatasetInput struct {
	DatasetIDInput
	AuthInput
}

func (h *DatasetHandler) DeleteDataset(ctx context.Context, input *DeleteDatasetInput) (*struct{ Body MessageBody }, error) {
	userID, err := h.user(input.Authorization)
	if err != nil {
		return nil, err
	}
	if err := h.datasets.Delete(ctx, input.ID, userID); err != nil {
		return nil, datasetError(err)
	}
	if h.store != nil {
		h.store.RemoveLayerByBackendID(input.ID)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Dataset deleted"}}, nil
}

// CollectionOutput carries a raw GeoJSON FeatureCollection body.
type CollectionOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func (h *DatasetHandler) GetCollection(ctx context.Context, input *DatasetIDInput) (*CollectionOutput, error) {
	fc, err := h.datasets.PatchedCollection(ctx, input.ID)
	if err != nil {
		return nil, datasetError(err)
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, huma.Error500InternalServerError("encoding collection", err)
	}
	return &CollectionOutput{ContentType: "application/geo+json", Body: data}, nil
}

// DownloadOutput serves the patched collection as a file attachment named
// {layerId}_data.geojson.
type DownloadOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func (h *DatasetHandler) Download(ctx context.Context, input *DatasetIDInput) (*DownloadOutput, error) {
	rec, err := h.datasets.Get(ctx, input.ID)
	if err != nil {
		return nil, datasetError(err)
	}
	fc, err := h.datasets.PatchedCollection(ctx, input.ID)
	if err != nil {
		return nil, datasetError(err)
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, huma.Error500InternalServerError("encoding collection", err)
	}
	return &DownloadOutput{
		ContentType:        "application/geo+json",
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", rec.Title+"_data.geojson"),
		Body:               data,
	}, nil
}
