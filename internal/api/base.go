package api

import (
	"context"
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"

	"github.com/walkingwizard/wizard/internal/service"
)

// BaseHandler serves the immutable preloaded datasets.
type BaseHandler struct {
	catalog *service.BaseCatalog
}

func NewBaseHandler(catalog *service.BaseCatalog) *BaseHandler {
	return &BaseHandler{catalog: catalog}
}

func (h *BaseHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/base", h.ListBase, huma.OperationTags("base"))
	huma.Get(api, "/api/v1/base/{id}", h.GetBase, huma.OperationTags("base"))
}

func (h *BaseHandler) ListBase(ctx context.Context, input *struct{}) (*struct{ Body []service.BaseDataset }, error) {
	return &struct{ Body []service.BaseDataset }{Body: h.catalog.List()}, nil
}

type BaseIDInput struct {
	ID string `path:"id" doc:"Base dataset id" example:"hdb"`
}

func (h *BaseHandler) GetBase(ctx context.Context, input *BaseIDInput) (*CollectionOutput, error) {
	fc, ok := h.catalog.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("base dataset not found")
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, huma.Error500InternalServerError("encoding collection", err)
	}
	return &CollectionOutput{ContentType: "application/geo+json", Body: data}, nil
}
