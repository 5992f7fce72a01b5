package api

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2"

	"github.com/walkingwizard/wizard/internal/auth"
	"github.com/walkingwizard/wizard/internal/service"
)

// ScenarioHandler serves scenario bundles and analysis results.
type ScenarioHandler struct {
	scenarios *service.ScenarioService
	verifier  *auth.Verifier
}

func NewScenarioHandler(scenarios *service.ScenarioService, verifier *auth.Verifier) *ScenarioHandler {
	return &ScenarioHandler{scenarios: scenarios, verifier: verifier}
}

func (h *ScenarioHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/scenarios", h.ListScenarios, huma.OperationTags("scenarios"))
	huma.Post(api, "/api/v1/scenarios", h.CreateScenario, huma.OperationTags("scenarios"))
	huma.Get(api, "/api/v1/scenarios/{id}", h.GetScenario, huma.OperationTags("scenarios"))
	huma.Delete(api, "/api/v1/scenarios/{id}", h.DeleteScenario, huma.OperationTags("scenarios"))
	huma.Get(api, "/api/v1/scenarios/{id}/bundle", h.DownloadBundle, huma.OperationTags("scenarios"))
	huma.Get(api, "/api/v1/scenarios/{id}/result", h.GetResult, huma.OperationTags("scenarios"))
}

type ScenarioIDInput struct {
	ID string `path:"id" doc:"Scenario id"`
}

func scenarioError(err error) error {
	if errors.Is(err, service.ErrScenarioNotFound) {
		return huma.Error404NotFound("scenario not found")
	}
	return huma.Error500InternalServerError("scenario operation failed", err)
}

func (h *ScenarioHandler) ListScenarios(ctx context.Context, input *struct{}) (*struct{ Body []service.Scenario }, error) {
	return &struct{ Body []service.Scenario }{Body: h.scenarios.List()}, nil
}

type CreateScenarioInput struct {
	AuthInput
	Body service.Scenario
}

func (h *ScenarioHandler) CreateScenario(ctx context.Context, input *CreateScenarioInput) (*struct{ Body service.Scenario }, error) {
	claims, err := h.verifier.ParseBearer(input.Authorization)
	if errors.Is(err, auth.ErrMissingToken) {
		return nil, huma.Error401Unauthorized("authentication required")
	}
	if err != nil {
		return nil, huma.Error401Unauthorized(err.Error())
	}

	sc := input.Body
	sc.UserID = claims.UserID
	created, err := h.scenarios.Create(ctx, sc)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &struct{ Body service.Scenario }{Body: created}, nil
}

func (h *ScenarioHandler) GetScenario(ctx context.Context, input *ScenarioIDInput) (*struct{ Body service.Scenario }, error) {
	sc, ok := h.scenarios.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("scenario not found")
	}
	return &struct{ Body service.Scenario }{Body: sc}, nil
}

func (h *ScenarioHandler) DeleteScenario(ctx context.Context, input *ScenarioIDInput) (*struct{ Body MessageBody }, error) {
	if err := h.scenarios.Delete(input.ID); err != nil {
		return nil, scenarioError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Scenario deleted"}}, nil
}

// BundleOutput serves the scenario's dataset archive.
type BundleOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func (h *ScenarioHandler) DownloadBundle(ctx context.Context, input *ScenarioIDInput) (*BundleOutput, error) {
	path, err := h.scenarios.BundlePath(input.ID)
	if err != nil {
		return nil, scenarioError(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, huma.Error500InternalServerError("reading bundle", err)
	}
	return &BundleOutput{
		ContentType:        "application/zip",
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", input.ID+".zip"),
		Body:               data,
	}, nil
}

func (h *ScenarioHandler) GetResult(ctx context.Context, input *ScenarioIDInput) (*struct{ Body service.ScenarioResult }, error) {
	result, err := h.scenarios.Analyze(input.ID)
	if err != nil {
		return nil, scenarioError(err)
	}
	return &struct{ Body service.ScenarioResult }{Body: result}, nil
}
