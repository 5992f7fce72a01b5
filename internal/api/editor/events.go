package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/walkingwizard/wizard/internal/event"
	"github.com/walkingwizard/wizard/internal/session"
)

// EventHandler streams session and dataset change events to map clients
// via Datastar SSE signals.
type EventHandler struct {
	store *session.Store
	bus   *event.Bus
}

func NewEventHandler(store *session.Store, bus *event.Bus) *EventHandler {
	return &EventHandler{store: store, bus: bus}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/events", h.Events, huma.OperationTags("editor"))
}

func (h *EventHandler) Events(ctx context.Context, input *struct{}) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			ch := h.bus.Subscribe()
			defer h.bus.Unsubscribe(ch)

			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-ch:
					signals := map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"id":       ev.ID,
					}
					if ev.Resource == "session" {
						signals["markerCount"] = len(h.store.Markers())
						signals["deletedCount"] = h.store.DeletedCount()
						signals["editingLayers"] = h.store.TotalEditingLayers()
					}
					sse.Signals(signals)
				}
			}
		},
	}, nil
}
