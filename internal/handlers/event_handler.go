package handlers

import (
	"net/http"

	"ticket-portal/internal/services/portal"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type EventHandler struct {
	hooks *portal.Hooks
}

func NewEventHandler(hooks *portal.Hooks) *EventHandler {
	return &EventHandler{hooks: hooks}
}

// ListEvents - published events for the public listing
func (h *EventHandler) ListEvents(e *core.RequestEvent) error {
	events, err := h.hooks.PublicEvents(e.Request.Context())
	if err != nil {
		return apiError("h.hooks.PublicEvents()", err)
	}
	return e.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetEvent(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	if eventID == "" {
		return apis.NewBadRequestError("Event ID is required", nil)
	}

	event, err := h.hooks.Event(e.Request.Context(), eventID)
	if err != nil {
		return apiError("h.hooks.Event()", err)
	}
	return e.JSON(http.StatusOK, event)
}

func (h *EventHandler) EventTickets(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	if eventID == "" {
		return apis.NewBadRequestError("Event ID is required", nil)
	}

	tickets, err := h.hooks.EventTickets(e.Request.Context(), eventID)
	if err != nil {
		return apiError("h.hooks.EventTickets()", err)
	}
	return e.JSON(http.StatusOK, tickets)
}
