package handlers

import (
	"net/http"

	"ticket-portal/internal/services/contact"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type ContactHandler struct {
	contact *contact.Service
}

func NewContactHandler(svc *contact.Service) *ContactHandler {
	return &ContactHandler{contact: svc}
}

func (h *ContactHandler) Send(e *core.RequestEvent) error {
	var msg contact.Message
	if err := e.BindBody(&msg); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if err := h.contact.Send(msg); err != nil {
		return apiError("h.contact.Send()", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"message": "Thanks for reaching out. We will get back to you soon."})
}
