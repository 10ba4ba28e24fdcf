package handlers

import (
	"net/http"

	"ticket-portal/internal/services/portal"
	"ticket-portal/internal/services/session"
	"ticket-portal/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type StaffHandler struct {
	hooks    *portal.Hooks
	sessions *session.Manager
	secure   bool
}

func NewStaffHandler(hooks *portal.Hooks, sessions *session.Manager, publicURL string) *StaffHandler {
	return &StaffHandler{hooks: hooks, sessions: sessions, secure: secureCookies(publicURL)}
}

func (h *StaffHandler) Login(e *core.RequestEvent) error {
	var creds models.Credentials
	if err := e.BindBody(&creds); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if creds.Email == "" || creds.Password == "" {
		return apis.NewBadRequestError("Email and password are required", nil)
	}

	ctx := e.Request.Context()
	reply, err := h.hooks.StaffLogin(ctx, creds)
	if err != nil {
		return apiError("h.hooks.StaffLogin()", err)
	}
	s, err := h.sessions.Login(ctx, sessionID(e, h.secure), session.Staff, reply)
	if err != nil {
		return apiError("h.sessions.Login()", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"staff": s.Staff, "expiresAt": s.ExpiresAt})
}

func (h *StaffHandler) Logout(e *core.RequestEvent) error {
	if err := h.sessions.Logout(e.Request.Context(), currentSID(e), session.Staff); err != nil {
		return apiError("h.sessions.Logout()", err)
	}
	return e.NoContent(http.StatusNoContent)
}

func (h *StaffHandler) Events(e *core.RequestEvent) error {
	events, err := h.hooks.StaffEvents(e.Request.Context())
	if err != nil {
		return apiError("h.hooks.StaffEvents()", err)
	}
	return e.JSON(http.StatusOK, events)
}

// Scan - validates a ticket at the gate
func (h *StaffHandler) Scan(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	var req models.ScanRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	result, err := h.hooks.ScanTicket(e.Request.Context(), s.Staff, req)
	if err != nil {
		return apiError("h.hooks.ScanTicket()", err)
	}
	return e.JSON(http.StatusOK, result)
}

func (h *StaffHandler) Scans(e *core.RequestEvent) error {
	scans, err := h.hooks.ScanHistory(e.Request.Context(), e.Request.URL.Query().Get("eventId"))
	if err != nil {
		return apiError("h.hooks.ScanHistory()", err)
	}
	return e.JSON(http.StatusOK, scans)
}
