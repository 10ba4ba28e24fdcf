package handlers

import (
	"log/slog"
	"net/http"

	"ticket-portal/internal/services/portal"
	"ticket-portal/internal/services/session"
	"ticket-portal/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type VendorHandler struct {
	hooks    *portal.Hooks
	sessions *session.Manager
	secure   bool
}

func NewVendorHandler(hooks *portal.Hooks, sessions *session.Manager, publicURL string) *VendorHandler {
	return &VendorHandler{hooks: hooks, sessions: sessions, secure: secureCookies(publicURL)}
}

func (h *VendorHandler) start(e *core.RequestEvent, reply *models.AuthReply) error {
	s, err := h.sessions.Login(e.Request.Context(), sessionID(e, h.secure), session.Vendor, reply)
	if err != nil {
		return apiError("h.sessions.Login()", err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"role":      s.Role,
		"vendor":    s.Vendor,
		"expiresAt": s.ExpiresAt,
	})
}

func (h *VendorHandler) Login(e *core.RequestEvent) error {
	var creds models.Credentials
	if err := e.BindBody(&creds); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if creds.Email == "" || creds.Password == "" {
		return apis.NewBadRequestError("Email and password are required", nil)
	}

	reply, err := h.hooks.Login(e.Request.Context(), creds)
	if err != nil {
		return apiError("h.hooks.Login()", err)
	}
	return h.start(e, reply)
}

func (h *VendorHandler) Register(e *core.RequestEvent) error {
	var reg models.Registration
	if err := e.BindBody(&reg); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	reply, err := h.hooks.Register(e.Request.Context(), reg)
	if err != nil {
		return apiError("h.hooks.Register()", err)
	}
	if reply.Token == "" {
		return e.JSON(http.StatusCreated, map[string]any{"vendor": reply.Vendor, "message": "Registration received."})
	}
	return h.start(e, reply)
}

func (h *VendorHandler) Logout(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	sid := currentSID(e)
	if s, err := h.sessions.Current(ctx, sid, session.Vendor); err == nil {
		if err := h.hooks.ForgetVendor(ctx, s.SubjectID()); err != nil {
			slog.Error("h.hooks.ForgetVendor()", "vendorId", s.SubjectID(), "error", err)
		}
	}
	if err := h.sessions.Logout(ctx, sid, session.Vendor); err != nil {
		return apiError("h.sessions.Logout()", err)
	}
	return e.NoContent(http.StatusNoContent)
}

func (h *VendorHandler) Me(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	return e.JSON(http.StatusOK, map[string]any{"role": s.Role, "vendor": s.Vendor, "expiresAt": s.ExpiresAt})
}

func (h *VendorHandler) Profile(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	p, err := h.hooks.VendorProfile(e.Request.Context(), s.SubjectID())
	if err != nil {
		return apiError("h.hooks.VendorProfile()", err)
	}
	return e.JSON(http.StatusOK, p)
}

func (h *VendorHandler) UpdateProfile(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	var in models.VendorProfile
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ctx := e.Request.Context()
	p, err := h.hooks.UpdateVendorProfile(ctx, s.SubjectID(), in)
	if err != nil {
		return apiError("h.hooks.UpdateVendorProfile()", err)
	}
	// The backend already holds the change.
	if _, err := h.sessions.Update(ctx, currentSID(e), session.Vendor, func(s *session.Session) { s.Vendor = p }); err != nil {
		slog.Error("h.sessions.Update()", "vendorId", s.SubjectID(), "error", err)
	}
	return e.JSON(http.StatusOK, p)
}

func (h *VendorHandler) Events(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	events, err := h.hooks.VendorEvents(e.Request.Context(), s.SubjectID())
	if err != nil {
		return apiError("h.hooks.VendorEvents()", err)
	}
	return e.JSON(http.StatusOK, events)
}

func (h *VendorHandler) CreateEvent(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	var in models.EventInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	event, err := h.hooks.CreateEvent(e.Request.Context(), s.SubjectID(), in)
	if err != nil {
		return apiError("h.hooks.CreateEvent()", err)
	}
	return e.JSON(http.StatusCreated, event)
}

func (h *VendorHandler) UpdateEvent(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	var in models.EventInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	event, err := h.hooks.UpdateEvent(e.Request.Context(), s.SubjectID(), e.Request.PathValue("eventId"), in)
	if err != nil {
		return apiError("h.hooks.UpdateEvent()", err)
	}
	return e.JSON(http.StatusOK, event)
}

func (h *VendorHandler) DeleteEvent(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	if err := h.hooks.DeleteEvent(e.Request.Context(), s.SubjectID(), e.Request.PathValue("eventId")); err != nil {
		return apiError("h.hooks.DeleteEvent()", err)
	}
	return e.NoContent(http.StatusNoContent)
}

// EventAction - publish, unpublish or cancel
func (h *VendorHandler) EventAction(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	ctx, vendorID, eventID := e.Request.Context(), s.SubjectID(), e.Request.PathValue("eventId")

	var event *models.Event
	switch e.Request.PathValue("action") {
	case "publish":
		event, err = h.hooks.PublishEvent(ctx, vendorID, eventID)
	case "unpublish":
		event, err = h.hooks.UnpublishEvent(ctx, vendorID, eventID)
	case "cancel":
		event, err = h.hooks.CancelEvent(ctx, vendorID, eventID)
	default:
		return apis.NewNotFoundError("Unknown event action", nil)
	}
	if err != nil {
		return apiError("h.hooks.EventAction()", err)
	}
	return e.JSON(http.StatusOK, event)
}

func (h *VendorHandler) Analytics(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	a, err := h.hooks.EventAnalytics(e.Request.Context(), s.SubjectID(), e.Request.PathValue("eventId"))
	if err != nil {
		return apiError("h.hooks.EventAnalytics()", err)
	}
	return e.JSON(http.StatusOK, a)
}

func (h *VendorHandler) Staff(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	staff, err := h.hooks.StaffList(e.Request.Context(), s.SubjectID())
	if err != nil {
		return apiError("h.hooks.StaffList()", err)
	}
	return e.JSON(http.StatusOK, staff)
}

func (h *VendorHandler) CreateStaff(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	var in models.StaffInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	staff, err := h.hooks.CreateStaff(e.Request.Context(), s.SubjectID(), in)
	if err != nil {
		return apiError("h.hooks.CreateStaff()", err)
	}
	return e.JSON(http.StatusCreated, staff)
}

func (h *VendorHandler) UpdateStaff(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	var in models.StaffInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	staff, err := h.hooks.UpdateStaff(e.Request.Context(), s.SubjectID(), e.Request.PathValue("staffId"), in)
	if err != nil {
		return apiError("h.hooks.UpdateStaff()", err)
	}
	return e.JSON(http.StatusOK, staff)
}

func (h *VendorHandler) DeleteStaff(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	if err := h.hooks.DeleteStaff(e.Request.Context(), s.SubjectID(), e.Request.PathValue("staffId")); err != nil {
		return apiError("h.hooks.DeleteStaff()", err)
	}
	return e.NoContent(http.StatusNoContent)
}

func (h *VendorHandler) AssignStaff(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	if err := h.hooks.AssignStaff(e.Request.Context(), s.SubjectID(), e.Request.PathValue("staffId"), e.Request.PathValue("eventId")); err != nil {
		return apiError("h.hooks.AssignStaff()", err)
	}
	return e.NoContent(http.StatusNoContent)
}

func (h *VendorHandler) UnassignStaff(e *core.RequestEvent) error {
	s, err := mustSession(e)
	if err != nil {
		return err
	}
	if err := h.hooks.UnassignStaff(e.Request.Context(), s.SubjectID(), e.Request.PathValue("staffId"), e.Request.PathValue("eventId")); err != nil {
		return apiError("h.hooks.UnassignStaff()", err)
	}
	return e.NoContent(http.StatusNoContent)
}
