package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"ticket-portal/internal/services/booking"
	"ticket-portal/internal/services/portal"
	"ticket-portal/internal/services/ticketdoc"
	"ticket-portal/internal/status"
	"ticket-portal/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type TicketHandler struct {
	hooks     *portal.Hooks
	publicURL string
}

func NewTicketHandler(hooks *portal.Hooks, publicURL string) *TicketHandler {
	return &TicketHandler{hooks: hooks, publicURL: strings.TrimRight(publicURL, "/")}
}

func (h *TicketHandler) booking(e *core.RequestEvent) (*models.Booking, error) {
	ref := strings.TrimSpace(e.Request.PathValue("reference"))
	if ref == "" {
		return nil, status.BookingNotFound(ref)
	}
	return h.hooks.BookingByReference(e.Request.Context(), ref)
}

// GetTickets - the ticket view of a booking reference, or a single ticket
// of it when ?index= is given
func (h *TicketHandler) GetTickets(e *core.RequestEvent) error {
	var index int
	raw := e.Request.URL.Query().Get("index")
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return apis.NewBadRequestError("index must be a whole number", err)
		}
		index = n
	}

	b, err := h.booking(e)
	if errors.Is(err, status.ErrBookingNotFound) {
		return ticketNotFound(e)
	}
	if err != nil {
		return apiError("h.hooks.BookingByReference()", err)
	}

	if b.Status == models.BookingConfirmed && !b.Complete() {
		slog.Warn("confirmed booking without a full ticket set", "reference", b.Reference,
			"quantity", b.Quantity, "codes", len(b.TicketCodes), "qr", len(b.QRCodes))
	}
	view := booking.NewTicketView(b)
	if raw == "" {
		return e.JSON(http.StatusOK, view)
	}
	page, ok := view.Page(index)
	if !ok {
		return apis.NewApiError(http.StatusConflict, "Tickets are not ready yet.", nil)
	}
	return e.JSON(http.StatusOK, page)
}

func (h *TicketHandler) PDF(e *core.RequestEvent) error {
	b, err := h.booking(e)
	if errors.Is(err, status.ErrBookingNotFound) {
		return ticketNotFound(e)
	}
	if err != nil {
		return apiError("h.hooks.BookingByReference()", err)
	}
	if b.Status != models.BookingConfirmed {
		return apis.NewApiError(http.StatusConflict, "Tickets are issued once the booking is confirmed.", nil)
	}

	var event *models.Event
	if b.EventID != "" {
		if event, err = h.hooks.Event(e.Request.Context(), b.EventID); err != nil {
			slog.Warn("h.hooks.Event()", "eventId", b.EventID, "error", err)
		}
	}

	doc, err := ticketdoc.PDF(b, event)
	if errors.Is(err, ticketdoc.ErrNoTickets) {
		return apis.NewApiError(http.StatusConflict, "Tickets are not ready yet.", nil)
	}
	if err != nil {
		return apiError("ticketdoc.PDF()", err)
	}

	e.Response.Header().Set("Content-Disposition", attachment("tickets-"+b.Reference+".pdf"))
	return e.Blob(http.StatusOK, "application/pdf", doc)
}

// SharePNG - QR image of the public ticket link
func (h *TicketHandler) SharePNG(e *core.RequestEvent) error {
	b, err := h.booking(e)
	if errors.Is(err, status.ErrBookingNotFound) {
		return ticketNotFound(e)
	}
	if err != nil {
		return apiError("h.hooks.BookingByReference()", err)
	}

	png, err := ticketdoc.SharePNG(ticketdoc.Link(h.publicURL, b.Reference), 320)
	if err != nil {
		return apiError("ticketdoc.SharePNG()", err)
	}
	e.Response.Header().Set("Cache-Control", "public, max-age=3600")
	return e.Blob(http.StatusOK, "image/png", png)
}

// attachment builds a Content-Disposition header that stays well formed
// whatever the backend put in the file name.
func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}
