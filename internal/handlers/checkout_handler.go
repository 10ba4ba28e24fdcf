package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"ticket-portal/internal/services/booking"
	"ticket-portal/internal/services/portal"
	"ticket-portal/internal/status"
	"ticket-portal/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type CheckoutHandler struct {
	hooks     *portal.Hooks
	registry  *booking.Registry
	backoff   booking.Backoff
	publicURL string
}

func NewCheckoutHandler(hooks *portal.Hooks, registry *booking.Registry, backoff booking.Backoff, publicURL string) *CheckoutHandler {
	return &CheckoutHandler{
		hooks:     hooks,
		registry:  registry,
		backoff:   backoff,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

type selectRequest struct {
	EventID          string `json:"eventId"`
	TicketCategoryID string `json:"ticketCategoryId"`
	Quantity         int    `json:"quantity"`
}

// selection loads the event and its current stock for a ticket choice.
func (h *CheckoutHandler) selection(ctx context.Context, req selectRequest) (*models.Event, *models.TicketCategory, error) {
	if req.EventID == "" {
		return nil, nil, status.Validation("eventId", "Choose an event.")
	}
	event, err := h.hooks.Event(ctx, req.EventID)
	if err != nil {
		return nil, nil, err
	}
	tickets, err := h.hooks.EventTickets(ctx, req.EventID)
	if err != nil {
		return nil, nil, err
	}
	for i := range tickets {
		if tickets[i].ID == req.TicketCategoryID {
			return event, &tickets[i], nil
		}
	}
	return nil, nil, status.Validation("ticketCategoryId", "Select a ticket category.")
}

func (h *CheckoutHandler) flow(e *core.RequestEvent) (*booking.Workflow, error) {
	w, err := h.registry.Get(e.Request.PathValue("checkoutId"))
	if err != nil {
		return nil, apiError("h.registry.Get()", err)
	}
	return w, nil
}

// Start - opens a checkout for a ticket choice
func (h *CheckoutHandler) Start(e *core.RequestEvent) error {
	var req selectRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	ctx := e.Request.Context()

	event, category, err := h.selection(ctx, req)
	if err != nil {
		return apiError("h.selection()", err)
	}

	w, err := h.registry.Open(ctx)
	if err != nil {
		return apiError("h.registry.Open()", err)
	}
	if err := w.Select(event, category, req.Quantity); err != nil {
		h.registry.Close(w.ID)
		return apiError("w.Select()", err)
	}
	return e.JSON(http.StatusCreated, w.Snapshot())
}

// Select - changes the ticket choice of an open checkout
func (h *CheckoutHandler) Select(e *core.RequestEvent) error {
	w, err := h.flow(e)
	if err != nil {
		return err
	}
	var req selectRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	event, category, err := h.selection(e.Request.Context(), req)
	if err != nil {
		return apiError("h.selection()", err)
	}
	if err := w.Select(event, category, req.Quantity); err != nil {
		return apiError("w.Select()", err)
	}
	return e.JSON(http.StatusOK, w.Snapshot())
}

func (h *CheckoutHandler) Get(e *core.RequestEvent) error {
	w, err := h.flow(e)
	if err != nil {
		return err
	}
	return e.JSON(http.StatusOK, w.Snapshot())
}

// Submit - creates the booking with the customer's details
func (h *CheckoutHandler) Submit(e *core.RequestEvent) error {
	w, err := h.flow(e)
	if err != nil {
		return err
	}
	var customer models.Customer
	if err := e.BindBody(&customer); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if _, err := w.Submit(e.Request.Context(), customer); err != nil {
		return apiError("w.Submit()", err)
	}
	return e.JSON(http.StatusOK, w.Snapshot())
}

func (h *CheckoutHandler) callbackURL(checkoutID string) string {
	return h.publicURL + "/api/v1/payments/return?checkout=" + url.QueryEscape(checkoutID)
}

// Pay - submits the payment order and returns the provider page
func (h *CheckoutHandler) Pay(e *core.RequestEvent) error {
	w, err := h.flow(e)
	if err != nil {
		return err
	}

	redirect, err := w.StartPayment(e.Request.Context(), h.callbackURL(w.ID))
	if err != nil {
		return apiError("w.StartPayment()", err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"redirectUrl": redirect,
		"checkout":    w.Snapshot(),
	})
}

// Verify - checks the payment once, on the customer's request
func (h *CheckoutHandler) Verify(e *core.RequestEvent) error {
	w, err := h.flow(e)
	if err != nil {
		return err
	}

	if _, err := w.VerifyPayment(e.Request.Context(), booking.ProviderReturn{
		OrderTrackingID:   e.Request.URL.Query().Get("OrderTrackingId"),
		MerchantReference: e.Request.URL.Query().Get("OrderMerchantReference"),
	}); err != nil && !errors.Is(err, status.ErrPaymentVerificationFailed) {
		return apiError("w.VerifyPayment()", err)
	}
	return e.JSON(http.StatusOK, w.Snapshot())
}

// Poll - re-checks a pending payment within the backoff bound
func (h *CheckoutHandler) Poll(e *core.RequestEvent) error {
	w, err := h.flow(e)
	if err != nil {
		return err
	}

	_, err = w.PollPayment(e.Request.Context(), h.backoff)
	switch {
	case err == nil, errors.Is(err, status.ErrPollTimeout), errors.Is(err, status.ErrPaymentVerificationFailed):
		return e.JSON(http.StatusOK, w.Snapshot())
	default:
		return apiError("w.PollPayment()", err)
	}
}

// Tickets - the confirmed booking's tickets
func (h *CheckoutHandler) Tickets(e *core.RequestEvent) error {
	w, err := h.flow(e)
	if err != nil {
		return err
	}

	view, err := w.LoadTickets(e.Request.Context())
	if errors.Is(err, status.ErrBookingNotFound) {
		return ticketNotFound(e)
	}
	if err != nil {
		return apiError("w.LoadTickets()", err)
	}
	return e.JSON(http.StatusOK, view)
}

func (h *CheckoutHandler) Reset(e *core.RequestEvent) error {
	w, err := h.flow(e)
	if err != nil {
		return err
	}
	if err := w.Reset(); err != nil {
		return apiError("w.Reset()", err)
	}
	return e.JSON(http.StatusOK, w.Snapshot())
}

func (h *CheckoutHandler) Close(e *core.RequestEvent) error {
	h.registry.Close(e.Request.PathValue("checkoutId"))
	return e.NoContent(http.StatusNoContent)
}
