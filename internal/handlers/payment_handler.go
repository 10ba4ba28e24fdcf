package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"ticket-portal/internal/services/notify"
	"ticket-portal/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// Settler moves a payment to a final status. Only the sandbox backend
// implements it.
type Settler interface {
	Settle(reference, status, message string) error
}

type PaymentHandler struct {
	bus     notify.Bus
	settler Settler
}

func NewPaymentHandler(bus notify.Bus, settler Settler) *PaymentHandler {
	return &PaymentHandler{bus: bus, settler: settler}
}

// Return - the provider sends the customer here after payment. It only
// relays a notice; the checkout decides what the payment status means.
func (h *PaymentHandler) Return(e *core.RequestEvent) error {
	q := e.Request.URL.Query()
	checkoutID := q.Get("checkout")
	if checkoutID == "" {
		return apis.NewBadRequestError("Missing checkout", nil)
	}

	notice := models.PaymentNotice{
		CheckoutID:        checkoutID,
		Reference:         q.Get("OrderMerchantReference"),
		OrderTrackingID:   q.Get("OrderTrackingId"),
		MerchantReference: q.Get("OrderMerchantReference"),
	}
	if err := h.bus.Publish(e.Request.Context(), notice); err != nil {
		slog.Error("h.bus.Publish()", "checkout", checkoutID, "error", err)
	}

	return e.JSON(http.StatusAccepted, map[string]any{
		"checkoutId": checkoutID,
		"message":    "Verifying your payment.",
		"next":       "/api/v1/checkout/" + checkoutID,
	})
}

// SimulatePayment - settles a sandbox payment (development only)
func (h *PaymentHandler) SimulatePayment(e *core.RequestEvent) error {
	if h.settler == nil {
		return apis.NewNotFoundError("Payment simulation is not available", nil)
	}

	var req struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Message   string `json:"message"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	st := strings.ToUpper(req.Status)
	if st != models.PaymentCompleted && st != models.PaymentFailed && st != models.PaymentPending {
		return apis.NewBadRequestError("Status must be COMPLETED, FAILED or PENDING", nil)
	}

	if err := h.settler.Settle(req.Reference, st, req.Message); err != nil {
		return apis.NewNotFoundError(err.Error(), nil)
	}
	return e.JSON(http.StatusOK, map[string]any{"message": "Payment simulation sent"})
}
