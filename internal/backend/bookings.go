package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"ticket-portal/internal/status"
	"ticket-portal/models"
)

// CreateBooking books tickets that need no payment step.
func (c *Client) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	return c.createBooking(ctx, "bookings.create", "/bookings", req)
}

// CreateBookingWithPayment books tickets and leaves the booking PENDING
// until the payment order settles.
func (c *Client) CreateBookingWithPayment(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	return c.createBooking(ctx, "bookings.create_with_payment", "/bookings/with-payment", req)
}

func (c *Client) createBooking(ctx context.Context, op, path string, req models.BookingRequest) (*models.Booking, error) {
	var b models.Booking
	err := c.do(ctx, request{op: op, method: http.MethodPost, path: path, body: req}, &b)
	if isEmpty(err) {
		return nil, status.Upstream("The booking could not be created. Please try again.", err)
	}
	if err != nil {
		return nil, err
	}
	if b.Reference == "" {
		return nil, status.Upstream("The booking could not be created. Please try again.", errors.New("booking reply without reference"))
	}
	return &b, nil
}

// SubmitPaymentOrder registers a payment order for a booking and returns
// where the customer must be sent to pay.
func (c *Client) SubmitPaymentOrder(ctx context.Context, order models.PaymentOrder) (*models.PaymentOrderReply, error) {
	var reply models.PaymentOrderReply
	err := c.do(ctx, request{op: "payments.submit_order", method: http.MethodPost, path: "/payments/submit-order", body: order}, &reply)
	if isEmpty(err) {
		return nil, status.Upstream("Payment provider did not respond. Please try again.", err)
	}
	if err != nil {
		return nil, err
	}
	if reply.RedirectURL == "" {
		return nil, status.Upstream("Payment provider did not return a payment page.", errors.New("submit-order reply without redirectUrl"))
	}
	return &reply, nil
}

// PaymentStatus asks the backend for the settled state of a payment order.
// Status is upper-cased; callers treat anything outside
// COMPLETED/PENDING/FAILED as a failure.
func (c *Client) PaymentStatus(ctx context.Context, reference, orderTrackingID string) (*models.PaymentStatusReply, error) {
	q := url.Values{}
	q.Set("reference", reference)
	if orderTrackingID != "" {
		q.Set("orderTrackingId", orderTrackingID)
	}

	var reply models.PaymentStatusReply
	err := c.do(ctx, request{op: "payments.status", method: http.MethodGet, path: "/payments/status", query: q}, &reply)
	if isEmpty(err) {
		return nil, status.Upstream("Payment status is unavailable.", err)
	}
	if err != nil {
		return nil, err
	}
	reply.Status = strings.ToUpper(strings.TrimSpace(reply.Status))
	return &reply, nil
}

// BookingByReference loads a booking by its public reference. A missing or
// empty booking is reported as status.ErrBookingNotFound.
func (c *Client) BookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	var b models.Booking
	err := c.do(ctx, request{op: "bookings.by_reference", method: http.MethodGet, path: "/bookings/reference/" + escape(reference)}, &b)
	if errors.Is(err, status.ErrNotFound) {
		return nil, status.BookingNotFound(reference)
	}
	if err != nil {
		return nil, err
	}
	if b.Reference == "" && b.ID == "" {
		return nil, status.BookingNotFound(reference)
	}
	return &b, nil
}
