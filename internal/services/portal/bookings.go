package portal

import (
	"context"

	"ticket-portal/models"
)

// CreateBooking places a booking for the checkout identified by scope. On
// success the event's stock and the owning vendor's dashboards are dropped
// from the cache.
func (h *Hooks) CreateBooking(ctx context.Context, scope string, event *models.Event, req models.BookingRequest, withPayment bool) (*models.Booking, error) {
	var eventID, vendorID string
	if event != nil {
		eventID, vendorID = event.ID, event.VendorID
	}
	return mutate(ctx, h, scope, "bookings.create", bookingKeys(eventID, vendorID), func(ctx context.Context) (*models.Booking, error) {
		if withPayment {
			return h.backend.CreateBookingWithPayment(ctx, req)
		}
		return h.backend.CreateBooking(ctx, req)
	})
}

func (h *Hooks) SubmitPayment(ctx context.Context, order models.PaymentOrder) (*models.PaymentOrderReply, error) {
	return h.backend.SubmitPaymentOrder(ctx, order)
}

// PaymentStatus is never cached: every check goes to the backend.
func (h *Hooks) PaymentStatus(ctx context.Context, reference, orderTrackingID string) (*models.PaymentStatusReply, error) {
	return h.backend.PaymentStatus(ctx, reference, orderTrackingID)
}

func (h *Hooks) BookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	return h.backend.BookingByReference(ctx, reference)
}
