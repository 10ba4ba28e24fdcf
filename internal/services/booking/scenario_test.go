package booking_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"ticket-portal/internal/backend"
	"ticket-portal/internal/query"
	"ticket-portal/internal/sandbox"
	"ticket-portal/internal/services/booking"
	"ticket-portal/internal/services/portal"
	"ticket-portal/internal/status"
	"ticket-portal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	sandbox *sandbox.Server
	hooks   *portal.Hooks
	event   models.Event
	vip     models.TicketCategory
}

func newStack(t *testing.T) *stack {
	t.Helper()
	sb := sandbox.New()
	srv := httptest.NewServer(sb)
	t.Cleanup(srv.Close)
	sb.SetBaseURL(srv.URL)

	ev := sb.SeedEvent(models.Event{Title: "Jazz Night", Status: models.EventPublished, VendorID: "v1"},
		models.TicketCategory{Name: "VIP", Price: decimal.NewFromInt(50000), Quantity: 10, Sold: 7})

	hooks := portal.NewHooks(backend.NewClient(srv.URL), query.New(query.NewMemoryStore(), time.Minute), true)
	return &stack{sandbox: sb, hooks: hooks, event: ev, vip: ev.TicketCategories[0]}
}

func TestScenario_PaidBookingConfirms(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	tickets, err := s.hooks.EventTickets(ctx, s.event.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, 3, tickets[0].Available())

	w := booking.NewWorkflow("c1", s.hooks)
	require.NoError(t, w.Select(&s.event, &tickets[0], 2))
	assert.True(t, w.Snapshot().Selection.Total.Equal(decimal.NewFromInt(100000)))

	b, err := w.Submit(ctx, models.Customer{Name: "Jane Doe", Email: "jane@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, booking.AwaitingPayment, w.State())

	redirect, err := w.StartPayment(ctx, "http://portal.test/api/v1/payments/return?checkout=c1")
	require.NoError(t, err)
	assert.NotEmpty(t, redirect)

	st, err := w.VerifyPayment(ctx, booking.ProviderReturn{})
	require.NoError(t, err)
	assert.Equal(t, booking.PendingSettlement, st)

	require.NoError(t, s.sandbox.Settle(b.Reference, models.PaymentCompleted, ""))

	st, err = w.VerifyPayment(ctx, booking.ProviderReturn{})
	require.NoError(t, err)
	assert.Equal(t, booking.Confirmed, st)

	view, err := w.LoadTickets(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, view.Booking.Status)
	require.Len(t, view.Tickets, 2)
	for _, tk := range view.Tickets {
		assert.NotEmpty(t, tk.Code)
		assert.NotEmpty(t, tk.QRImage)
	}

	tickets, err = s.hooks.EventTickets(ctx, s.event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tickets[0].Available())
}

func TestScenario_OverQuantityNeverReachesBackend(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	tickets, err := s.hooks.EventTickets(ctx, s.event.ID)
	require.NoError(t, err)
	before := s.sandbox.Requests()

	w := booking.NewWorkflow("c2", s.hooks)
	err = w.Select(&s.event, &tickets[0], 5)

	assert.ErrorIs(t, err, status.ErrValidation)
	assert.Equal(t, "quantity", status.FieldOf(err))
	assert.Equal(t, "Only 3 tickets available.", status.Message(err))
	assert.Equal(t, booking.Selecting, w.State())
	assert.Equal(t, before, s.sandbox.Requests())
}

func TestScenario_UnknownReference(t *testing.T) {
	s := newStack(t)

	b, err := s.hooks.BookingByReference(context.Background(), "XYZ-NOTFOUND")

	assert.Nil(t, b)
	assert.ErrorIs(t, err, status.ErrBookingNotFound)
}

func TestScenario_FailedPaymentAllowsRetry(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	w := booking.NewWorkflow("c3", s.hooks)
	require.NoError(t, w.Select(&s.event, &s.vip, 1))
	b, err := w.Submit(ctx, models.Customer{Name: "Jane Doe", Email: "jane@example.com"})
	require.NoError(t, err)
	_, err = w.StartPayment(ctx, "")
	require.NoError(t, err)

	require.NoError(t, s.sandbox.Settle(b.Reference, models.PaymentFailed, "Card declined"))
	st, err := w.VerifyPayment(ctx, booking.ProviderReturn{})
	assert.Equal(t, booking.Failed, st)
	assert.ErrorIs(t, err, status.ErrPaymentVerificationFailed)
	assert.Equal(t, "Card declined", w.Snapshot().Error)

	again, err := w.Submit(ctx, models.Customer{Name: "Jane Doe", Email: "jane@example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, b.Reference, again.Reference)
}
