package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"ticket-portal/internal/status"
	"ticket-portal/models"
	"ticket-portal/monitoring"
)

// Backend is what a checkout needs from the ticketing backend. The portal
// hooks implement it.
type Backend interface {
	CreateBooking(ctx context.Context, scope string, event *models.Event, req models.BookingRequest, withPayment bool) (*models.Booking, error)
	SubmitPayment(ctx context.Context, order models.PaymentOrder) (*models.PaymentOrderReply, error)
	PaymentStatus(ctx context.Context, reference, orderTrackingID string) (*models.PaymentStatusReply, error)
	BookingByReference(ctx context.Context, reference string) (*models.Booking, error)
}

type Selection struct {
	Event    models.Event          `json:"event"`
	Category models.TicketCategory `json:"category"`
	Quantity int                   `json:"quantity"`
	Total    models.Money          `json:"totalPrice"`
}

type Notice struct {
	Level   string    `json:"level"` // success, error, info
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ProviderReturn carries what the payment provider hands back when the
// customer returns from its page.
type ProviderReturn struct {
	OrderTrackingID   string
	MerchantReference string
}

// Workflow drives one checkout from ticket selection to a confirmed
// booking. Its methods are safe for concurrent use; backend calls run
// without holding the lock so the state stays observable meanwhile.
type Workflow struct {
	ID string

	backend Backend
	now     func() time.Time

	mu        sync.Mutex
	state     State
	busy      bool
	selection *Selection
	customer  models.Customer
	booking   *models.Booking
	payment   *models.PaymentAttempt
	lastErr   error
	notices   []Notice
	next      string
	touched   time.Time
}

func NewWorkflow(id string, backend Backend) *Workflow {
	return &Workflow{
		ID:      id,
		backend: backend,
		now:     time.Now,
		state:   Selecting,
		touched: time.Now(),
	}
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// setState must be called with w.mu held.
func (w *Workflow) setState(to State) {
	if w.state == to {
		return
	}
	monitoring.TrackTransition(w.state.String(), to.String())
	slog.Debug("checkout transition", "checkout", w.ID, "from", w.state.String(), "to", to.String())
	w.state = to
}

// notify must be called with w.mu held.
func (w *Workflow) notify(level, msg string) {
	w.notices = append(w.notices, Notice{Level: level, Message: msg, At: w.now()})
	if level == "error" {
		slog.Warn("checkout notice", "checkout", w.ID, "message", msg)
	} else {
		slog.Info("checkout notice", "checkout", w.ID, "message", msg)
	}
}

// fail must be called with w.mu held.
func (w *Workflow) fail(err error) error {
	w.lastErr = err
	w.setState(Failed)
	w.notify("error", status.Message(err))
	return err
}

func (w *Workflow) touch() {
	w.touched = w.now()
}

// Select records the ticket choice. Invalid quantities are refused before
// anything reaches the backend and leave the checkout editable.
func (w *Workflow) Select(event *models.Event, category *models.TicketCategory, quantity int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	if w.state != Selecting && w.state != Failed {
		return fmt.Errorf("select in %s: %w", w.state, status.ErrInvalidTransition)
	}
	if event == nil || category == nil {
		return status.Validation("ticketCategoryId", "Select a ticket category.")
	}
	if err := validateQuantity(event, category, quantity); err != nil {
		w.lastErr = err
		return err
	}

	w.selection = &Selection{
		Event:    *event,
		Category: *category,
		Quantity: quantity,
		Total:    category.Total(quantity),
	}
	w.booking, w.payment, w.next, w.lastErr = nil, nil, "", nil
	w.setState(Selecting)
	return nil
}

// Submit creates the booking. Whether it is paid follows from the selection
// total: paid selections end in AwaitingPayment unless the backend reports
// the booking CONFIRMED, free ones in Confirmed. Every successful call
// yields a new booking reference.
func (w *Workflow) Submit(ctx context.Context, customer models.Customer) (*models.Booking, error) {
	w.mu.Lock()
	w.touch()
	if w.state == Submitting || w.busy {
		w.mu.Unlock()
		return nil, status.ErrInFlight
	}
	if w.state != Selecting && w.state != Failed {
		w.mu.Unlock()
		return nil, fmt.Errorf("submit in %s: %w", w.state, status.ErrInvalidTransition)
	}
	if w.selection == nil {
		w.mu.Unlock()
		return nil, status.Validation("ticketCategoryId", "Select your tickets first.")
	}
	customer, err := normalizeCustomer(customer)
	if err != nil {
		w.lastErr = err
		w.mu.Unlock()
		return nil, err
	}
	withPayment := !w.selection.Total.IsZero()

	sel := *w.selection
	w.customer = customer
	w.booking, w.payment, w.next, w.lastErr = nil, nil, "", nil
	w.setState(Submitting)
	w.mu.Unlock()

	booking, err := w.backend.CreateBooking(ctx, w.ID, &sel.Event, models.BookingRequest{
		Customer:         customer,
		TicketCategoryID: sel.Category.ID,
		Quantity:         sel.Quantity,
	}, withPayment)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	if err != nil {
		return nil, w.fail(err)
	}

	w.booking = booking
	switch {
	case booking.Status == models.BookingConfirmed || !withPayment:
		w.confirm()
	default:
		w.setState(AwaitingPayment)
		w.notify("info", fmt.Sprintf("Booking %s created. Continue to payment.", booking.Reference))
	}
	return booking, nil
}

// confirm must be called with w.mu held.
func (w *Workflow) confirm() {
	if w.payment != nil {
		w.payment.Status = models.PaymentCompleted
	}
	if w.booking != nil {
		w.next = "/tickets/" + w.booking.Reference
	}
	w.lastErr = nil
	w.setState(Confirmed)
	w.notify("success", "Your booking is confirmed.")
}

// StartPayment submits the payment order and returns the provider page the
// customer must visit.
func (w *Workflow) StartPayment(ctx context.Context, callbackURL string) (string, error) {
	w.mu.Lock()
	w.touch()
	if w.busy || w.state == Submitting {
		w.mu.Unlock()
		return "", status.ErrInFlight
	}
	if w.booking == nil || (w.state != AwaitingPayment && w.state != Failed) {
		w.mu.Unlock()
		return "", fmt.Errorf("start payment in %s: %w", w.state, status.ErrInvalidTransition)
	}
	reference := w.booking.Reference
	w.busy = true
	w.mu.Unlock()

	reply, err := w.backend.SubmitPayment(ctx, models.PaymentOrder{Reference: reference, CallbackURL: callbackURL})

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false
	w.touch()
	if err != nil {
		if errors.Is(err, status.ErrNetwork) {
			err = status.Upstream("The payment provider could not be reached. Please try again.", err)
		}
		return "", w.fail(err)
	}

	w.payment = &models.PaymentAttempt{
		Reference:       reference,
		OrderTrackingID: reply.OrderTrackingID,
		RedirectURL:     reply.RedirectURL,
		Status:          models.PaymentPending,
	}
	w.lastErr = nil
	w.setState(AwaitingPayment)
	return reply.RedirectURL, nil
}

// VerifyPayment asks the backend whether the payment settled. COMPLETED
// always confirms; once confirmed, further calls return Confirmed without
// touching the backend.
func (w *Workflow) VerifyPayment(ctx context.Context, ret ProviderReturn) (State, error) {
	w.mu.Lock()
	w.touch()
	if w.state == Confirmed {
		w.mu.Unlock()
		return Confirmed, nil
	}
	if w.busy || w.state == Submitting {
		st := w.state
		w.mu.Unlock()
		return st, status.ErrInFlight
	}
	if w.booking == nil || !slices.Contains([]State{AwaitingPayment, PendingSettlement, Failed}, w.state) {
		st := w.state
		w.mu.Unlock()
		return st, fmt.Errorf("verify payment in %s: %w", st, status.ErrInvalidTransition)
	}

	reference := w.booking.Reference
	tracking := ret.OrderTrackingID
	if w.payment != nil {
		if tracking == "" {
			tracking = w.payment.OrderTrackingID
		} else {
			w.payment.OrderTrackingID = tracking
		}
	}
	prev := w.state
	w.busy = true
	w.setState(VerifyingPayment)
	w.mu.Unlock()

	reply, err := w.backend.PaymentStatus(ctx, reference, tracking)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false
	w.touch()

	if err != nil && ctx.Err() != nil {
		// The caller gave up; the payment itself is no better known.
		w.setState(prev)
		return prev, fmt.Errorf("verify payment: %w", ctx.Err())
	}
	if err != nil {
		monitoring.TrackPaymentVerification("error")
		return Failed, w.fail(status.VerificationFailed("We could not verify your payment. Please check again.", err))
	}

	monitoring.TrackPaymentVerification(reply.Status)
	if w.payment != nil {
		w.payment.Message = reply.Message
	}

	switch reply.Status {
	case models.PaymentCompleted:
		w.confirm()
		return Confirmed, nil
	case models.PaymentPending:
		if w.payment != nil {
			w.payment.Status = models.PaymentPending
		}
		w.lastErr = nil
		w.setState(PendingSettlement)
		w.notify("info", "Your payment is still being processed.")
		return PendingSettlement, nil
	case models.PaymentFailed:
		if w.payment != nil {
			w.payment.Status = models.PaymentFailed
		}
		msg := reply.Message
		if msg == "" {
			msg = "Your payment was not completed."
		}
		return Failed, w.fail(status.VerificationFailed(msg, nil))
	default:
		return Failed, w.fail(status.VerificationFailed("We could not verify your payment. Please check again.",
			fmt.Errorf("unrecognized payment status %q", reply.Status)))
	}
}

// HandleNotice reacts to a payment notice relayed from the provider return.
// Notices for a booking other than the current one are ignored.
func (w *Workflow) HandleNotice(ctx context.Context, n models.PaymentNotice) (State, error) {
	w.mu.Lock()
	matches := w.booking != nil && (n.Reference == "" || n.Reference == w.booking.Reference)
	st := w.state
	w.mu.Unlock()
	if !matches {
		slog.Info("ignoring payment notice for another booking", "checkout", w.ID, "reference", n.Reference)
		return st, nil
	}
	return w.VerifyPayment(ctx, ProviderReturn{OrderTrackingID: n.OrderTrackingID, MerchantReference: n.MerchantReference})
}

// LoadTickets fetches the finalized booking for a confirmed checkout.
func (w *Workflow) LoadTickets(ctx context.Context) (*TicketView, error) {
	w.mu.Lock()
	if w.state != Confirmed || w.booking == nil {
		st := w.state
		w.mu.Unlock()
		return nil, fmt.Errorf("load tickets in %s: %w", st, status.ErrInvalidTransition)
	}
	reference := w.booking.Reference
	w.mu.Unlock()

	b, err := w.backend.BookingByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !b.Complete() {
		slog.Warn("confirmed booking without a full ticket set", "reference", reference,
			"quantity", b.Quantity, "codes", len(b.TicketCodes), "qr", len(b.QRCodes), "status", b.Status)
	}

	w.mu.Lock()
	w.booking = b
	w.touch()
	w.mu.Unlock()
	return NewTicketView(b), nil
}

// Reset abandons the current booking attempt and returns to Selecting.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy || w.state == Submitting {
		return status.ErrInFlight
	}
	w.booking, w.payment, w.next, w.lastErr = nil, nil, "", nil
	w.setState(Selecting)
	return nil
}

// Snapshot is the immutable view a renderer works from.
type Snapshot struct {
	ID         string                 `json:"id"`
	State      State                  `json:"state"`
	Busy       bool                   `json:"busy"`
	Selection  *Selection             `json:"selection,omitempty"`
	Booking    *models.Booking        `json:"booking,omitempty"`
	Payment    *models.PaymentAttempt `json:"payment,omitempty"`
	Error      string                 `json:"error,omitempty"`
	ErrorField string                 `json:"errorField,omitempty"`
	Notices    []Notice               `json:"notices,omitempty"`
	Next       string                 `json:"next,omitempty"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Snapshot{
		ID:        w.ID,
		State:     w.state,
		Busy:      w.busy || w.state == Submitting,
		Notices:   slices.Clone(w.notices),
		Next:      w.next,
		UpdatedAt: w.touched,
	}
	if w.selection != nil {
		sel := *w.selection
		s.Selection = &sel
	}
	if w.booking != nil {
		b := *w.booking
		b.TicketCodes = slices.Clone(b.TicketCodes)
		b.QRCodes = slices.Clone(b.QRCodes)
		s.Booking = &b
	}
	if w.payment != nil {
		p := *w.payment
		s.Payment = &p
	}
	if w.lastErr != nil {
		s.Error = status.Message(w.lastErr)
		s.ErrorField = status.FieldOf(w.lastErr)
	}
	return s
}

// Err returns the error that put the checkout in its current state.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *Workflow) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.touched
}

func (w *Workflow) inFlight() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy || w.state == Submitting || w.state == VerifyingPayment
}
