package portal

import (
	"context"
	"log/slog"

	"ticket-portal/internal/query"
	"ticket-portal/internal/status"
	"ticket-portal/models"
)

// Backend is the part of the ticketing backend the portal reads and writes.
type Backend interface {
	PublicEvents(ctx context.Context) ([]models.Event, error)
	Event(ctx context.Context, id string) (*models.Event, error)
	EventTickets(ctx context.Context, eventID string) ([]models.TicketCategory, error)
	VendorEvents(ctx context.Context) ([]models.Event, error)
	EventAnalytics(ctx context.Context, id string) (*models.EventAnalytics, error)
	CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error)
	UpdateEvent(ctx context.Context, id string, in models.EventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	PublishEvent(ctx context.Context, id string) (*models.Event, error)
	UnpublishEvent(ctx context.Context, id string) (*models.Event, error)
	CancelEvent(ctx context.Context, id string) (*models.Event, error)

	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
	CreateBookingWithPayment(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
	SubmitPaymentOrder(ctx context.Context, order models.PaymentOrder) (*models.PaymentOrderReply, error)
	PaymentStatus(ctx context.Context, reference, orderTrackingID string) (*models.PaymentStatusReply, error)
	BookingByReference(ctx context.Context, reference string) (*models.Booking, error)

	ListStaff(ctx context.Context) ([]models.Staff, error)
	CreateStaff(ctx context.Context, in models.StaffInput) (*models.Staff, error)
	UpdateStaff(ctx context.Context, id string, in models.StaffInput) (*models.Staff, error)
	DeleteStaff(ctx context.Context, id string) error
	AssignStaff(ctx context.Context, staffID, eventID string) error
	UnassignStaff(ctx context.Context, staffID, eventID string) error
	StaffEvents(ctx context.Context) ([]models.Event, error)
	ScanTicket(ctx context.Context, req models.ScanRequest) (*models.ScanResult, error)
	ScanHistory(ctx context.Context, eventID string) ([]models.ScanResult, error)

	Login(ctx context.Context, creds models.Credentials) (*models.AuthReply, error)
	Register(ctx context.Context, reg models.Registration) (*models.AuthReply, error)
	StaffLogin(ctx context.Context, creds models.Credentials) (*models.AuthReply, error)
	VendorProfile(ctx context.Context) (*models.VendorProfile, error)
	UpdateVendorProfile(ctx context.Context, p models.VendorProfile) (*models.VendorProfile, error)
}

// Hooks puts the query cache in front of the backend. Reads go through the
// cache; writes invalidate what they touch once they succeed.
type Hooks struct {
	backend        Backend
	cache          *query.Cache
	legacyIsPublic bool

	writes *query.Mutation[write, any]
}

type write struct {
	name string
	keys []query.Key
	run  func(context.Context) (any, error)
}

func NewHooks(backend Backend, cache *query.Cache, legacyIsPublic bool) *Hooks {
	h := &Hooks{
		backend:        backend,
		cache:          cache,
		legacyIsPublic: legacyIsPublic,
	}
	h.writes = query.NewMutation(cache,
		func(ctx context.Context, w write) (any, error) { return w.run(ctx) },
		func(w write, _ any) []query.Key { return w.keys },
	)
	h.writes.OnSuccess = func(w write, _ any) {
		slog.Info("portal write succeeded", "op", w.name)
	}
	h.writes.OnError = func(w write, err error) {
		slog.Warn("portal write failed", "op", w.name, "notice", status.Message(err), "error", err)
	}
	return h
}

func mutate[T any](ctx context.Context, h *Hooks, scope, name string, keys []query.Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	out, err := h.writes.Do(ctx, scope+"/"+name, write{
		name: name,
		keys: keys,
		run: func(ctx context.Context) (any, error) {
			v, err := fn(ctx)
			return v, err
		},
	})
	if err != nil {
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

// vendorScope refuses an empty vendor id. Dashboard entries are cached per
// vendor and an empty id would share them between tenants.
func vendorScope(vendorID string) error {
	if vendorID == "" {
		return status.Unauthorized("Please log in to continue.")
	}
	return nil
}

func fetchVendor[T any](ctx context.Context, h *Hooks, vendorID string, key query.Key, fn func(context.Context) (T, error)) (T, error) {
	if err := vendorScope(vendorID); err != nil {
		var zero T
		return zero, err
	}
	return query.Fetch(ctx, h.cache, key, fn)
}

func mutateVendor[T any](ctx context.Context, h *Hooks, vendorID, name string, keys []query.Key, fn func(context.Context) (T, error)) (T, error) {
	if err := vendorScope(vendorID); err != nil {
		var zero T
		return zero, err
	}
	return mutate(ctx, h, vendorID, name, keys, fn)
}

func none(err error) (struct{}, error) {
	return struct{}{}, err
}

// Cache keys.

func publicEventsKey() query.Key { return query.NewKey("events", "public") }
func eventKey(id string) query.Key { return query.NewKey("events", id) }
func ticketsKey(id string) query.Key { return query.NewKey("events", id, "tickets") }
func vendorKey(vendorID string) query.Key { return query.NewKey("vendor", vendorID) }
func vendorEventsKey(vendorID string) query.Key {
	return query.NewKey("vendor", vendorID, "events")
}
func analyticsKey(vendorID, eventID string) query.Key {
	return query.NewKey("vendor", vendorID, "analytics", eventID)
}
func staffKey(vendorID string) query.Key { return query.NewKey("vendor", vendorID, "staff") }
func profileKey(vendorID string) query.Key { return query.NewKey("vendor", vendorID, "profile") }

// bookingKeys are the entries a new booking makes stale: stock on the event
// page and every vendor dashboard figure derived from sales.
func bookingKeys(eventID, vendorID string) []query.Key {
	if eventID == "" {
		return []query.Key{query.NewKey("events"), query.NewKey("vendor")}
	}
	keys := []query.Key{eventKey(eventID), publicEventsKey()}
	if vendorID != "" {
		keys = append(keys, vendorEventsKey(vendorID), analyticsKey(vendorID, eventID))
	} else {
		keys = append(keys, query.NewKey("vendor"))
	}
	return keys
}

// eventWriteKeys are the entries any change to a vendor's event makes stale.
func eventWriteKeys(vendorID, eventID string) []query.Key {
	keys := []query.Key{publicEventsKey(), vendorEventsKey(vendorID)}
	if eventID != "" {
		keys = append(keys, eventKey(eventID), analyticsKey(vendorID, eventID))
	}
	return keys
}
