package portal

import (
	"context"

	"ticket-portal/internal/query"
	"ticket-portal/models"
)

// PublicEvents lists published events. A missing status falls back to
// isPublic only when the legacy rule is enabled.
func (h *Hooks) PublicEvents(ctx context.Context) ([]models.Event, error) {
	events, err := query.Fetch(ctx, h.cache, publicEventsKey(), h.backend.PublicEvents)
	if err != nil {
		return nil, err
	}
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.Published(h.legacyIsPublic) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (h *Hooks) Event(ctx context.Context, id string) (*models.Event, error) {
	return query.Fetch(ctx, h.cache, eventKey(id), func(ctx context.Context) (*models.Event, error) {
		return h.backend.Event(ctx, id)
	})
}

func (h *Hooks) EventTickets(ctx context.Context, eventID string) ([]models.TicketCategory, error) {
	return query.Fetch(ctx, h.cache, ticketsKey(eventID), func(ctx context.Context) ([]models.TicketCategory, error) {
		return h.backend.EventTickets(ctx, eventID)
	})
}

func (h *Hooks) VendorEvents(ctx context.Context, vendorID string) ([]models.Event, error) {
	return fetchVendor(ctx, h, vendorID, vendorEventsKey(vendorID), h.backend.VendorEvents)
}

func (h *Hooks) EventAnalytics(ctx context.Context, vendorID, eventID string) (*models.EventAnalytics, error) {
	return fetchVendor(ctx, h, vendorID, analyticsKey(vendorID, eventID), func(ctx context.Context) (*models.EventAnalytics, error) {
		return h.backend.EventAnalytics(ctx, eventID)
	})
}

func (h *Hooks) CreateEvent(ctx context.Context, vendorID string, in models.EventInput) (*models.Event, error) {
	return mutateVendor(ctx, h, vendorID, "events.create", eventWriteKeys(vendorID, ""), func(ctx context.Context) (*models.Event, error) {
		return h.backend.CreateEvent(ctx, in)
	})
}

func (h *Hooks) UpdateEvent(ctx context.Context, vendorID, id string, in models.EventInput) (*models.Event, error) {
	return mutateVendor(ctx, h, vendorID, "events.update:"+id, eventWriteKeys(vendorID, id), func(ctx context.Context) (*models.Event, error) {
		return h.backend.UpdateEvent(ctx, id, in)
	})
}

func (h *Hooks) DeleteEvent(ctx context.Context, vendorID, id string) error {
	_, err := mutateVendor(ctx, h, vendorID, "events.delete:"+id, eventWriteKeys(vendorID, id), func(ctx context.Context) (struct{}, error) {
		return none(h.backend.DeleteEvent(ctx, id))
	})
	return err
}

func (h *Hooks) PublishEvent(ctx context.Context, vendorID, id string) (*models.Event, error) {
	return mutateVendor(ctx, h, vendorID, "events.publish:"+id, eventWriteKeys(vendorID, id), func(ctx context.Context) (*models.Event, error) {
		return h.backend.PublishEvent(ctx, id)
	})
}

func (h *Hooks) UnpublishEvent(ctx context.Context, vendorID, id string) (*models.Event, error) {
	return mutateVendor(ctx, h, vendorID, "events.unpublish:"+id, eventWriteKeys(vendorID, id), func(ctx context.Context) (*models.Event, error) {
		return h.backend.UnpublishEvent(ctx, id)
	})
}

func (h *Hooks) CancelEvent(ctx context.Context, vendorID, id string) (*models.Event, error) {
	return mutateVendor(ctx, h, vendorID, "events.cancel:"+id, eventWriteKeys(vendorID, id), func(ctx context.Context) (*models.Event, error) {
		return h.backend.CancelEvent(ctx, id)
	})
}
