package backend

import (
	"context"
	"net/http"

	"ticket-portal/models"
)

// PublicEvents lists events visible to anonymous visitors.
func (c *Client) PublicEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := c.do(ctx, request{op: "events.list", method: http.MethodGet, path: "/events"}, &events)
	if isEmpty(err) {
		return []models.Event{}, nil
	}
	return events, err
}

func (c *Client) Event(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := c.do(ctx, request{op: "events.get", method: http.MethodGet, path: "/events/" + escape(id)}, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// EventTickets lists the ticket categories of an event.
func (c *Client) EventTickets(ctx context.Context, eventID string) ([]models.TicketCategory, error) {
	var cats []models.TicketCategory
	err := c.do(ctx, request{op: "events.tickets", method: http.MethodGet, path: "/events/" + escape(eventID) + "/tickets"}, &cats)
	if isEmpty(err) {
		return []models.TicketCategory{}, nil
	}
	return cats, err
}

func (c *Client) VendorEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := c.do(ctx, request{op: "vendor.events.list", method: http.MethodGet, path: "/vendor/events"}, &events)
	if isEmpty(err) {
		return []models.Event{}, nil
	}
	return events, err
}

func (c *Client) CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error) {
	var event models.Event
	if err := c.do(ctx, request{op: "vendor.events.create", method: http.MethodPost, path: "/vendor/events", body: in}, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, in models.EventInput) (*models.Event, error) {
	var event models.Event
	if err := c.do(ctx, request{op: "vendor.events.update", method: http.MethodPut, path: "/vendor/events/" + escape(id), body: in}, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, request{op: "vendor.events.delete", method: http.MethodDelete, path: "/vendor/events/" + escape(id)}, nil)
}

func (c *Client) PublishEvent(ctx context.Context, id string) (*models.Event, error) {
	return c.eventAction(ctx, id, "publish")
}

func (c *Client) UnpublishEvent(ctx context.Context, id string) (*models.Event, error) {
	return c.eventAction(ctx, id, "unpublish")
}

func (c *Client) CancelEvent(ctx context.Context, id string) (*models.Event, error) {
	return c.eventAction(ctx, id, "cancel")
}

func (c *Client) eventAction(ctx context.Context, id, action string) (*models.Event, error) {
	var event models.Event
	err := c.do(ctx, request{
		op:     "vendor.events." + action,
		method: http.MethodPost,
		path:   "/vendor/events/" + escape(id) + "/" + action,
	}, &event)
	if isEmpty(err) {
		// Some deployments answer status changes without echoing the event.
		return &models.Event{ID: id}, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) EventAnalytics(ctx context.Context, id string) (*models.EventAnalytics, error) {
	var a models.EventAnalytics
	if err := c.do(ctx, request{op: "vendor.events.analytics", method: http.MethodGet, path: "/vendor/events/" + escape(id) + "/analytics"}, &a); err != nil {
		return nil, err
	}
	if a.EventID == "" {
		a.EventID = id
	}
	return &a, nil
}
