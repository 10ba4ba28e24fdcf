package backend

import (
	"context"
	"net/http"

	"ticket-portal/models"
)

func (c *Client) ListStaff(ctx context.Context) ([]models.Staff, error) {
	var staff []models.Staff
	err := c.do(ctx, request{op: "vendor.staff.list", method: http.MethodGet, path: "/vendor/staff"}, &staff)
	if isEmpty(err) {
		return []models.Staff{}, nil
	}
	return staff, err
}

func (c *Client) CreateStaff(ctx context.Context, in models.StaffInput) (*models.Staff, error) {
	var s models.Staff
	if err := c.do(ctx, request{op: "vendor.staff.create", method: http.MethodPost, path: "/vendor/staff", body: in}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) UpdateStaff(ctx context.Context, id string, in models.StaffInput) (*models.Staff, error) {
	var s models.Staff
	if err := c.do(ctx, request{op: "vendor.staff.update", method: http.MethodPut, path: "/vendor/staff/" + escape(id), body: in}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) DeleteStaff(ctx context.Context, id string) error {
	return c.do(ctx, request{op: "vendor.staff.delete", method: http.MethodDelete, path: "/vendor/staff/" + escape(id)}, nil)
}

// AssignStaff gives a staff member access to an event.
func (c *Client) AssignStaff(ctx context.Context, staffID, eventID string) error {
	return c.do(ctx, request{
		op:     "vendor.staff.assign",
		method: http.MethodPost,
		path:   "/vendor/staff/" + escape(staffID) + "/events/" + escape(eventID),
	}, nil)
}

func (c *Client) UnassignStaff(ctx context.Context, staffID, eventID string) error {
	return c.do(ctx, request{
		op:     "vendor.staff.unassign",
		method: http.MethodDelete,
		path:   "/vendor/staff/" + escape(staffID) + "/events/" + escape(eventID),
	}, nil)
}

// StaffEvents lists the events the calling staff member is assigned to.
func (c *Client) StaffEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := c.do(ctx, request{op: "staff.events", method: http.MethodGet, path: "/staff/events"}, &events)
	if isEmpty(err) {
		return []models.Event{}, nil
	}
	return events, err
}
