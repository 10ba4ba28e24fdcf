package portal

import (
	"context"
	"errors"

	"ticket-portal/internal/query"
	"ticket-portal/internal/status"
	"ticket-portal/models"
)

func (h *Hooks) StaffList(ctx context.Context, vendorID string) ([]models.Staff, error) {
	return fetchVendor(ctx, h, vendorID, staffKey(vendorID), h.backend.ListStaff)
}

func (h *Hooks) CreateStaff(ctx context.Context, vendorID string, in models.StaffInput) (*models.Staff, error) {
	return mutateVendor(ctx, h, vendorID, "staff.create", []query.Key{staffKey(vendorID)}, func(ctx context.Context) (*models.Staff, error) {
		return h.backend.CreateStaff(ctx, in)
	})
}

func (h *Hooks) UpdateStaff(ctx context.Context, vendorID, id string, in models.StaffInput) (*models.Staff, error) {
	return mutateVendor(ctx, h, vendorID, "staff.update:"+id, []query.Key{staffKey(vendorID)}, func(ctx context.Context) (*models.Staff, error) {
		return h.backend.UpdateStaff(ctx, id, in)
	})
}

func (h *Hooks) DeleteStaff(ctx context.Context, vendorID, id string) error {
	_, err := mutateVendor(ctx, h, vendorID, "staff.delete:"+id, []query.Key{staffKey(vendorID)}, func(ctx context.Context) (struct{}, error) {
		return none(h.backend.DeleteStaff(ctx, id))
	})
	return err
}

func (h *Hooks) AssignStaff(ctx context.Context, vendorID, staffID, eventID string) error {
	_, err := mutateVendor(ctx, h, vendorID, "staff.assign:"+staffID, []query.Key{staffKey(vendorID)}, func(ctx context.Context) (struct{}, error) {
		return none(h.backend.AssignStaff(ctx, staffID, eventID))
	})
	return err
}

func (h *Hooks) UnassignStaff(ctx context.Context, vendorID, staffID, eventID string) error {
	_, err := mutateVendor(ctx, h, vendorID, "staff.unassign:"+staffID, []query.Key{staffKey(vendorID)}, func(ctx context.Context) (struct{}, error) {
		return none(h.backend.UnassignStaff(ctx, staffID, eventID))
	})
	return err
}

// StaffEvents is read per staff member and not shared through the cache.
func (h *Hooks) StaffEvents(ctx context.Context) ([]models.Event, error) {
	return h.backend.StaffEvents(ctx)
}

// ScanTicket checks the scanning permission and event assignment locally
// before asking the backend, which still has the final say.
func (h *Hooks) ScanTicket(ctx context.Context, staff *models.Staff, req models.ScanRequest) (*models.ScanResult, error) {
	if req.TicketCode == "" {
		return nil, status.Validation("ticketCode", "Ticket code is required.")
	}
	if req.EventID == "" {
		return nil, status.Validation("eventId", "Select an event to scan for.")
	}
	if staff != nil {
		if !staff.Can(models.PermissionScanTickets) {
			return nil, status.Unauthorized("You do not have permission to scan tickets.")
		}
		if len(staff.EventIDs) > 0 && !staff.AssignedTo(req.EventID) {
			return nil, status.Unauthorized("You are not assigned to this event.")
		}
	}
	res, err := h.backend.ScanTicket(ctx, req)
	if errors.Is(err, status.ErrNotFound) {
		return &models.ScanResult{TicketCode: req.TicketCode, EventID: req.EventID, Valid: false, Message: "Ticket not found."}, nil
	}
	return res, err
}

func (h *Hooks) ScanHistory(ctx context.Context, eventID string) ([]models.ScanResult, error) {
	return h.backend.ScanHistory(ctx, eventID)
}
