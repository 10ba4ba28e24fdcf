package models

import (
	"slices"
	"time"
)

const PermissionScanTickets = "SCAN_TICKETS"

type Staff struct {
	ID          string   `json:"id"`
	VendorID    string   `json:"vendorId"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone,omitempty"`
	Position    string   `json:"position,omitempty"`
	Permissions []string `json:"permissions"`
	IsActive    bool     `json:"isActive"`
	EventIDs    []string `json:"eventIds,omitempty"`
}

func (s *Staff) Can(permission string) bool {
	return s.IsActive && slices.Contains(s.Permissions, permission)
}

func (s *Staff) AssignedTo(eventID string) bool {
	return slices.Contains(s.EventIDs, eventID)
}

type StaffInput struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone,omitempty"`
	Position    string   `json:"position,omitempty"`
	Password    string   `json:"password,omitempty"`
	Permissions []string `json:"permissions"`
	IsActive    *bool    `json:"isActive,omitempty"`
}

type ScanRequest struct {
	TicketCode string `json:"ticketCode"`
	EventID    string `json:"eventId"`
}

type ScanResult struct {
	TicketCode       string    `json:"ticketCode"`
	EventID          string    `json:"eventId"`
	Valid            bool      `json:"valid"`
	Message          string    `json:"message"`
	BookingReference string    `json:"bookingReference,omitempty"`
	ScannedAt        time.Time `json:"scannedAt"`
}
