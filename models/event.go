package models

import (
	"time"
)

const (
	EventDraft     = "DRAFT"
	EventPublished = "PUBLISHED"
	EventCancelled = "CANCELLED"
	EventCompleted = "COMPLETED"
)

type Event struct {
	ID                 string           `json:"id"`
	VendorID           string           `json:"vendorId"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	ShortDescription   string           `json:"shortDescription,omitempty"`
	StartDateTime      time.Time        `json:"startDateTime"`
	EndDateTime        time.Time        `json:"endDateTime"`
	Venue              string           `json:"venue"`
	Address            string           `json:"address,omitempty"`
	Category           string           `json:"category,omitempty"`
	Capacity           int              `json:"capacity"`
	Status             string           `json:"status,omitempty"` // DRAFT, PUBLISHED, CANCELLED, COMPLETED
	IsPublic           *bool            `json:"isPublic,omitempty"`
	MaxTicketsPerEmail *int             `json:"maxTicketsPerEmail,omitempty"`
	TicketCategories   []TicketCategory `json:"ticketCategories,omitempty"`
}

// Published reports whether the event is visible to the public. When the
// backend omits status, legacyFallback lets isPublic stand in for it.
func (e *Event) Published(legacyFallback bool) bool {
	if e.Status != "" {
		return e.Status == EventPublished
	}
	if !legacyFallback || e.IsPublic == nil {
		return false
	}
	return *e.IsPublic
}

// TicketCap returns the per-contact ticket limit and whether one is set.
func (e *Event) TicketCap() (int, bool) {
	if e.MaxTicketsPerEmail == nil || *e.MaxTicketsPerEmail <= 0 {
		return 0, false
	}
	return *e.MaxTicketsPerEmail, true
}

type EventInput struct {
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	ShortDescription   string    `json:"shortDescription,omitempty"`
	StartDateTime      time.Time `json:"startDateTime"`
	EndDateTime        time.Time `json:"endDateTime"`
	Venue              string    `json:"venue"`
	Address            string    `json:"address,omitempty"`
	Category           string    `json:"category,omitempty"`
	Capacity           int       `json:"capacity"`
	MaxTicketsPerEmail *int      `json:"maxTicketsPerEmail,omitempty"`
}

type CategoryStats struct {
	TicketCategoryID string `json:"ticketCategoryId"`
	Name             string `json:"name"`
	Sold             int    `json:"sold"`
	Revenue          Money  `json:"revenue"`
}

type EventAnalytics struct {
	EventID     string          `json:"eventId"`
	TicketsSold int             `json:"ticketsSold"`
	Bookings    int             `json:"bookings"`
	Revenue     Money           `json:"revenue"`
	Categories  []CategoryStats `json:"categories,omitempty"`
}
