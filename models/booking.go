package models

import (
	"strings"
	"time"
)

const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

const (
	DeliveryEmail = "EMAIL"
	DeliverySMS   = "SMS"
	DeliveryBoth  = "BOTH"
)

type Customer struct {
	Name           string `json:"customerName"`
	Email          string `json:"customerEmail"`
	Phone          string `json:"customerPhone,omitempty"`
	DeliveryMethod string `json:"deliveryMethod"` // EMAIL, SMS, BOTH
}

type BookingRequest struct {
	Customer
	TicketCategoryID string `json:"ticketCategoryId"`
	Quantity         int    `json:"quantity"`
}

type Booking struct {
	ID               string    `json:"id"`
	Reference        string    `json:"reference"`
	EventID          string    `json:"eventId,omitempty"`
	TicketCategoryID string    `json:"ticketCategoryId"`
	Quantity         int       `json:"quantity"`
	CustomerName     string    `json:"customerName"`
	CustomerEmail    string    `json:"customerEmail"`
	CustomerPhone    string    `json:"customerPhone,omitempty"`
	DeliveryMethod   string    `json:"deliveryMethod"`
	TotalPrice       Money     `json:"totalPrice"`
	Status           string    `json:"status"` // PENDING, CONFIRMED, CANCELLED
	TicketCodes      []string  `json:"ticketCodes,omitempty"`
	QRCodes          []string  `json:"qrCodes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Complete reports whether a confirmed booking carries one code and one QR
// image per ticket.
func (b *Booking) Complete() bool {
	return b.Status == BookingConfirmed &&
		len(b.TicketCodes) == b.Quantity &&
		len(b.QRCodes) == len(b.TicketCodes)
}

// QRImage returns the base64 PNG payload of the i-th QR code with any data
// URI prefix removed.
func (b *Booking) QRImage(i int) string {
	if i < 0 || i >= len(b.QRCodes) {
		return ""
	}
	code := b.QRCodes[i]
	if idx := strings.Index(code, ";base64,"); idx >= 0 && strings.HasPrefix(code, "data:") {
		return code[idx+len(";base64,"):]
	}
	return code
}
