package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func TestEvent_Published(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		fallback bool
		want     bool
	}{
		{"published status", Event{Status: EventPublished}, true, true},
		{"draft status ignores isPublic", Event{Status: EventDraft, IsPublic: boolPtr(true)}, true, false},
		{"missing status uses isPublic", Event{IsPublic: boolPtr(true)}, true, true},
		{"missing status private", Event{IsPublic: boolPtr(false)}, true, false},
		{"missing status fallback disabled", Event{IsPublic: boolPtr(true)}, false, false},
		{"missing status and isPublic", Event{}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Published(tt.fallback))
		})
	}
}

func TestEvent_TicketCap(t *testing.T) {
	e := Event{}
	_, ok := e.TicketCap()
	assert.False(t, ok)

	e.MaxTicketsPerEmail = intPtr(0)
	_, ok = e.TicketCap()
	assert.False(t, ok)

	e.MaxTicketsPerEmail = intPtr(4)
	n, ok := e.TicketCap()
	assert.True(t, ok)
	assert.Equal(t, 4, n)
}

func TestTicketCategory_Available(t *testing.T) {
	c := TicketCategory{Quantity: 10, Sold: 7, Status: TicketAvailable}
	assert.Equal(t, 3, c.Available())
	assert.True(t, c.Consistent())

	c.Status = TicketSoldOut
	assert.Equal(t, 0, c.Available())

	c = TicketCategory{Quantity: 2, Sold: 5, Status: TicketAvailable}
	assert.Equal(t, 0, c.Available())
	assert.False(t, c.Consistent())
}

func TestTicketCategory_Total(t *testing.T) {
	c := TicketCategory{Name: "VIP", Price: decimal.NewFromInt(50000)}

	total := c.Total(2)

	assert.True(t, total.Equal(decimal.NewFromInt(100000)), total.String())
	assert.Equal(t, "UGX 100,000", FormatMoney(total))
}

func TestFormatMoney(t *testing.T) {
	tests := map[string]string{
		"0":        "UGX 0",
		"999":      "UGX 999",
		"1000":     "UGX 1,000",
		"2500000":  "UGX 2,500,000",
		"-15000":   "UGX -15,000",
		"1234.567": "UGX 1,235",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestTicketCategory_PriceFromJSON(t *testing.T) {
	var c TicketCategory
	err := json.Unmarshal([]byte(`{"id":"c1","name":"VIP","price":"50000","quantity":10,"sold":7,"status":"AVAILABLE"}`), &c)
	require.NoError(t, err)
	assert.True(t, c.Price.Equal(decimal.NewFromInt(50000)))

	err = json.Unmarshal([]byte(`{"id":"c2","price":25000.5}`), &c)
	require.NoError(t, err)
	assert.Equal(t, "25000.5", c.Price.String())
}

func TestBooking_Complete(t *testing.T) {
	b := Booking{
		Quantity:    2,
		Status:      BookingConfirmed,
		TicketCodes: []string{"T-1", "T-2"},
		QRCodes:     []string{"aaa", "bbb"},
	}
	assert.True(t, b.Complete())

	b.QRCodes = b.QRCodes[:1]
	assert.False(t, b.Complete())

	b.QRCodes = []string{"aaa", "bbb"}
	b.Status = BookingPending
	assert.False(t, b.Complete())
}

func TestBooking_QRImage(t *testing.T) {
	b := Booking{QRCodes: []string{"data:image/png;base64,iVBORw0KGgo=", "iVBORw0KGgo="}}

	assert.Equal(t, "iVBORw0KGgo=", b.QRImage(0))
	assert.Equal(t, "iVBORw0KGgo=", b.QRImage(1))
	assert.Equal(t, "", b.QRImage(2))
	assert.Equal(t, "", b.QRImage(-1))
}

func TestStaff_Can(t *testing.T) {
	s := Staff{IsActive: true, Permissions: []string{PermissionScanTickets}, EventIDs: []string{"e1"}}

	assert.True(t, s.Can(PermissionScanTickets))
	assert.True(t, s.AssignedTo("e1"))
	assert.False(t, s.AssignedTo("e2"))

	s.IsActive = false
	assert.False(t, s.Can(PermissionScanTickets))
}
