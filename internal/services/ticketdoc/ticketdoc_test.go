package ticketdoc

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"testing"
	"time"

	"ticket-portal/models"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmed(t *testing.T) *models.Booking {
	t.Helper()
	qr, err := qrcode.Encode("TK-AAA", qrcode.Medium, 128)
	require.NoError(t, err)
	return &models.Booking{
		Reference:    "BK-123",
		Quantity:     2,
		Status:       models.BookingConfirmed,
		CustomerName: "Jane Doe",
		TicketCodes:  []string{"TK-AAA", "TK-BBB"},
		QRCodes:      []string{"data:image/png;base64," + base64.StdEncoding.EncodeToString(qr), "garbage"},
	}
}

func TestPDF_OnePagePerTicket(t *testing.T) {
	event := &models.Event{Title: "Jazz Night", Venue: "Kampala Serena", StartDateTime: time.Date(2026, 7, 4, 19, 0, 0, 0, time.UTC)}

	pdf, err := render(confirmed(t), event)
	require.NoError(t, err)
	assert.Equal(t, 2, pdf.PageCount())

	out, err := PDF(confirmed(t), event)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPDF_NoTickets(t *testing.T) {
	_, err := PDF(&models.Booking{Reference: "BK-1", Status: models.BookingPending}, nil)
	assert.ErrorIs(t, err, ErrNoTickets)
}

func TestSharePNG(t *testing.T) {
	link := Link("https://tickets.example.com/", "BK 1")
	assert.Equal(t, "https://tickets.example.com/tickets/BK%201", link)

	out, err := SharePNG(link, 0)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}
