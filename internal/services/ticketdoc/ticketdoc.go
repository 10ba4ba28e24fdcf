// Package ticketdoc renders confirmed bookings as downloadable documents.
package ticketdoc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"ticket-portal/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

var ErrNoTickets = errors.New("booking has no tickets yet")

// Link is the public page of a booking's tickets.
func Link(publicURL, reference string) string {
	return strings.TrimRight(publicURL, "/") + "/tickets/" + url.PathEscape(reference)
}

// SharePNG encodes the ticket link as a QR image for sharing.
func SharePNG(link string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qrcode.Encode: %w", err)
	}
	return png, nil
}

// PDF renders one A4 page per ticket.
func PDF(b *models.Booking, event *models.Event) ([]byte, error) {
	pdf, err := render(b, event)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf.Output: %w", err)
	}
	return buf.Bytes(), nil
}

func render(b *models.Booking, event *models.Event) (*gofpdf.Fpdf, error) {
	if b == nil || len(b.TicketCodes) == 0 {
		return nil, ErrNoTickets
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Tickets "+b.Reference, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, code := range b.TicketCodes {
		png, err := qrPNG(b, i, code)
		if err != nil {
			return nil, err
		}

		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 20)
		title := "Event Ticket"
		if event != nil && event.Title != "" {
			title = event.Title
		}
		pdf.CellFormat(0, 12, tr(title), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 12)
		if event != nil {
			if event.Venue != "" {
				pdf.CellFormat(0, 8, tr(event.Venue), "", 1, "L", false, 0, "")
			}
			if !event.StartDateTime.IsZero() {
				pdf.CellFormat(0, 8, event.StartDateTime.Format("Mon 2 Jan 2006, 15:04"), "", 1, "L", false, 0, "")
			}
		}
		pdf.Ln(4)
		pdf.CellFormat(0, 8, tr("Name: "+b.CustomerName), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 8, "Booking: "+b.Reference, "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 8, fmt.Sprintf("Ticket %d of %d", i+1, len(b.TicketCodes)), "", 1, "L", false, 0, "")
		pdf.SetFont("Courier", "B", 14)
		pdf.CellFormat(0, 10, code, "", 1, "L", false, 0, "")

		name := fmt.Sprintf("qr-%d", i)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		pdf.ImageOptions(name, 60, 110, 90, 90, false, opts, 0, "")

		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("ticket %s: %w", code, err)
		}
	}
	return pdf, nil
}

// qrPNG returns the backend-issued QR for ticket i, or encodes the ticket
// code when the backend image is missing or unreadable.
func qrPNG(b *models.Booking, i int, code string) ([]byte, error) {
	if img := b.QRImage(i); img != "" {
		if png, err := base64.StdEncoding.DecodeString(img); err == nil && bytes.HasPrefix(png, []byte("\x89PNG")) {
			return png, nil
		}
	}
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qrcode.Encode: %w", err)
	}
	return png, nil
}
