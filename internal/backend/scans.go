package backend

import (
	"context"
	"net/http"
	"net/url"

	"ticket-portal/models"
)

// ScanTicket validates a ticket code at the door. A rejected ticket is a
// successful call with Valid set to false.
func (c *Client) ScanTicket(ctx context.Context, req models.ScanRequest) (*models.ScanResult, error) {
	var res models.ScanResult
	if err := c.do(ctx, request{op: "staff.scan", method: http.MethodPost, path: "/staff/scan", body: req}, &res); err != nil {
		return nil, err
	}
	if res.TicketCode == "" {
		res.TicketCode = req.TicketCode
	}
	if res.EventID == "" {
		res.EventID = req.EventID
	}
	return &res, nil
}

// ScanHistory lists scans made by the calling staff member, optionally
// limited to one event.
func (c *Client) ScanHistory(ctx context.Context, eventID string) ([]models.ScanResult, error) {
	q := url.Values{}
	if eventID != "" {
		q.Set("eventId", eventID)
	}
	var scans []models.ScanResult
	err := c.do(ctx, request{op: "staff.scans", method: http.MethodGet, path: "/staff/scans", query: q}, &scans)
	if isEmpty(err) {
		return []models.ScanResult{}, nil
	}
	return scans, err
}
