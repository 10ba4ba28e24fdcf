package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"ticket-portal/internal/sandbox"
	"ticket-portal/models"

	"github.com/shopspring/decimal"
)

// startSandbox serves the in-process backend on a loopback port and seeds
// it with a demo vendor, staff member and events.
func startSandbox(ctx context.Context) (*sandbox.Server, string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, "", fmt.Errorf("sandbox listen: %w", err)
	}
	url := "http://" + ln.Addr().String()

	sb := sandbox.New(sandbox.WithBaseURL(url))
	if err := seedSandbox(sb); err != nil {
		ln.Close()
		return nil, "", err
	}

	srv := &http.Server{Handler: sb, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("sandbox.Serve()", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	slog.Info("sandbox backend running", "url", url)
	return sb, url, nil
}

func seedSandbox(sb *sandbox.Server) error {
	vendor, err := sb.SeedVendor("Kampala Live", "vendor@example.com", "password123")
	if err != nil {
		return fmt.Errorf("seed vendor: %w", err)
	}

	start := time.Now().AddDate(0, 0, 14).Truncate(time.Hour)
	jazz := sb.SeedEvent(models.Event{
		Title:         "Jazz Night",
		Venue:         "Serena Hotel",
		Category:      "music",
		StartDateTime: start,
		EndDateTime:   start.Add(4 * time.Hour),
		Status:        models.EventPublished,
		VendorID:      vendor.ID,
	},
		models.TicketCategory{Name: "Regular", Price: decimal.NewFromInt(20000), Quantity: 200},
		models.TicketCategory{Name: "VIP", Price: decimal.NewFromInt(50000), Quantity: 10, Sold: 7},
	)
	sb.SeedEvent(models.Event{
		Title:         "Community Clean-up",
		Venue:         "Kololo Airstrip",
		Category:      "community",
		StartDateTime: start.AddDate(0, 0, 7),
		EndDateTime:   start.AddDate(0, 0, 7).Add(3 * time.Hour),
		Status:        models.EventPublished,
		VendorID:      vendor.ID,
	},
		models.TicketCategory{Name: "Free entry", Price: decimal.Zero, Quantity: 500},
	)

	if _, err := sb.SeedStaff(vendor.ID, "Gate Staff", "staff@example.com", "password123", jazz.ID); err != nil {
		return fmt.Errorf("seed staff: %w", err)
	}
	return nil
}
