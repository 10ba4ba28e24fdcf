package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticket-portal/internal/backend"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"
)

// registerCommands adds support commands that talk to the backend directly.
func registerCommands(app *pocketbase.PocketBase, client *backend.Client) {
	bookingCmd := &cobra.Command{
		Use:   "booking",
		Short: "Inspect bookings on the ticketing backend",
	}
	bookingCmd.AddCommand(&cobra.Command{
		Use:   "lookup <reference>",
		Short: "Print a booking by its reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			b, err := client.BookingByReference(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, b)
		},
	})

	paymentCmd := &cobra.Command{
		Use:   "payment",
		Short: "Inspect payments on the ticketing backend",
	}
	paymentCmd.AddCommand(&cobra.Command{
		Use:   "check <reference> [orderTrackingId]",
		Short: "Ask the backend for a booking's payment status",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			var tracking string
			if len(args) == 2 {
				tracking = args[1]
			}
			st, err := client.PaymentStatus(ctx, args[0], tracking)
			if err != nil {
				return err
			}
			return printJSON(cmd, st)
		},
	})

	app.RootCmd.AddCommand(bookingCmd, paymentCmd)
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
