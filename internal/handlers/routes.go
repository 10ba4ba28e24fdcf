package handlers

import (
	"log/slog"

	"ticket-portal/internal/services/booking"
	"ticket-portal/internal/services/contact"
	"ticket-portal/internal/services/media"
	"ticket-portal/internal/services/notify"
	"ticket-portal/internal/services/portal"
	"ticket-portal/internal/services/session"
	"ticket-portal/security"

	"github.com/pocketbase/pocketbase/core"
)

// Deps is everything the HTTP surface needs. Contact, Uploader and Settler
// are optional; their routes are skipped when unset.
type Deps struct {
	Hooks        *portal.Hooks
	Registry     *booking.Registry
	Backoff      booking.Backoff
	Sessions     *session.Manager
	Bus          notify.Bus
	Settler      Settler
	Contact      *contact.Service
	Uploader     *media.Uploader
	Limiter      *security.RateLimiter
	HealthChecks map[string]HealthCheck
	PublicURL    string
	Development  bool
}

// Register mounts the portal API on se.Router.
func Register(se *core.ServeEvent, d Deps) {
	events := NewEventHandler(d.Hooks)
	checkout := NewCheckoutHandler(d.Hooks, d.Registry, d.Backoff, d.PublicURL)
	payments := NewPaymentHandler(d.Bus, d.Settler)
	tickets := NewTicketHandler(d.Hooks, d.PublicURL)
	vendor := NewVendorHandler(d.Hooks, d.Sessions, d.PublicURL)
	staff := NewStaffHandler(d.Hooks, d.Sessions, d.PublicURL)
	health := NewHealthHandler(d.HealthChecks)

	limit := func(string) func(*core.RequestEvent) error {
		return func(e *core.RequestEvent) error { return e.Next() }
	}
	if d.Limiter != nil {
		limit = d.Limiter.Limit
	}

	se.Router.GET("/health", health.Health)

	api := se.Router.Group("/api/v1")

	// Events
	api.GET("/events", events.ListEvents)
	api.GET("/events/{eventId}", events.GetEvent)
	api.GET("/events/{eventId}/tickets", events.EventTickets)

	// Checkout
	co := api.Group("/checkout")
	co.BindFunc(limit("checkout"))
	if d.Limiter != nil {
		co.BindFunc(d.Limiter.AntiBot)
	}
	co.POST("", checkout.Start)
	co.GET("/{checkoutId}", checkout.Get)
	co.DELETE("/{checkoutId}", checkout.Close)
	co.POST("/{checkoutId}/select", checkout.Select)
	co.POST("/{checkoutId}/submit", checkout.Submit)
	co.POST("/{checkoutId}/pay", checkout.Pay)
	co.POST("/{checkoutId}/verify", checkout.Verify)
	co.POST("/{checkoutId}/poll", checkout.Poll)
	co.POST("/{checkoutId}/reset", checkout.Reset)
	co.GET("/{checkoutId}/tickets", checkout.Tickets)

	api.GET("/payments/return", payments.Return)

	// Tickets
	api.GET("/tickets/{reference}", tickets.GetTickets)
	api.GET("/tickets/{reference}/pdf", tickets.PDF)
	api.GET("/tickets/{reference}/share.png", tickets.SharePNG)

	// Vendor
	api.POST("/vendor/login", vendor.Login).BindFunc(limit("login"))
	api.POST("/vendor/register", vendor.Register).BindFunc(limit("login"))
	api.POST("/vendor/logout", vendor.Logout)

	vg := api.Group("/vendor")
	vg.BindFunc(requireSession(d.Sessions, session.Vendor))
	vg.GET("/me", vendor.Me)
	vg.GET("/profile", vendor.Profile)
	vg.PUT("/profile", vendor.UpdateProfile)
	vg.GET("/events", vendor.Events)
	vg.POST("/events", vendor.CreateEvent)
	vg.PUT("/events/{eventId}", vendor.UpdateEvent)
	vg.DELETE("/events/{eventId}", vendor.DeleteEvent)
	vg.GET("/events/{eventId}/analytics", vendor.Analytics)
	vg.POST("/events/{eventId}/{action}", vendor.EventAction)
	vg.GET("/staff", vendor.Staff)
	vg.POST("/staff", vendor.CreateStaff)
	vg.PUT("/staff/{staffId}", vendor.UpdateStaff)
	vg.DELETE("/staff/{staffId}", vendor.DeleteStaff)
	vg.POST("/staff/{staffId}/events/{eventId}", vendor.AssignStaff)
	vg.DELETE("/staff/{staffId}/events/{eventId}", vendor.UnassignStaff)
	if d.Uploader != nil && d.Uploader.Configured() {
		vg.POST("/uploads/image", NewUploadHandler(d.Uploader).Image).BindFunc(limit("upload"))
	}

	// Staff
	api.POST("/staff/login", staff.Login).BindFunc(limit("login"))
	api.POST("/staff/logout", staff.Logout)

	sg := api.Group("/staff")
	sg.BindFunc(requireSession(d.Sessions, session.Staff))
	sg.GET("/events", staff.Events)
	sg.POST("/scan", staff.Scan)
	sg.GET("/scans", staff.Scans)

	if d.Contact != nil {
		api.POST("/contact", NewContactHandler(d.Contact).Send).BindFunc(limit("contact"))
	}

	if d.Development {
		api.POST("/test/simulate-payment", payments.SimulatePayment)
	}

	slog.Info("Server routes registered")
}
