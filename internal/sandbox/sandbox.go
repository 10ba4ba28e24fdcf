// Package sandbox is an in-process stand-in for the ticketing backend. It
// keeps inventory, bookings, payment orders, staff and scans in memory and
// speaks the same JSON envelope, so the portal can run and be tested
// without the real service.
package sandbox

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ticket-portal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

type account struct {
	vendor       models.VendorProfile
	passwordHash []byte
}

type staffAccount struct {
	staff        models.Staff
	passwordHash []byte
}

type order struct {
	trackingID  string
	reference   string
	callbackURL string
	status      string
	message     string
	seq         int
}

type Server struct {
	mu         sync.Mutex
	events     map[string]*models.Event
	categories map[string]*models.TicketCategory
	bookings   map[string]*models.Booking
	orders     map[string]*order
	vendors    map[string]*account
	staff      map[string]*staffAccount
	scanned    map[string]time.Time
	scans      []scanRecord

	secret   []byte
	tokenTTL time.Duration
	baseURL  string
	requests atomic.Int64
	router   *httprouter.Router
	now      func() time.Time
}

type scanRecord struct {
	staffID string
	result  models.ScanResult
}

type Option func(*Server)

// WithBaseURL sets the address the simulated provider pages are served at.
func WithBaseURL(u string) Option {
	return func(s *Server) { s.baseURL = strings.TrimRight(u, "/") }
}

func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

func New(opts ...Option) *Server {
	s := &Server{
		events:     make(map[string]*models.Event),
		categories: make(map[string]*models.TicketCategory),
		bookings:   make(map[string]*models.Booking),
		orders:     make(map[string]*order),
		vendors:    make(map[string]*account),
		staff:      make(map[string]*staffAccount),
		scanned:    make(map[string]time.Time),
		secret:     []byte("sandbox-secret"),
		tokenTTL:   12 * time.Hour,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// SetBaseURL points the simulated provider at the address the sandbox
// ended up listening on.
func (s *Server) SetBaseURL(u string) {
	s.mu.Lock()
	s.baseURL = strings.TrimRight(u, "/")
	s.mu.Unlock()
}

func (s *Server) routes() {
	r := httprouter.New()

	r.GET("/events", s.listPublicEvents)
	r.GET("/events/:id", s.getEvent)
	r.GET("/events/:id/tickets", s.listTickets)

	r.GET("/vendor/events", s.vendorOnly(s.listVendorEvents))
	r.POST("/vendor/events", s.vendorOnly(s.createEvent))
	r.PUT("/vendor/events/:id", s.vendorOnly(s.updateEvent))
	r.DELETE("/vendor/events/:id", s.vendorOnly(s.deleteEvent))
	r.POST("/vendor/events/:id/:action", s.vendorOnly(s.eventAction))
	r.GET("/vendor/events/:id/analytics", s.vendorOnly(s.analytics))

	r.POST("/bookings", s.createBooking(false))
	r.POST("/bookings/with-payment", s.createBooking(true))
	r.GET("/bookings/reference/:ref", s.bookingByReference)
	r.POST("/payments/submit-order", s.submitOrder)
	r.GET("/payments/status", s.paymentStatus)
	r.GET("/pay/:tracking", s.providerPage)

	r.GET("/vendor/staff", s.vendorOnly(s.listStaff))
	r.POST("/vendor/staff", s.vendorOnly(s.createStaff))
	r.PUT("/vendor/staff/:id", s.vendorOnly(s.updateStaff))
	r.DELETE("/vendor/staff/:id", s.vendorOnly(s.deleteStaff))
	r.POST("/vendor/staff/:id/events/:eventId", s.vendorOnly(s.assignStaff))
	r.DELETE("/vendor/staff/:id/events/:eventId", s.vendorOnly(s.unassignStaff))

	r.POST("/staff/login", s.staffLogin)
	r.GET("/staff/events", s.staffOnly(s.staffEvents))
	r.POST("/staff/scan", s.staffOnly(s.scan))
	r.GET("/staff/scans", s.staffOnly(s.scanHistory))

	r.POST("/auth/login", s.login)
	r.POST("/auth/register", s.register)
	r.GET("/vendor/profile", s.vendorOnly(s.profile))
	r.PUT("/vendor/profile", s.vendorOnly(s.updateProfile))

	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusNotFound, "Route not found")
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	s.router.ServeHTTP(w, r)
}

// Requests reports how many calls the sandbox has served.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func reply(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func fail(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(envelope{Success: false, Message: msg})
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// Auth.

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(subject, role string) (string, error) {
	now := s.now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

var errBadToken = errors.New("invalid token")

func (s *Server) subject(r *http.Request, roles ...string) (string, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return "", errBadToken
	}
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	for _, role := range roles {
		if c.Role == role {
			return c.Subject, nil
		}
	}
	return "", errBadToken
}

type authedHandle func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, subject string)

func (s *Server) vendorOnly(h authedHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		sub, err := s.subject(r, models.RoleVendor, models.RoleAdmin)
		if err != nil {
			fail(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		h(w, r, ps, sub)
	}
}

func (s *Server) staffOnly(h authedHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		sub, err := s.subject(r, models.RoleStaff)
		if err != nil {
			fail(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		h(w, r, ps, sub)
	}
}
