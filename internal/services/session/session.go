package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ticket-portal/internal/status"
	"ticket-portal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Namespace separates the vendor and staff logins a browser may hold at
// the same time.
type Namespace string

const (
	Vendor Namespace = "vendor"
	Staff  Namespace = "staff"
)

const DefaultTTL = 24 * time.Hour

// ErrNoSession is returned by stores when nothing is saved under a slot.
var ErrNoSession = errors.New("session: not found")

type Session struct {
	Namespace Namespace             `json:"namespace"`
	Token     string                `json:"token"`
	Role      string                `json:"role"`
	Vendor    *models.VendorProfile `json:"vendor,omitempty"`
	Staff     *models.Staff         `json:"staff,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
	ExpiresAt time.Time             `json:"expiresAt"`
}

// SubjectID is the vendor or staff id the session acts for.
func (s *Session) SubjectID() string {
	switch {
	case s.Vendor != nil:
		return s.Vendor.ID
	case s.Staff != nil:
		return s.Staff.ID
	}
	return ""
}

// hasSubject reports whether the profile matching the namespace carries an
// id. Per-vendor cache entries are keyed by it.
func (s *Session) hasSubject() bool {
	switch s.Namespace {
	case Vendor:
		return s.Vendor != nil && s.Vendor.ID != ""
	case Staff:
		return s.Staff != nil && s.Staff.ID != ""
	}
	return s.SubjectID() != ""
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persists serialized sessions per (sid, namespace).
type Store interface {
	Load(ctx context.Context, sid string, ns Namespace) ([]byte, error)
	Save(ctx context.Context, sid string, ns Namespace, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, sid string, ns Namespace) error
}

type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// NewID returns a fresh browser session id.
func NewID() string {
	return uuid.NewString()
}

// Login stores the token and profile snapshot from a successful login. A
// token that has already expired is refused.
func (m *Manager) Login(ctx context.Context, sid string, ns Namespace, reply *models.AuthReply) (*Session, error) {
	if sid == "" || reply == nil || reply.Token == "" {
		return nil, status.Unauthorized("Login failed. Please try again.")
	}

	now := m.now()
	expires := now.Add(m.ttl)
	if exp, ok := tokenExpiry(reply.Token); ok && exp.Before(expires) {
		expires = exp
	}
	if !now.Before(expires) {
		return nil, status.Unauthorized("Your session has expired. Please log in again.")
	}

	s := &Session{
		Namespace: ns,
		Token:     reply.Token,
		Role:      reply.Role,
		Vendor:    reply.Vendor,
		Staff:     reply.Staff,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	if !s.hasSubject() {
		return nil, status.Unauthorized("Login failed. Please try again.")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}
	if err := m.store.Save(ctx, sid, ns, data, expires.Sub(now)); err != nil {
		return nil, fmt.Errorf("store.Save: %w", err)
	}
	return s, nil
}

// Current returns the live session in ns. Missing and expired sessions are
// both reported as status.ErrUnauthorized.
func (m *Manager) Current(ctx context.Context, sid string, ns Namespace) (*Session, error) {
	if sid == "" {
		return nil, status.Unauthorized("Please log in to continue.")
	}
	data, err := m.store.Load(ctx, sid, ns)
	if errors.Is(err, ErrNoSession) {
		return nil, status.Unauthorized("Please log in to continue.")
	}
	if err != nil {
		return nil, fmt.Errorf("store.Load: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Warn("dropping unreadable session", "namespace", ns, "error", err)
		m.store.Delete(ctx, sid, ns)
		return nil, status.Unauthorized("Please log in to continue.")
	}
	if s.Expired(m.now()) {
		m.store.Delete(ctx, sid, ns)
		return nil, status.Unauthorized("Your session has expired. Please log in again.")
	}
	return &s, nil
}

// Update replaces the profile snapshot of a live session.
func (m *Manager) Update(ctx context.Context, sid string, ns Namespace, fn func(*Session)) (*Session, error) {
	s, err := m.Current(ctx, sid, ns)
	if err != nil {
		return nil, err
	}
	fn(s)
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}
	if err := m.store.Save(ctx, sid, ns, data, s.ExpiresAt.Sub(m.now())); err != nil {
		return nil, fmt.Errorf("store.Save: %w", err)
	}
	return s, nil
}

func (m *Manager) Logout(ctx context.Context, sid string, ns Namespace) error {
	if sid == "" {
		return nil
	}
	if err := m.store.Delete(ctx, sid, ns); err != nil {
		return fmt.Errorf("store.Delete: %w", err)
	}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend stays the authority on the token itself.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
