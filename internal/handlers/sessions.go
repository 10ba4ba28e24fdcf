package handlers

import (
	"net/http"
	"strings"
	"time"

	"ticket-portal/internal/backend"
	"ticket-portal/internal/services/session"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

const (
	sessionCookie = "portal_sid"
	sessionKey    = "portalSession"
)

// sessionID returns the browser's session id, issuing a cookie when it has
// none yet.
func sessionID(e *core.RequestEvent, secure bool) string {
	if c, err := e.Request.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	sid := session.NewID()
	e.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
	})
	return sid
}

func currentSID(e *core.RequestEvent) string {
	if c, err := e.Request.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// requireSession loads the session of namespace ns and authenticates the
// rest of the request's backend calls with its token.
func requireSession(sessions *session.Manager, ns session.Namespace) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessions.Current(e.Request.Context(), currentSID(e), ns)
		if err != nil {
			return apiError("sessions.Current()", err)
		}
		e.Set(sessionKey, s)
		e.Request = e.Request.WithContext(backend.WithToken(e.Request.Context(), s.Token))
		return e.Next()
	}
}

func mustSession(e *core.RequestEvent) (*session.Session, error) {
	s, _ := e.Get(sessionKey).(*session.Session)
	if s == nil {
		return nil, apis.NewUnauthorizedError("Please log in to continue.", nil)
	}
	return s, nil
}

func secureCookies(publicURL string) bool {
	return strings.HasPrefix(publicURL, "https://")
}
