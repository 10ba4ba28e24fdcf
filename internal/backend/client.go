package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ticket-portal/internal/status"
	"ticket-portal/monitoring"
	"ticket-portal/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type tokenKey struct{}

// WithToken attaches the caller's bearer token to ctx. Calls made with the
// returned context authenticate as that caller.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

type Client struct {
	// baseURL is the root of the ticketing backend API.
	baseURL string

	// hc is the http client.
	hc *http.Client

	// breaker stops hammering a backend that keeps failing.
	breaker *utils.CircuitBreaker

	tracer trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

func WithBreaker(cb *utils.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc: &http.Client{
			Timeout: 15 * time.Second,
		},
		tracer: otel.Tracer("ticket-portal/backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = utils.NewCircuitBreaker("backend",
			utils.WithFailurePredicate(countsAgainstBackend),
			utils.WithStateChange(func(name string, _, to utils.State) {
				slog.Warn("circuit breaker state changed", "name", name, "state", to.String())
				monitoring.SetBreakerState(name, int(to))
			}),
		)
	}
	return c
}

// countsAgainstBackend reports whether err says the backend is unhealthy.
// Deliberate rejections (4xx) do not.
func countsAgainstBackend(err error) bool {
	return errors.Is(err, status.ErrNetwork) || errors.Is(err, status.ErrUpstreamProvider)
}

// envelope is the reply shape of every backend endpoint.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (e *envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
}

// do performs one backend call and decodes the data field into out.
func (c *Client) do(ctx context.Context, r request, out any) error {
	ctx, span := c.tracer.Start(ctx, r.op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", r.method),
			attribute.String("http.path", r.path),
		))
	defer span.End()

	start := time.Now()
	reply, err := utils.Run(ctx, c.breaker, func(ctx context.Context) (*envelope, error) {
		return c.roundTrip(ctx, r)
	})
	if err == nil {
		err = decodeData(reply, out)
	}
	if errors.Is(err, utils.ErrCircuitOpen) || errors.Is(err, utils.ErrTooManyRequests) {
		err = status.Network(err)
	}

	monitoring.TrackBackendRequest(r.op, outcome(err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status.Message(err))
		return fmt.Errorf("%s: %w", r.op, err)
	}
	return nil
}

// roundTrip sends r and returns the reply envelope once the backend has
// accepted the request.
func (c *Client) roundTrip(ctx context.Context, r request) (*envelope, error) {
	var bodyReader io.Reader
	if r.body != nil {
		body, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("json.Marshal: %w", err)
		}
		bodyReader = bytes.NewReader(body)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequest: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, status.Network(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, status.Network(err)
	}

	var reply envelope
	decodeErr := json.Unmarshal(raw, &reply)

	if resp.StatusCode >= 400 {
		return nil, statusError(resp.StatusCode, reply.text())
	}
	if decodeErr != nil {
		return nil, status.Upstream("Unexpected response from server.", fmt.Errorf("json.Unmarshal: %w", decodeErr))
	}
	if reply.Success != nil && !*reply.Success {
		msg := reply.text()
		if msg == "" {
			msg = "Request was rejected."
		}
		return nil, status.Rejected(msg)
	}
	return &reply, nil
}

// decodeData unpacks the envelope's data field into out.
func decodeData(reply *envelope, out any) error {
	if out == nil || len(reply.Data) == 0 || string(reply.Data) == "null" {
		if out != nil {
			return errEmpty
		}
		return nil
	}
	if err := json.Unmarshal(reply.Data, out); err != nil {
		return status.Upstream("Unexpected response from server.", fmt.Errorf("json.Unmarshal data: %w", err))
	}
	return nil
}

// errEmpty marks a successful reply that carried no data.
var errEmpty = status.NotFound("No data returned.")

func isEmpty(err error) bool {
	return err != nil && errors.Is(err, errEmpty)
}

func statusError(code int, msg string) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		if msg == "" {
			msg = "Your session has expired. Please log in again."
		}
		return status.Unauthorized(msg)
	case code == http.StatusNotFound:
		if msg == "" {
			msg = "Not found."
		}
		return status.NotFound(msg)
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return status.Network(fmt.Errorf("backend status %d", code))
	case code >= 500:
		return status.Upstream("The service is temporarily unavailable. Please try again.", fmt.Errorf("backend status %d: %s", code, msg))
	default:
		if msg == "" {
			msg = fmt.Sprintf("Request failed with status %d.", code)
		}
		return status.Rejected(msg)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, status.ErrNetwork):
		return "network"
	case errors.Is(err, status.ErrUpstreamProvider):
		return "upstream"
	case errors.Is(err, status.ErrNotFound):
		return "not_found"
	case errors.Is(err, status.ErrUnauthorized):
		return "unauthorized"
	default:
		return "rejected"
	}
}

func escape(s string) string {
	return url.PathEscape(s)
}
