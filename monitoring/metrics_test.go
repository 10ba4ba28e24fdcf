package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackBackendRequest(t *testing.T) {
	before := testutil.ToFloat64(backendRequests.WithLabelValues("bookings.create", "ok"))

	TrackBackendRequest("bookings.create", "ok", 120*time.Millisecond)

	after := testutil.ToFloat64(backendRequests.WithLabelValues("bookings.create", "ok"))
	assert.Equal(t, before+1, after)
}

func TestTrackCacheLookup(t *testing.T) {
	TrackCacheLookup("events", true)
	TrackCacheLookup("events", false)
	TrackCacheLookup("events", false)

	assert.GreaterOrEqual(t, testutil.ToFloat64(cacheLookups.WithLabelValues("events", "miss")), 2.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(cacheLookups.WithLabelValues("events", "hit")), 1.0)
}

func TestGauges(t *testing.T) {
	SetActiveCheckouts(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(activeCheckouts))

	SetBreakerState("backend", 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(breakerState.WithLabelValues("backend")))
}

func TestInitTracer_NoEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "ticket-portal", "", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
