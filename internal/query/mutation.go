package query

import (
	"context"
	"log/slog"
	"sync"

	"ticket-portal/internal/status"
)

// Mutation runs a backend write. While one run for a scope is in flight a
// second trigger for the same scope is refused with status.ErrInFlight.
// Dependent keys are invalidated once, and only after the write succeeds.
type Mutation[In, Out any] struct {
	cache       *Cache
	run         func(context.Context, In) (Out, error)
	invalidates func(In, Out) []Key

	OnSuccess func(In, Out)
	OnError   func(In, error)

	inflight sync.Map
}

func NewMutation[In, Out any](cache *Cache, run func(context.Context, In) (Out, error), invalidates func(In, Out) []Key) *Mutation[In, Out] {
	return &Mutation[In, Out]{cache: cache, run: run, invalidates: invalidates}
}

// Do runs the write for scope, typically the caller's session plus the
// resource it is changing.
func (m *Mutation[In, Out]) Do(ctx context.Context, scope string, in In) (Out, error) {
	var zero Out

	if _, busy := m.inflight.LoadOrStore(scope, struct{}{}); busy {
		return zero, status.ErrInFlight
	}
	defer m.inflight.Delete(scope)

	out, err := m.run(ctx, in)
	if err != nil {
		if m.OnError != nil {
			m.OnError(in, err)
		}
		return zero, err
	}

	if m.invalidates != nil && m.cache != nil {
		if err := m.cache.Invalidate(ctx, m.invalidates(in, out)...); err != nil {
			slog.Error("m.cache.Invalidate()", "scope", scope, "error", err)
		}
	}
	if m.OnSuccess != nil {
		m.OnSuccess(in, out)
	}
	return out, nil
}

// Pending reports whether a run for scope is in flight.
func (m *Mutation[In, Out]) Pending(scope string) bool {
	_, ok := m.inflight.Load(scope)
	return ok
}
