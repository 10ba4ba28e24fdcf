package query

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"ticket-portal/monitoring"

	"golang.org/x/sync/singleflight"
)

const DefaultStaleTime = 2 * time.Minute

// Cache is a read-through cache of backend query results. It never holds
// anything the backend did not return and is dropped, not patched, on writes.
type Cache struct {
	store     Store
	staleTime time.Duration
	group     singleflight.Group
}

func New(store Store, staleTime time.Duration) *Cache {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	return &Cache{store: store, staleTime: staleTime}
}

// Fetch returns the cached value under key while it is fresh, otherwise
// calls fn and caches its result. Concurrent fetches of one key share a
// single call to fn. Errors are never cached.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	raw, err := c.store.Get(ctx, key)
	if err == nil {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			monitoring.TrackCacheLookup(key.Resource(), true)
			return v, nil
		}
		slog.Warn("query cache entry undecodable", "key", key.String())
	} else if !errors.Is(err, ErrMiss) {
		slog.Error("c.store.Get()", "key", key.String(), "error", err)
	}
	monitoring.TrackCacheLookup(key.Resource(), false)

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(v); err == nil {
			if err := c.store.Set(ctx, key, raw, c.staleTime); err != nil {
				slog.Error("c.store.Set()", "key", key.String(), "error", err)
			}
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops every cached entry under the given prefixes so the next
// fetch goes to the backend.
func (c *Cache) Invalidate(ctx context.Context, prefixes ...Key) error {
	var errs []error
	for _, p := range prefixes {
		if err := c.store.DeletePrefix(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
