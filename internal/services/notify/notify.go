// Package notify relays payment notices from the provider return to the
// checkout that owns the booking.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"ticket-portal/models"
)

// Bus publishes notices and delivers them to per-checkout subscribers.
type Bus interface {
	Publish(ctx context.Context, n models.PaymentNotice) error
	Subscribe(ctx context.Context, checkoutID string, fn func(models.PaymentNotice)) (func(), error)
}

func Channel(checkoutID string) string {
	return "checkout-" + checkoutID
}

// MemoryBus delivers notices inside the process. Handlers run on their own
// goroutine so publishers never wait for verification.
type MemoryBus struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func(models.PaymentNotice)
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[int]func(models.PaymentNotice))}
}

func (b *MemoryBus) Publish(_ context.Context, n models.PaymentNotice) error {
	if n.CheckoutID == "" {
		return fmt.Errorf("publish notice for %s: missing checkout id", n.Reference)
	}

	b.mu.Lock()
	var handlers []func(models.PaymentNotice)
	for _, fn := range b.subs[Channel(n.CheckoutID)] {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	if len(handlers) == 0 {
		slog.Info("payment notice without subscriber", "checkout", n.CheckoutID, "reference", n.Reference)
	}
	for _, fn := range handlers {
		go fn(n)
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, checkoutID string, fn func(models.PaymentNotice)) (func(), error) {
	ch := Channel(checkoutID)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	if b.subs[ch] == nil {
		b.subs[ch] = make(map[int]func(models.PaymentNotice))
	}
	b.subs[ch][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[ch], id)
			if len(b.subs[ch]) == 0 {
				delete(b.subs, ch)
			}
		})
	}, nil
}

// decodeNotice accepts a notice as published by this package: either a JSON
// string or the object PubNub already decoded.
func decodeNotice(payload any) (models.PaymentNotice, error) {
	var n models.PaymentNotice
	var raw []byte
	switch p := payload.(type) {
	case string:
		raw = []byte(p)
	case []byte:
		raw = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return n, fmt.Errorf("json.Marshal: %w", err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, &n); err != nil {
		return n, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return n, nil
}
