package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"ticket-portal/internal/status"
	"ticket-portal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memNotices struct {
	mu   sync.Mutex
	subs map[string]func(models.PaymentNotice)
}

func (m *memNotices) Subscribe(_ context.Context, id string, fn func(models.PaymentNotice)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subs == nil {
		m.subs = map[string]func(models.PaymentNotice){}
	}
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}, nil
}

func (m *memNotices) publish(n models.PaymentNotice) bool {
	m.mu.Lock()
	fn, ok := m.subs[n.CheckoutID]
	m.mu.Unlock()
	if ok {
		fn(n)
	}
	return ok
}

func TestRegistry_OpenGetClose(t *testing.T) {
	notices := &memNotices{}
	r := NewRegistry(newFake(), notices, time.Minute)

	w, err := r.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(w.ID)
	require.NoError(t, err)
	assert.Same(t, w, got)

	r.Close(w.ID)
	_, err = r.Get(w.ID)
	assert.ErrorIs(t, err, status.ErrNotFound)
	assert.False(t, notices.publish(models.PaymentNotice{CheckoutID: w.ID}))
}

func TestRegistry_NoticeConfirmsCheckout(t *testing.T) {
	f := newFake()
	f.statuses = []string{models.PaymentCompleted}
	notices := &memNotices{}
	r := NewRegistry(f, notices, time.Minute)

	w, err := r.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, w.Select(jazz, vip, 2))
	_, err = w.Submit(context.Background(), jane)
	require.NoError(t, err)
	_, err = w.StartPayment(context.Background(), "")
	require.NoError(t, err)

	require.True(t, notices.publish(models.PaymentNotice{CheckoutID: w.ID, Reference: "BK-1", OrderTrackingID: "T1"}))

	assert.Equal(t, Confirmed, w.State())
	assert.Equal(t, 1, f.count("status"))
}

func TestRegistry_SweepDropsIdle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(newFake(), nil, 10*time.Minute)
	r.now = func() time.Time { return now }

	idle, err := r.Open(context.Background())
	require.NoError(t, err)

	now = now.Add(8 * time.Minute)
	fresh, err := r.Open(context.Background())
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, r.Sweep())

	_, err = r.Get(idle.ID)
	assert.ErrorIs(t, err, status.ErrNotFound)
	_, err = r.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestRegistry_SweepKeepsInFlight(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFake()
	f.block = make(chan struct{})
	r := NewRegistry(f, nil, time.Minute)
	r.now = func() time.Time { return now }

	w, err := r.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, w.Select(jazz, vip, 1))

	done := make(chan struct{})
	go func() {
		w.Submit(context.Background(), jane)
		close(done)
	}()
	require.Eventually(t, func() bool { return w.State() == Submitting }, time.Second, time.Millisecond)

	now = now.Add(time.Hour)
	assert.Zero(t, r.Sweep())

	close(f.block)
	<-done
	now = now.Add(time.Hour)
	assert.Equal(t, 1, r.Sweep())
}
