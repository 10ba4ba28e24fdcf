package booking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ticket-portal/internal/status"
	"ticket-portal/models"
	"ticket-portal/monitoring"

	"github.com/google/uuid"
)

// Notices delivers payment notices published for a checkout.
type Notices interface {
	Subscribe(ctx context.Context, checkoutID string, fn func(models.PaymentNotice)) (func(), error)
}

type entry struct {
	flow        *Workflow
	unsubscribe func()
}

// Registry holds live checkouts in memory. It alone decides what a payment
// notice does to a checkout; the provider return only relays the notice.
type Registry struct {
	backend Backend
	notices Notices
	idleTTL time.Duration
	verify  time.Duration

	mu    sync.RWMutex
	flows map[string]*entry
	now   func() time.Time
}

func NewRegistry(backend Backend, notices Notices, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Registry{
		backend: backend,
		notices: notices,
		idleTTL: idleTTL,
		verify:  30 * time.Second,
		flows:   make(map[string]*entry),
		now:     time.Now,
	}
}

// Open starts a new checkout and subscribes it to its notice channel.
func (r *Registry) Open(ctx context.Context) (*Workflow, error) {
	w := NewWorkflow(uuid.NewString(), r.backend)
	w.now = r.now
	w.touched = r.now()

	e := &entry{flow: w}
	if r.notices != nil {
		unsub, err := r.notices.Subscribe(ctx, w.ID, func(n models.PaymentNotice) {
			r.onNotice(w, n)
		})
		if err != nil {
			return nil, err
		}
		e.unsubscribe = unsub
	}

	r.mu.Lock()
	r.flows[w.ID] = e
	n := len(r.flows)
	r.mu.Unlock()

	monitoring.SetActiveCheckouts(n)
	return w, nil
}

func (r *Registry) Get(id string) (*Workflow, error) {
	r.mu.RLock()
	e, ok := r.flows[id]
	r.mu.RUnlock()
	if !ok {
		return nil, status.NotFound("This checkout has expired. Please start again.")
	}
	return e.flow, nil
}

func (r *Registry) Close(id string) {
	r.mu.Lock()
	e, ok := r.flows[id]
	delete(r.flows, id)
	n := len(r.flows)
	r.mu.Unlock()

	if ok && e.unsubscribe != nil {
		e.unsubscribe()
	}
	monitoring.SetActiveCheckouts(n)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.flows)
}

func (r *Registry) onNotice(w *Workflow, n models.PaymentNotice) {
	ctx, cancel := context.WithTimeout(context.Background(), r.verify)
	defer cancel()

	st, err := w.HandleNotice(ctx, n)
	switch {
	case errors.Is(err, status.ErrInFlight):
		slog.Info("payment notice while a check is running", "checkout", w.ID)
	case err != nil:
		slog.Warn("w.HandleNotice()", "checkout", w.ID, "reference", n.Reference, "error", err)
	default:
		slog.Info("payment notice handled", "checkout", w.ID, "reference", n.Reference, "state", st.String())
	}
}

// Sweep drops checkouts idle for longer than the TTL and returns how many
// were removed. Checkouts with a backend call in flight are kept.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.RLock()
	var stale []string
	for id, e := range r.flows {
		if e.flow.idleSince().Before(cutoff) && !e.flow.inFlight() {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range stale {
		r.Close(id)
	}
	return len(stale)
}

// Run sweeps on every tick until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("checkout sweeper stopped")
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				slog.Info("expired idle checkouts", "count", n, "active", r.Len())
			}
		}
	}
}
