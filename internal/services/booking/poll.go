package booking

import (
	"context"
	"time"

	"ticket-portal/internal/status"
)

// Backoff bounds automatic payment re-checks.
type Backoff struct {
	Initial     time.Duration
	Max         time.Duration
	Factor      float64
	MaxAttempts int
	Timeout     time.Duration
}

func DefaultBackoff() Backoff {
	return Backoff{
		Initial:     2 * time.Second,
		Max:         30 * time.Second,
		Factor:      2,
		MaxAttempts: 6,
		Timeout:     3 * time.Minute,
	}
}

func (b Backoff) delay(attempt int) time.Duration {
	d := b.Initial
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * b.Factor)
		if d >= b.Max {
			return b.Max
		}
	}
	return min(d, b.Max)
}

// PollPayment verifies the payment until it leaves PendingSettlement or the
// backoff bound is reached. Hitting the bound leaves the checkout in
// PendingSettlement and returns status.ErrPollTimeout; the customer can
// still re-check by hand.
func (w *Workflow) PollPayment(ctx context.Context, b Backoff) (State, error) {
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	for attempt := 1; ; attempt++ {
		st, err := w.VerifyPayment(ctx, ProviderReturn{})
		if err != nil {
			if ctx.Err() != nil {
				return st, status.ErrPollTimeout
			}
			return st, err
		}
		if st != PendingSettlement {
			return st, nil
		}
		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			return st, status.ErrPollTimeout
		}

		t := time.NewTimer(b.delay(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return w.State(), status.ErrPollTimeout
		case <-t.C:
		}
	}
}
