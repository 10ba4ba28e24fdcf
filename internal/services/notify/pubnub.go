package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"ticket-portal/models"

	pubnub "github.com/pubnub/go/v7"
)

type PubNubConfig struct {
	PublishKey   string
	SubscribeKey string
	SecretKey    string
	UserID       string
}

// PubNubBus carries notices over PubNub so a return handled by one
// instance reaches the checkout held by another.
type PubNubBus struct {
	pn  *pubnub.PubNub
	lis *pubnub.Listener

	mu       sync.Mutex
	handlers map[string]func(models.PaymentNotice)
}

func NewPubNubBus(ctx context.Context, cfg PubNubConfig) (*PubNubBus, error) {
	if cfg.PublishKey == "" || cfg.SubscribeKey == "" {
		return nil, errors.New("pubnub publish and subscribe keys are required")
	}

	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.UserID))
	pnCfg.PublishKey = cfg.PublishKey
	pnCfg.SubscribeKey = cfg.SubscribeKey
	pnCfg.SecretKey = cfg.SecretKey

	b := &PubNubBus{
		pn:       pubnub.NewPubNub(pnCfg),
		lis:      pubnub.NewListener(),
		handlers: make(map[string]func(models.PaymentNotice)),
	}
	b.pn.AddListener(b.lis)

	go b.listen(ctx)
	return b, nil
}

func (b *PubNubBus) Publish(_ context.Context, n models.PaymentNotice) error {
	if n.CheckoutID == "" {
		return fmt.Errorf("publish notice for %s: missing checkout id", n.Reference)
	}
	_, st, err := b.pn.Publish().
		Channel(Channel(n.CheckoutID)).
		Message(n).
		Execute()
	if err != nil {
		return fmt.Errorf("pubnub publish (status %d): %w", st.StatusCode, err)
	}
	return nil
}

func (b *PubNubBus) Subscribe(_ context.Context, checkoutID string, fn func(models.PaymentNotice)) (func(), error) {
	ch := Channel(checkoutID)

	b.mu.Lock()
	b.handlers[ch] = fn
	b.mu.Unlock()

	b.pn.Subscribe().Channels([]string{ch}).Execute()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, ch)
			b.mu.Unlock()
			b.pn.Unsubscribe().Channels([]string{ch}).Execute()
		})
	}, nil
}

func (b *PubNubBus) dispatch(channel string, payload any) {
	b.mu.Lock()
	fn, ok := b.handlers[channel]
	b.mu.Unlock()
	if !ok {
		return
	}

	n, err := decodeNotice(payload)
	if err != nil {
		slog.Warn("decodeNotice()", "channel", channel, "error", err)
		return
	}
	if n.CheckoutID == "" {
		n.CheckoutID = strings.TrimPrefix(channel, "checkout-")
	}
	go fn(n)
}

func (b *PubNubBus) listen(ctx context.Context) {
	for {
		select {
		case st := <-b.lis.Status:
			switch st.Category {
			case pubnub.PNConnectedCategory:
				slog.Info("connected to pubnub")
			case pubnub.PNReconnectedCategory:
				slog.Info("reconnected to pubnub")
			case pubnub.PNDisconnectedCategory:
				slog.Warn("disconnected from pubnub")
			case pubnub.PNAccessDeniedCategory:
				slog.Error("pubnub access denied")
			case pubnub.PNReconnectionAttemptsExhausted:
				slog.Error("pubnub reconnection attempts exhausted")
			case pubnub.PNTimeoutCategory:
				slog.Warn("pubnub timeout")
			default:
				slog.Debug("pubnub status", "category", st.Category)
			}

		case msg := <-b.lis.Message:
			b.dispatch(msg.Channel, msg.Message)

		case <-ctx.Done():
			slog.Info("closing pubnub notice listener")
			b.pn.RemoveListener(b.lis)
			b.pn.UnsubscribeAll()
			return
		}
	}
}
