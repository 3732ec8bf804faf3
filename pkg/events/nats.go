package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
)

// NATSBus publishes core NATS messages. Subscriptions join a queue group so
// each event is handled once across replicas.
type NATSBus struct {
	nc    *nats.Conn
	queue string

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewNATSBus(nc *nats.Conn, queue string) *NATSBus {
	return &NATSBus{nc: nc, queue: queue}
}

func (b *NATSBus) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (b *NATSBus) Subscribe(subject string, h Handler) error {
	sub, err := b.nc.QueueSubscribe(subject, b.queue, func(msg *nats.Msg) {
		ev := Event{Subject: msg.Subject, Data: msg.Data}
		if err := h(context.Background(), ev); err != nil {
			slog.Warn("event handler failed", "subject", msg.Subject, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return nil
}

// Close unsubscribes and drains the connection.
func (b *NATSBus) Close() error {
	b.mu.Lock()
	for _, s := range b.subs {
		_ = s.Unsubscribe()
	}
	b.subs = nil
	b.mu.Unlock()
	return b.nc.Drain()
}
