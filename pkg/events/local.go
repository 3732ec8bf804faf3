package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// LocalBus delivers events in-process on a goroutine per handler, using NATS
// subject wildcards ("*" one token, ">" the remainder).
type LocalBus struct {
	mu     sync.RWMutex
	subs   []localSub
	wg     sync.WaitGroup
	closed bool
}

type localSub struct {
	pattern string
	h       Handler
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("publish %s: bus closed", subject)
	}

	ev := Event{Subject: subject, Data: data}
	for _, s := range b.subs {
		if !MatchSubject(s.pattern, subject) {
			continue
		}
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			if err := h(context.WithoutCancel(ctx), ev); err != nil {
				slog.Warn("event handler failed", "subject", subject, "err", err)
			}
		}(s.h)
	}
	return nil
}

func (b *LocalBus) Subscribe(subject string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, localSub{pattern: subject, h: h})
	return nil
}

// Close stops accepting events and waits for in-flight handlers.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}

// MatchSubject reports whether subject matches a NATS-style pattern.
func MatchSubject(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, p := range pt {
		if p == ">" {
			return len(st) > i
		}
		if i >= len(st) {
			return false
		}
		if p != "*" && p != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}
