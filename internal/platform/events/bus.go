package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Handler func(ctx context.Context, e Event) error

// Bus fans events out to in-process subscribers. A failing subscriber is
// logged and skipped; publication never fails and never blocks a lifecycle
// transition.
type Bus struct {
	mu   sync.RWMutex
	subs []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, h)
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	subs := make([]Handler, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, h := range subs {
		if err := h(ctx, e); err != nil {
			slog.Warn("event delivery failed", "kind", e.Kind, "recordId", e.RecordID, "err", err)
		}
	}
}
