package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

// memoryBus delivers in-process. Used when REDIS_ADDR is unset and in tests.
type memoryBus struct {
	log *logger.Logger

	mu        sync.RWMutex
	listeners []func(Message)
	closed    bool
}

func NewMemoryBus(log *logger.Logger) Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &memoryBus{log: log.With("service", "MemoryNotificationBus")}
}

func (b *memoryBus) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("memory bus closed")
	}
	if len(b.listeners) == 0 {
		b.log.Debug("notification dropped (no listeners)", "channel", msg.Channel, "event", msg.Event)
		return nil
	}
	for _, fn := range b.listeners {
		fn(msg)
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onMsg func(m Message)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("memory bus closed")
	}
	b.listeners = append(b.listeners, onMsg)
	return nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.listeners = nil
	b.mu.Unlock()
	return nil
}
