package pubsub

import (
	"context"
	"errors"
	"path"
	"sync"
)

var ErrClosed = errors.New("pubsub closed")

type memorySubscription struct {
	pattern string
	ch      chan *Event
	done    <-chan struct{}
}

// MemoryPubSub delivers events within the process. It serves single-instance
// deployments where no broker is configured.
type MemoryPubSub struct {
	mu     sync.RWMutex
	subs   map[*memorySubscription]struct{}
	closed bool
}

// NewMemoryPubSub creates an in-process bus.
func NewMemoryPubSub() *MemoryPubSub {
	return &MemoryPubSub{subs: make(map[*memorySubscription]struct{})}
}

// Publish delivers the event to every matching subscriber without blocking.
func (m *MemoryPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	event.Channel = channel
	for sub := range m.subs {
		if ok, _ := path.Match(sub.pattern, channel); !ok {
			continue
		}
		select {
		case <-sub.done:
		case sub.ch <- event:
		default:
			// Subscriber full, skip message
		}
	}
	return nil
}

// SubscribePattern subscribes to channels matching a glob pattern.
func (m *MemoryPubSub) SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	sub := &memorySubscription{pattern: pattern, ch: make(chan *Event, 100), done: ctx.Done()}
	m.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		m.remove(sub)
	}()

	return sub.ch, nil
}

func (m *MemoryPubSub) remove(sub *memorySubscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[sub]; ok {
		delete(m.subs, sub)
		close(sub.ch)
	}
}

// Close closes every subscription.
func (m *MemoryPubSub) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs {
		delete(m.subs, sub)
		close(sub.ch)
	}
	m.closed = true
	return nil
}
