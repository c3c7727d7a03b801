package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns the channel messages are delivered on. The channel is
	// closed when the subscriber is closed, its context is cancelled or the
	// broadcaster shuts down.
	Receive(ctx context.Context) <-chan Message[T]

	// Close detaches the subscriber and closes its channel. Idempotent.
	Close() error
}

// Broadcaster sends messages to multiple subscribers.
// Broadcast never blocks on a slow consumer.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber whose lifetime is bound to ctx.
	// Subscribers only see messages broadcast after they subscribed.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast offers msg to every active subscriber.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close shuts down the broadcaster and closes all subscribers.
	Close() error
}

type subscriber[T any] struct {
	ch     chan Message[T]
	done   chan struct{}
	closed bool
	mu     sync.RWMutex
	detach func(*subscriber[T])
}

func newSubscriber[T any](bufferSize int, detach func(*subscriber[T])) *subscriber[T] {
	return &subscriber[T]{
		ch:     make(chan Message[T], bufferSize),
		done:   make(chan struct{}),
		detach: detach,
	}
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	if s.shutdown() && s.detach != nil {
		s.detach(s)
	}
	return nil
}

// shutdown closes the channels and reports whether this call did it.
func (s *subscriber[T]) shutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.closed = true
	close(s.ch)
	close(s.done)
	return true
}

type sendResult int

const (
	sent sendResult = iota
	dropped
	gone
)

func (s *subscriber[T]) send(msg Message[T]) sendResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return gone
	}

	select {
	case s.ch <- msg:
		return sent
	default:
		return dropped
	}
}
