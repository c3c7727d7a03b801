package notifications

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifyhub/pkg/broadcast"
)

// Registry routes live notification views to the user's current
// subscribers. Each user gets one broadcaster, created on the first
// Subscribe and dropped when the last of the user's subscribers leaves,
// so memory is bounded by the number of users currently listening.
type Registry struct {
	channels   map[uuid.UUID]*userChannel
	bufferSize int
	closed     bool
	mu         sync.RWMutex
}

type userChannel struct {
	*broadcast.MemoryBroadcaster[View]
	refs int // registry subscriptions not yet released
}

// NewRegistry creates a registry whose subscribers buffer up to bufferSize
// pending views each.
func NewRegistry(bufferSize int) *Registry {
	return &Registry{
		channels:   make(map[uuid.UUID]*userChannel),
		bufferSize: max(bufferSize, 1),
	}
}

// Subscribe attaches a new subscriber to the user's channel. It only sees
// views published after this call and is detached when ctx is cancelled
// or Close is called.
func (r *Registry) Subscribe(ctx context.Context, userID uuid.UUID) broadcast.Subscriber[View] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		b := broadcast.NewMemoryBroadcaster[View](1)
		_ = b.Close()
		return b.Subscribe(ctx)
	}

	ch, ok := r.channels[userID]
	if !ok {
		ch = &userChannel{MemoryBroadcaster: broadcast.NewMemoryBroadcaster[View](r.bufferSize)}
		r.channels[userID] = ch
	}
	ch.refs++

	sub := &registrySubscriber{Subscriber: ch.Subscribe(ctx)}
	var once sync.Once
	release := func() {
		once.Do(func() {
			_ = sub.Subscriber.Close()
			r.release(userID, ch)
		})
	}
	stop := context.AfterFunc(ctx, release)
	sub.release = func() {
		stop()
		release()
	}
	return sub
}

// Publish offers v to the user's subscribers without blocking.
// It is a no-op when the user has no subscribers.
func (r *Registry) Publish(ctx context.Context, userID uuid.UUID, v View) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	if ch, ok := r.channels[userID]; ok {
		_ = ch.Broadcast(ctx, broadcast.Message[View]{Data: v})
	}
}

// Subscribers returns the number of live subscribers for the user.
func (r *Registry) Subscribers(userID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ch, ok := r.channels[userID]; ok {
		return ch.Subscribers()
	}
	return 0
}

// Users returns how many users currently have a channel.
func (r *Registry) Users() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// Close closes every channel and subscriber. Later subscriptions are
// returned already closed.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	for userID, ch := range r.channels {
		_ = ch.Close()
		delete(r.channels, userID)
	}
	return nil
}

// release drops one reference to ch and removes the user's channel once
// nothing refers to it. A channel that was already replaced or removed by
// Close is left alone.
func (r *Registry) release(userID uuid.UUID, ch *userChannel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch.refs--
	if ch.refs > 0 || r.channels[userID] != ch {
		return
	}
	delete(r.channels, userID)
	_ = ch.Close()
}

// registrySubscriber returns its reference to the registry on Close.
type registrySubscriber struct {
	broadcast.Subscriber[View]
	release func()
}

func (s *registrySubscriber) Close() error {
	s.release()
	return nil
}
