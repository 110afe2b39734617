package realtime

import (
	"context"
	"errors"
	"sync"
)

// ErrSubscriptionClosed is returned by Subscription.Next once the
// subscription or its client is closed.
var ErrSubscriptionClosed = errors.New("realtime: subscription closed")

// Subscription is a pull-based alternative to Client.On: updates queue up
// until Next takes them. It cannot be restarted once closed.
type Subscription struct {
	kinds map[UpdateKind]bool

	mtx    sync.Mutex
	queue  []*UpdateEvent
	closed bool
	signal chan struct{}
	done   chan struct{}

	unsubscribe func()
}

func newSubscription(kinds []UpdateKind) *Subscription {
	s := &Subscription{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if len(kinds) > 0 {
		s.kinds = make(map[UpdateKind]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}
	return s
}

// push queues u if the subscription wants it.
func (s *Subscription) push(u *UpdateEvent) bool {
	if s.kinds != nil && !s.kinds[u.Kind] {
		return false
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.closed {
		return false
	}
	s.queue = append(s.queue, u)
	select {
	case s.signal <- struct{}{}:
	default:
	}
	return true
}

// Next blocks until an update is available, ctx is done or the
// subscription is closed.
func (s *Subscription) Next(ctx context.Context) (*UpdateEvent, error) {
	for {
		s.mtx.Lock()
		if s.closed {
			s.mtx.Unlock()
			return nil, ErrSubscriptionClosed
		}
		if len(s.queue) > 0 {
			u := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mtx.Unlock()
			return u, nil
		}
		s.mtx.Unlock()

		select {
		case <-s.signal:
		case <-s.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close stops the subscription. Queued updates are discarded.
func (s *Subscription) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.close()
}

func (s *Subscription) close() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.queue = nil
	close(s.done)
}
