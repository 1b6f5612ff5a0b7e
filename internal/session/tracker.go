// Package session tracks the identity-provider state and exposes the
// current active identity as an observable value. One tracker exists
// per process; providers push terminal state changes into it, and
// consumers subscribe for replay-then-follow delivery.
package session

import (
	"context"
	"sync"

	"github.com/Sophiedev-dev/WiseNkap/internal/core"
	applog "github.com/Sophiedev-dev/WiseNkap/internal/log"
)

type subscriber struct {
	notify chan struct{}
}

type Tracker struct {
	logger *applog.Logger

	mu      sync.Mutex
	current core.Identity
	subs    map[*subscriber]struct{}
}

func NewTracker(logger *applog.Logger) *Tracker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Tracker{
		logger: logger.WithComponent(applog.ComponentSession),
		subs:   make(map[*subscriber]struct{}),
	}
}

// Current returns the identity as of now. The zero Identity means no
// active session.
func (t *Tracker) Current() core.Identity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Set records a sign-in (or identity refresh) reported by the provider
// and wakes all subscribers.
func (t *Tracker) Set(id core.Identity) {
	t.mu.Lock()
	t.current = id
	t.mu.Unlock()
	t.logger.Info("Identity changed", "uid", id.UID, "name", id.Name())
	t.wakeAll()
}

// Clear records a sign-out or session expiry.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.current = core.Identity{}
	t.mu.Unlock()
	t.logger.Info("Identity cleared")
	t.wakeAll()
}

// Subscribe returns a channel that delivers the current identity
// immediately, then the latest identity after every provider
// transition. Rapid transitions coalesce: a slow consumer observes the
// most recent value, never an intermediate one out of order. The
// channel closes when ctx ends.
func (t *Tracker) Subscribe(ctx context.Context) <-chan core.Identity {
	sub := &subscriber{notify: make(chan struct{}, 1)}
	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()

	out := make(chan core.Identity)
	go func() {
		defer close(out)
		defer func() {
			t.mu.Lock()
			delete(t.subs, sub)
			t.mu.Unlock()
		}()
		for {
			select {
			case out <- t.Current():
			case <-ctx.Done():
				return
			}
			select {
			case <-sub.notify:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (t *Tracker) wakeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for sub := range t.subs {
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}
