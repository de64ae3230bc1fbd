package browse

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SessionFactory builds the session for a user the first time they browse.
type SessionFactory func(userID string) (*Session, error)

const (
	sessionIdleTTL     = 30 * time.Minute
	registrySweepEvery = 5 * time.Minute
)

// registryEntry is one user's slot. The entry goes into the map before
// the session starts; concurrent lookups for the same user wait on ready
// instead of starting a second session.
type registryEntry struct {
	ready   chan struct{}
	session *Session
	err     error
	lastUse time.Time
}

// Registry hands out one live session per authenticated user. Sessions
// are created lazily, started outside the registry lock so one user's
// cold start never stalls another's lookup, and evicted after sitting
// idle for sessionIdleTTL.
type Registry struct {
	factory SessionFactory
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	sessions  map[string]*registryEntry
	lastSweep time.Time
}

func NewRegistry(factory SessionFactory) (*Registry, error) {
	if factory == nil {
		return nil, fmt.Errorf("session factory is required: %w", ErrValidation)
	}
	return &Registry{
		factory:  factory,
		idleTTL:  sessionIdleTTL,
		now:      time.Now,
		sessions: make(map[string]*registryEntry),
	}, nil
}

// Session returns the user's live session, creating and starting it on
// first use. A session that fails to start is not cached, so the next
// request retries from scratch. Only the map access takes the registry
// lock; the start itself runs per user.
func (r *Registry) Session(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", ErrValidation)
	}

	r.mu.Lock()
	r.sweepLocked()
	if entry, ok := r.sessions[userID]; ok {
		entry.lastUse = r.now()
		r.mu.Unlock()

		select {
		case <-entry.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if entry.err != nil {
			return nil, entry.err
		}
		return entry.session, nil
	}

	entry := &registryEntry{ready: make(chan struct{}), lastUse: r.now()}
	r.sessions[userID] = entry
	r.mu.Unlock()

	session, err := r.factory(userID)
	if err != nil {
		err = fmt.Errorf("create session: %w", err)
	} else if startErr := session.Start(ctx); startErr != nil {
		err = fmt.Errorf("start session: %w", startErr)
	}
	if err != nil {
		entry.err = err
		close(entry.ready)
		r.dropEntry(userID, entry)
		return nil, err
	}

	entry.session = session
	close(entry.ready)
	return session, nil
}

// Drop discards a user's session; the next request rebuilds it.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

func (r *Registry) dropEntry(userID string, entry *registryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[userID] == entry {
		delete(r.sessions, userID)
	}
}

// sweepLocked evicts sessions nobody touched for idleTTL. Runs at most
// once per registrySweepEvery so a busy registry does not rescan the map
// on every lookup. Entries still starting are left alone.
func (r *Registry) sweepLocked() {
	now := r.now()
	if now.Sub(r.lastSweep) < registrySweepEvery {
		return
	}
	r.lastSweep = now

	for userID, entry := range r.sessions {
		select {
		case <-entry.ready:
		default:
			continue
		}
		if now.Sub(entry.lastUse) > r.idleTTL {
			delete(r.sessions, userID)
		}
	}
}
