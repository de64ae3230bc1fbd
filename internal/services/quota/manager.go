package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avolkau/sparkmatch/internal/domain/model"
	"github.com/avolkau/sparkmatch/internal/domain/rules"
)

var (
	ErrQuotaExhausted = errors.New("super-like quota exhausted")
	ErrValidation     = errors.New("validation error")
)

// Store persists per-user super-like balances between sessions.
type Store interface {
	Load(ctx context.Context, userID string) (model.QuotaState, bool, error)
	Persist(ctx context.Context, userID string, state model.QuotaState) error
}

// Manager tracks one user's super-like balance. The balance refills to the
// daily limit at the first action on a new UTC calendar day; the day check
// always runs before the balance check, so a stale zero never blocks a
// user whose quota should have reset.
type Manager struct {
	store  Store
	userID string
	limit  int
	now    func() time.Time

	mu    sync.Mutex
	state model.QuotaState
}

func NewManager(store Store, userID string, limit int) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required: %w", ErrValidation)
	}
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", ErrValidation)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive: %w", ErrValidation)
	}
	return &Manager{
		store:  store,
		userID: userID,
		limit:  limit,
		now:    time.Now,
	}, nil
}

// Load pulls the persisted balance, or starts a fresh one at the full
// daily limit for a user who has never super-liked.
func (m *Manager) Load(ctx context.Context) error {
	state, found, err := m.store.Load(ctx, m.userID)
	if err != nil {
		return fmt.Errorf("load quota state: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !found {
		now := m.now()
		m.state = model.QuotaState{Remaining: m.limit, LastReset: &now}
		return nil
	}
	m.state = state
	return nil
}

// Snapshot returns the current balance after applying any pending daily
// reset, plus the instant the next reset lands.
func (m *Manager) Snapshot() (model.QuotaState, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.resetLocked(now)
	return m.state, rules.NextResetAt(now)
}

// Consume spends one super-like. The decrement is rolled back if the new
// balance cannot be persisted, so memory never runs ahead of the store.
func (m *Manager) Consume(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	prev := m.state
	m.resetLocked(now)

	if m.state.Remaining <= 0 {
		m.state = prev
		return 0, ErrQuotaExhausted
	}

	m.state.Remaining--
	m.state.LastAction = &now
	if err := m.store.Persist(ctx, m.userID, m.state); err != nil {
		m.state = prev
		return 0, fmt.Errorf("persist quota state: %w", err)
	}
	return m.state.Remaining, nil
}

// Refund returns one super-like spent by a Consume whose follow-up work
// failed. The balance never exceeds the daily limit.
func (m *Manager) Refund(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Remaining >= m.limit {
		return nil
	}

	prev := m.state
	m.state.Remaining++
	if err := m.store.Persist(ctx, m.userID, m.state); err != nil {
		m.state = prev
		return fmt.Errorf("persist quota state: %w", err)
	}
	return nil
}

// resetLocked refills the balance in memory only. Reads (Snapshot) stay
// write-free; the refilled balance reaches the store with the next
// Consume, and a restart re-derives the same reset from LastReset.
func (m *Manager) resetLocked(now time.Time) {
	if m.state.LastReset != nil && rules.SameResetDay(*m.state.LastReset, now) {
		return
	}
	m.state.Remaining = m.limit
	m.state.LastReset = &now
}
