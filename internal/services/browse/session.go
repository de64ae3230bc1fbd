package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/avolkau/sparkmatch/internal/domain/model"
	"github.com/avolkau/sparkmatch/internal/services/deck"
	"github.com/avolkau/sparkmatch/internal/services/discovery"
	"github.com/avolkau/sparkmatch/internal/services/gesture"
	"github.com/avolkau/sparkmatch/internal/services/quota"
)

var (
	ErrValidation = errors.New("validation error")

	// ErrNoCard means the deck is exhausted and there is nothing to swipe.
	ErrNoCard = errors.New("no card under the cursor")

	// ErrCardMismatch means the swiped candidate is no longer the current
	// card, usually because a filter change replaced the deck underneath
	// the client.
	ErrCardMismatch = errors.New("target is not the current card")

	ErrQuotaExhausted = quota.ErrQuotaExhausted
)

// RateLimitedError rejects a super-like tap burst before it reaches the
// daily quota.
type RateLimitedError struct {
	RetryAfterSec int64
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("super-like rate limited, retry after %ds", e.RetryAfterSec)
}

func IsRateLimited(err error) bool {
	var target *RateLimitedError
	return errors.As(err, &target)
}

// CandidateSource owns the filter criteria and produces candidate pools.
type CandidateSource interface {
	SetCriteria(criteria model.FilterCriteria) (uint64, error)
	Criteria() model.FilterCriteria
	Refresh(ctx context.Context, viewerID string) ([]model.Candidate, uint64, error)
}

// QuotaManager tracks the user's super-like balance.
type QuotaManager interface {
	Load(ctx context.Context) error
	Snapshot() (model.QuotaState, time.Time)
	Consume(ctx context.Context) (int, error)
	Refund(ctx context.Context) error
}

// DecisionResolver persists a committed decision and reports a new match.
type DecisionResolver interface {
	Resolve(ctx context.Context, actorID, candidateID string, kind model.DecisionKind) (model.MatchEvent, bool, error)
}

// SuperLikeLimiter throttles super-like taps in short windows.
type SuperLikeLimiter interface {
	AllowSuperLike(ctx context.Context, userID string) (int64, bool, error)
}

type Dependencies struct {
	UserID         string
	ViewportWidth  float64
	ViewportHeight float64

	Discovery CandidateSource
	Quota     QuotaManager
	Resolver  DecisionResolver
	Limiter   SuperLikeLimiter
	Sink      EventSink
	Logger    *zap.Logger
}

// SwipeResult reports what a committed decision did: whether it created
// a match and, for super-likes, the balance left afterwards.
type SwipeResult struct {
	Decision       model.Decision
	Matched        bool
	Match          model.MatchEvent
	QuotaRemaining int
	DeckRemaining  int
}

// Session is one user's live browsing state: the filtered deck, the
// gesture lifecycle of the top card, the super-like balance and the
// decision pipeline. All methods serialize on the session lock; a user
// drives exactly one card at a time.
type Session struct {
	userID    string
	discovery CandidateSource
	quota     QuotaManager
	resolver  DecisionResolver
	limiter   SuperLikeLimiter
	sink      EventSink
	log       *zap.Logger

	mu      sync.Mutex
	deck    *deck.Deck
	gesture *gesture.Interpreter
}

func NewSession(deps Dependencies) (*Session, error) {
	if deps.UserID == "" {
		return nil, fmt.Errorf("user id is required: %w", ErrValidation)
	}
	if deps.Discovery == nil || deps.Quota == nil || deps.Resolver == nil {
		return nil, fmt.Errorf("discovery, quota and resolver are required: %w", ErrValidation)
	}
	if deps.Sink == nil {
		deps.Sink = NopSink{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.ViewportWidth <= 0 {
		deps.ViewportWidth = 390
	}
	if deps.ViewportHeight <= 0 {
		deps.ViewportHeight = 844
	}

	interp, err := gesture.New(deps.ViewportWidth, deps.ViewportHeight)
	if err != nil {
		return nil, err
	}

	return &Session{
		userID:    deps.UserID,
		discovery: deps.Discovery,
		quota:     deps.Quota,
		resolver:  deps.Resolver,
		limiter:   deps.Limiter,
		sink:      deps.Sink,
		log:       deps.Logger.With(zap.String("user_id", deps.UserID)),
		deck:      deck.New(),
		gesture:   interp,
	}, nil
}

// Start loads the persisted super-like balance and builds the first deck.
func (s *Session) Start(ctx context.Context) error {
	if err := s.quota.Load(ctx); err != nil {
		return fmt.Errorf("load quota: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// ApplyFilters replaces the criteria and rebuilds the deck. A fetch that
// went stale mid-flight is dropped silently; a failed fetch keeps the
// current deck and surfaces the error.
func (s *Session) ApplyFilters(ctx context.Context, criteria model.FilterCriteria) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.discovery.SetCriteria(criteria); err != nil {
		return err
	}
	s.log.Info("filters applied",
		zap.Float64("max_distance_km", criteria.MaxDistanceKM),
		zap.Int("age_min", criteria.AgeRange.Min),
		zap.Int("age_max", criteria.AgeRange.Max),
		zap.String("gender", criteria.GenderPreference),
	)
	return s.refreshLocked(ctx)
}

// Refill refetches with the current criteria once the deck runs dry.
func (s *Session) Refill(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.deck.Exhausted() {
		return nil
	}
	return s.refreshLocked(ctx)
}

func (s *Session) refreshLocked(ctx context.Context) error {
	cards, _, err := s.discovery.Refresh(ctx, s.userID)
	if errors.Is(err, discovery.ErrStaleFilter) {
		s.log.Debug("stale candidate fetch dropped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh candidates: %w", err)
	}

	s.deck.Reset(cards)
	s.gesture.Cancel()
	s.log.Info("deck rebuilt", zap.Int("cards", len(cards)))
	return nil
}

// CurrentCard returns the card under the cursor.
func (s *Session) CurrentCard() (model.Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deck.Current()
}

// UpcomingCards returns up to limit cards from the cursor onward.
func (s *Session) UpcomingCards(limit int) []model.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deck.Upcoming(limit)
}

// Remaining reports how many cards are left including the current one.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deck.Remaining()
}

// Criteria returns the filters the current deck was built with.
func (s *Session) Criteria() model.FilterCriteria {
	return s.discovery.Criteria()
}

// QuotaSnapshot returns the super-like balance and the next reset time.
func (s *Session) QuotaSnapshot() (model.QuotaState, time.Time) {
	return s.quota.Snapshot()
}

// DragStart begins a drag on the current card.
func (s *Session) DragStart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deck.Current(); !ok {
		return ErrNoCard
	}
	return s.gesture.Begin()
}

// DragMove records the drag offset and returns the card tilt in degrees.
func (s *Session) DragMove(offsetX, offsetY float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.gesture.Move(offsetX, offsetY); err != nil {
		return 0, err
	}
	return s.gesture.Rotation(), nil
}

// DragEnd releases the drag. A committed outcome leaves the card flying
// off; the decision lands when FinishAnimation is called.
func (s *Session) DragEnd() (gesture.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gesture.End()
}

// FinishAnimation resolves the decision committed by a drag once the
// fly-off finishes. Drags only produce likes and passes, so no quota is
// involved; a failed resolve re-arms the card for a retry.
func (s *Session) FinishAnimation(ctx context.Context) (SwipeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.deck.Current()
	if !ok {
		s.gesture.Cancel()
		return SwipeResult{}, ErrNoCard
	}

	kind, err := s.gesture.CompleteAnimation()
	if err != nil {
		return SwipeResult{}, err
	}
	result, err := s.resolveLocked(ctx, card, kind)
	if err != nil {
		s.gesture.Cancel()
		return SwipeResult{}, err
	}
	return result, nil
}

// Swipe commits a button decision on targetID. It fails with
// ErrCardMismatch when targetID is not the current card, so a deck
// replaced mid-request never gets a decision meant for another profile.
func (s *Session) Swipe(ctx context.Context, targetID string, kind model.DecisionKind) (SwipeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.deck.Current()
	if !ok {
		return SwipeResult{}, ErrNoCard
	}
	if targetID != "" && targetID != card.ID {
		return SwipeResult{}, ErrCardMismatch
	}

	superLike := kind == model.DecisionSuperLike
	if superLike {
		if err := s.gateSuperLikeLocked(ctx); err != nil {
			return SwipeResult{}, err
		}
	}

	if _, err := s.gesture.Tap(kind); err != nil {
		if superLike {
			s.refundLocked(ctx)
		}
		return SwipeResult{}, err
	}
	if _, err := s.gesture.CompleteAnimation(); err != nil {
		s.gesture.Cancel()
		if superLike {
			s.refundLocked(ctx)
		}
		return SwipeResult{}, err
	}

	result, err := s.resolveLocked(ctx, card, kind)
	if err != nil {
		s.gesture.Cancel()
		if superLike {
			s.refundLocked(ctx)
		}
		return SwipeResult{}, err
	}
	return result, nil
}

func (s *Session) gateSuperLikeLocked(ctx context.Context) error {
	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.AllowSuperLike(ctx, s.userID)
		if err != nil {
			return fmt.Errorf("super-like rate check: %w", err)
		}
		if !allowed {
			return &RateLimitedError{RetryAfterSec: retryAfter}
		}
	}

	if _, err := s.quota.Consume(ctx); err != nil {
		if errors.Is(err, quota.ErrQuotaExhausted) {
			_, nextReset := s.quota.Snapshot()
			s.sink.QuotaExhausted(s.userID, nextReset)
			s.log.Info("super-like quota exhausted", zap.Time("next_reset", nextReset))
		}
		return err
	}
	return nil
}

func (s *Session) refundLocked(ctx context.Context) {
	if err := s.quota.Refund(ctx); err != nil {
		s.log.Error("super-like refund failed", zap.Error(err))
	}
}

func (s *Session) resolveLocked(ctx context.Context, card model.Candidate, kind model.DecisionKind) (SwipeResult, error) {
	event, matched, err := s.resolver.Resolve(ctx, s.userID, card.ID, kind)
	if err != nil {
		return SwipeResult{}, fmt.Errorf("resolve decision: %w", err)
	}

	// The card is spent regardless of the match outcome.
	if err := s.gesture.NextCard(); err != nil {
		s.gesture.Cancel()
	}
	s.deck.Advance()

	decision := model.Decision{
		ActorID:     s.userID,
		CandidateID: card.ID,
		Kind:        kind,
		CreatedAt:   event.CreatedAt,
	}
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = time.Now()
	}
	s.sink.CardDecided(s.userID, decision)
	s.log.Info("card decided",
		zap.String("candidate_id", card.ID),
		zap.String("kind", string(kind)),
		zap.Bool("matched", matched),
	)
	if matched {
		s.sink.MatchFound(event)
	}
	if s.deck.Exhausted() {
		s.sink.QueueExhausted(s.userID)
		s.log.Info("deck exhausted")
	}

	state, _ := s.quota.Snapshot()
	return SwipeResult{
		Decision:       decision,
		Matched:        matched,
		Match:          event,
		QuotaRemaining: state.Remaining,
		DeckRemaining:  s.deck.Remaining(),
	}, nil
}
