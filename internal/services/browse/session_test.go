package browse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avolkau/sparkmatch/internal/domain/model"
	"github.com/avolkau/sparkmatch/internal/services/discovery"
	"github.com/avolkau/sparkmatch/internal/services/gesture"
	"github.com/avolkau/sparkmatch/internal/services/quota"
)

type stubSource struct {
	criteria   model.FilterCriteria
	generation uint64
	pool       []model.Candidate
	refreshErr error
	stale      bool
	refreshes  int
}

func (s *stubSource) SetCriteria(criteria model.FilterCriteria) (uint64, error) {
	s.criteria = criteria
	s.generation++
	return s.generation, nil
}

func (s *stubSource) Criteria() model.FilterCriteria {
	return s.criteria
}

func (s *stubSource) Refresh(_ context.Context, _ string) ([]model.Candidate, uint64, error) {
	s.refreshes++
	if s.stale {
		return nil, s.generation, discovery.ErrStaleFilter
	}
	if s.refreshErr != nil {
		return nil, s.generation, s.refreshErr
	}
	out := append([]model.Candidate(nil), s.pool...)
	return out, s.generation, nil
}

type stubQuota struct {
	remaining  int
	consumeErr error
	refunds    int
	nextReset  time.Time
}

func (s *stubQuota) Load(_ context.Context) error {
	return nil
}

func (s *stubQuota) Snapshot() (model.QuotaState, time.Time) {
	return model.QuotaState{Remaining: s.remaining}, s.nextReset
}

func (s *stubQuota) Consume(_ context.Context) (int, error) {
	if s.consumeErr != nil {
		return 0, s.consumeErr
	}
	if s.remaining <= 0 {
		return 0, quota.ErrQuotaExhausted
	}
	s.remaining--
	return s.remaining, nil
}

func (s *stubQuota) Refund(_ context.Context) error {
	s.refunds++
	s.remaining++
	return nil
}

type stubResolver struct {
	matched    bool
	resolveErr error
	resolved   []model.Decision
}

func (s *stubResolver) Resolve(_ context.Context, actorID, candidateID string, kind model.DecisionKind) (model.MatchEvent, bool, error) {
	if s.resolveErr != nil {
		return model.MatchEvent{}, false, s.resolveErr
	}
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	s.resolved = append(s.resolved, model.Decision{
		ActorID:     actorID,
		CandidateID: candidateID,
		Kind:        kind,
		CreatedAt:   now,
	})
	if !kind.IsPositive() || !s.matched {
		return model.MatchEvent{}, false, nil
	}
	return model.MatchEvent{
		MatchID:     "match-1",
		UserID:      actorID,
		CandidateID: candidateID,
		CreatedAt:   now,
	}, true, nil
}

type stubLimiter struct {
	retryAfter int64
	blocked    bool
	calls      int
}

func (s *stubLimiter) AllowSuperLike(_ context.Context, _ string) (int64, bool, error) {
	s.calls++
	if s.blocked {
		return s.retryAfter, false, nil
	}
	return 0, true, nil
}

type recordingSink struct {
	decided        []model.Decision
	matches        []model.MatchEvent
	quotaDrained   int
	queueExhausted int
}

func (s *recordingSink) CardDecided(_ string, decision model.Decision) {
	s.decided = append(s.decided, decision)
}

func (s *recordingSink) MatchFound(event model.MatchEvent) {
	s.matches = append(s.matches, event)
}

func (s *recordingSink) QuotaExhausted(_ string, _ time.Time) {
	s.quotaDrained++
}

func (s *recordingSink) QueueExhausted(_ string) {
	s.queueExhausted++
}

type fixture struct {
	session  *Session
	source   *stubSource
	quota    *stubQuota
	resolver *stubResolver
	limiter  *stubLimiter
	sink     *recordingSink
}

func newFixture(t *testing.T, pool ...model.Candidate) *fixture {
	t.Helper()

	f := &fixture{
		source:   &stubSource{pool: pool},
		quota:    &stubQuota{remaining: 5, nextReset: time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)},
		resolver: &stubResolver{},
		limiter:  &stubLimiter{},
		sink:     &recordingSink{},
	}

	session, err := NewSession(Dependencies{
		UserID:         "user-1",
		ViewportWidth:  400,
		ViewportHeight: 800,
		Discovery:      f.source,
		Quota:          f.quota,
		Resolver:       f.resolver,
		Limiter:        f.limiter,
		Sink:           f.sink,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start session: %v", err)
	}
	f.session = session
	return f
}

func card(id string) model.Candidate {
	return model.Candidate{ID: id, ProfileCompleted: true}
}

func TestSwipeLikeAdvancesDeck(t *testing.T) {
	f := newFixture(t, card("c1"), card("c2"))

	result, err := f.session.Swipe(context.Background(), "c1", model.DecisionLike)
	if err != nil {
		t.Fatalf("swipe like: %v", err)
	}
	if result.Matched {
		t.Fatal("unreciprocated like must not match")
	}
	if result.DeckRemaining != 1 {
		t.Fatalf("expected one card left, got %d", result.DeckRemaining)
	}
	if current, _ := f.session.CurrentCard(); current.ID != "c2" {
		t.Fatalf("deck did not advance, current is %s", current.ID)
	}
	if len(f.sink.decided) != 1 || f.sink.decided[0].CandidateID != "c1" {
		t.Fatalf("decision event missing: %+v", f.sink.decided)
	}
}

func TestSwipeMatchStillAdvances(t *testing.T) {
	f := newFixture(t, card("c1"), card("c2"))
	f.resolver.matched = true

	result, err := f.session.Swipe(context.Background(), "c1", model.DecisionLike)
	if err != nil {
		t.Fatalf("swipe: %v", err)
	}
	if !result.Matched || result.Match.MatchID == "" {
		t.Fatalf("expected match, got %+v", result)
	}
	if len(f.sink.matches) != 1 {
		t.Fatalf("match event missing: %+v", f.sink.matches)
	}
	if current, _ := f.session.CurrentCard(); current.ID != "c2" {
		t.Fatal("a match must not stall the queue")
	}
}

func TestSwipeTargetMismatch(t *testing.T) {
	f := newFixture(t, card("c1"))

	if _, err := f.session.Swipe(context.Background(), "c9", model.DecisionLike); !errors.Is(err, ErrCardMismatch) {
		t.Fatalf("expected ErrCardMismatch, got %v", err)
	}
	if len(f.resolver.resolved) != 0 {
		t.Fatal("mismatched swipe must not reach the resolver")
	}
}

func TestSwipeEmptyDeck(t *testing.T) {
	f := newFixture(t)

	if _, err := f.session.Swipe(context.Background(), "", model.DecisionLike); !errors.Is(err, ErrNoCard) {
		t.Fatalf("expected ErrNoCard, got %v", err)
	}
}

func TestSuperLikeSpendsQuota(t *testing.T) {
	f := newFixture(t, card("c1"), card("c2"))

	result, err := f.session.Swipe(context.Background(), "c1", model.DecisionSuperLike)
	if err != nil {
		t.Fatalf("super-like: %v", err)
	}
	if result.QuotaRemaining != 4 {
		t.Fatalf("expected 4 super-likes left, got %d", result.QuotaRemaining)
	}
	if f.limiter.calls != 1 {
		t.Fatalf("rate limiter not consulted: %d calls", f.limiter.calls)
	}
}

func TestSuperLikeExhaustedQuota(t *testing.T) {
	f := newFixture(t, card("c1"))
	f.quota.remaining = 0

	_, err := f.session.Swipe(context.Background(), "c1", model.DecisionSuperLike)
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	if f.sink.quotaDrained != 1 {
		t.Fatal("quota exhausted event missing")
	}
	if current, ok := f.session.CurrentCard(); !ok || current.ID != "c1" {
		t.Fatal("a rejected super-like must not spend the card")
	}
	if len(f.resolver.resolved) != 0 {
		t.Fatal("rejected super-like must not reach the resolver")
	}
}

func TestSuperLikeRateLimited(t *testing.T) {
	f := newFixture(t, card("c1"))
	f.limiter.blocked = true
	f.limiter.retryAfter = 7

	_, err := f.session.Swipe(context.Background(), "c1", model.DecisionSuperLike)
	if !IsRateLimited(err) {
		t.Fatalf("expected rate limited error, got %v", err)
	}
	var rl *RateLimitedError
	if !errors.As(err, &rl) || rl.RetryAfterSec != 7 {
		t.Fatalf("unexpected retry-after: %v", err)
	}
	if f.quota.remaining != 5 {
		t.Fatalf("rate limited super-like must not touch quota, remaining %d", f.quota.remaining)
	}
}

func TestSuperLikeRefundsOnResolveFailure(t *testing.T) {
	f := newFixture(t, card("c1"))
	f.resolver.resolveErr = errors.New("postgres down")

	if _, err := f.session.Swipe(context.Background(), "c1", model.DecisionSuperLike); err == nil {
		t.Fatal("expected resolve failure to surface")
	}
	if f.quota.refunds != 1 {
		t.Fatalf("expected one refund, got %d", f.quota.refunds)
	}
	if f.quota.remaining != 5 {
		t.Fatalf("quota not restored, remaining %d", f.quota.remaining)
	}
	if current, ok := f.session.CurrentCard(); !ok || current.ID != "c1" {
		t.Fatal("failed super-like must keep the card")
	}

	// The gesture is re-armed, so the user can retry immediately.
	f.resolver.resolveErr = nil
	if _, err := f.session.Swipe(context.Background(), "c1", model.DecisionLike); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestDragCommitResolvesOnAnimationEnd(t *testing.T) {
	f := newFixture(t, card("c1"), card("c2"))

	if err := f.session.DragStart(); err != nil {
		t.Fatalf("drag start: %v", err)
	}
	rotation, err := f.session.DragMove(-200, 0)
	if err != nil {
		t.Fatalf("drag move: %v", err)
	}
	if rotation != -10 {
		t.Fatalf("unexpected rotation: %f", rotation)
	}

	outcome, err := f.session.DragEnd()
	if err != nil {
		t.Fatalf("drag end: %v", err)
	}
	if !outcome.Decided || outcome.Kind != model.DecisionPass {
		t.Fatalf("expected pass outcome, got %+v", outcome)
	}

	result, err := f.session.FinishAnimation(context.Background())
	if err != nil {
		t.Fatalf("finish animation: %v", err)
	}
	if result.Decision.Kind != model.DecisionPass || result.Decision.CandidateID != "c1" {
		t.Fatalf("unexpected decision: %+v", result.Decision)
	}
	if current, _ := f.session.CurrentCard(); current.ID != "c2" {
		t.Fatal("deck did not advance after animation")
	}
}

func TestShortDragKeepsCard(t *testing.T) {
	f := newFixture(t, card("c1"))

	if err := f.session.DragStart(); err != nil {
		t.Fatalf("drag start: %v", err)
	}
	if _, err := f.session.DragMove(30, 0); err != nil {
		t.Fatalf("drag move: %v", err)
	}
	outcome, err := f.session.DragEnd()
	if err != nil {
		t.Fatalf("drag end: %v", err)
	}
	if outcome.Decided {
		t.Fatalf("sub-threshold drag must not decide: %+v", outcome)
	}
	if current, ok := f.session.CurrentCard(); !ok || current.ID != "c1" {
		t.Fatal("card must survive a spring back")
	}
	if len(f.resolver.resolved) != 0 {
		t.Fatal("spring back must not record a decision")
	}
}

func TestLastCardEmitsQueueExhausted(t *testing.T) {
	f := newFixture(t, card("c1"))

	if _, err := f.session.Swipe(context.Background(), "c1", model.DecisionPass); err != nil {
		t.Fatalf("swipe: %v", err)
	}
	if f.sink.queueExhausted != 1 {
		t.Fatalf("expected queue exhausted event, got %d", f.sink.queueExhausted)
	}
	if _, ok := f.session.CurrentCard(); ok {
		t.Fatal("deck must be empty")
	}
}

func TestApplyFiltersRebuildsDeck(t *testing.T) {
	f := newFixture(t, card("c1"))
	f.source.pool = []model.Candidate{card("n1"), card("n2")}

	criteria := model.FilterCriteria{
		MaxDistanceKM:    25,
		AgeRange:         model.AgeRange{Min: 21, Max: 30},
		GenderPreference: model.GenderAny,
	}
	if err := f.session.ApplyFilters(context.Background(), criteria); err != nil {
		t.Fatalf("apply filters: %v", err)
	}
	if current, _ := f.session.CurrentCard(); current.ID != "n1" {
		t.Fatalf("deck not rebuilt, current is %s", current.ID)
	}
	if got := f.session.Criteria(); got.MaxDistanceKM != 25 {
		t.Fatalf("criteria not applied: %+v", got)
	}
}

func TestApplyFiltersFetchFailureKeepsDeck(t *testing.T) {
	f := newFixture(t, card("c1"))
	f.source.refreshErr = errors.New("connection refused")

	err := f.session.ApplyFilters(context.Background(), model.FilterCriteria{
		MaxDistanceKM:    25,
		AgeRange:         model.AgeRange{Min: 21, Max: 30},
		GenderPreference: model.GenderAny,
	})
	if err == nil {
		t.Fatal("expected fetch failure to surface")
	}
	if current, ok := f.session.CurrentCard(); !ok || current.ID != "c1" {
		t.Fatal("failed fetch must keep the current deck")
	}
}

func TestApplyFiltersStaleFetchIsSilent(t *testing.T) {
	f := newFixture(t, card("c1"))
	f.source.stale = true

	err := f.session.ApplyFilters(context.Background(), model.FilterCriteria{
		MaxDistanceKM:    25,
		AgeRange:         model.AgeRange{Min: 21, Max: 30},
		GenderPreference: model.GenderAny,
	})
	if err != nil {
		t.Fatalf("stale fetch must be silent, got %v", err)
	}
	if current, ok := f.session.CurrentCard(); !ok || current.ID != "c1" {
		t.Fatal("stale fetch must not touch the deck")
	}
}

func TestRefillOnlyWhenExhausted(t *testing.T) {
	f := newFixture(t, card("c1"))
	startRefreshes := f.source.refreshes

	if err := f.session.Refill(context.Background()); err != nil {
		t.Fatalf("refill with cards left: %v", err)
	}
	if f.source.refreshes != startRefreshes {
		t.Fatal("refill must be a no-op while cards remain")
	}

	if _, err := f.session.Swipe(context.Background(), "c1", model.DecisionPass); err != nil {
		t.Fatalf("swipe: %v", err)
	}
	f.source.pool = []model.Candidate{card("n1")}
	if err := f.session.Refill(context.Background()); err != nil {
		t.Fatalf("refill: %v", err)
	}
	if current, ok := f.session.CurrentCard(); !ok || current.ID != "n1" {
		t.Fatal("refill did not rebuild the deck")
	}
}

func TestDragStartOnEmptyDeck(t *testing.T) {
	f := newFixture(t)

	if err := f.session.DragStart(); !errors.Is(err, ErrNoCard) {
		t.Fatalf("expected ErrNoCard, got %v", err)
	}
}

func TestFinishAnimationWithoutCommit(t *testing.T) {
	f := newFixture(t, card("c1"))

	if _, err := f.session.FinishAnimation(context.Background()); !errors.Is(err, gesture.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}
