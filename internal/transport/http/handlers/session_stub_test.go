package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avolkau/sparkmatch/internal/domain/model"
	"github.com/avolkau/sparkmatch/internal/services/browse"
	quotasvc "github.com/avolkau/sparkmatch/internal/services/quota"
)

type fakeSource struct {
	criteria   model.FilterCriteria
	generation uint64
	pool       []model.Candidate
	refreshErr error
}

func (s *fakeSource) SetCriteria(criteria model.FilterCriteria) (uint64, error) {
	if criteria.AgeRange.Min < 18 {
		return 0, errors.New("age floor is 18")
	}
	s.criteria = criteria
	s.generation++
	return s.generation, nil
}

func (s *fakeSource) Criteria() model.FilterCriteria {
	return s.criteria
}

func (s *fakeSource) Refresh(_ context.Context, _ string) ([]model.Candidate, uint64, error) {
	if s.refreshErr != nil {
		return nil, s.generation, s.refreshErr
	}
	return append([]model.Candidate(nil), s.pool...), s.generation, nil
}

type fakeQuota struct {
	remaining int
	nextReset time.Time
}

func (q *fakeQuota) Load(_ context.Context) error {
	return nil
}

func (q *fakeQuota) Snapshot() (model.QuotaState, time.Time) {
	return model.QuotaState{Remaining: q.remaining}, q.nextReset
}

func (q *fakeQuota) Consume(_ context.Context) (int, error) {
	if q.remaining <= 0 {
		return 0, quotasvc.ErrQuotaExhausted
	}
	q.remaining--
	return q.remaining, nil
}

func (q *fakeQuota) Refund(_ context.Context) error {
	q.remaining++
	return nil
}

type fakeResolver struct {
	matched bool
	err     error
}

func (r *fakeResolver) Resolve(_ context.Context, actorID, candidateID string, kind model.DecisionKind) (model.MatchEvent, bool, error) {
	if r.err != nil {
		return model.MatchEvent{}, false, r.err
	}
	if !kind.IsPositive() || !r.matched {
		return model.MatchEvent{}, false, nil
	}
	return model.MatchEvent{
		MatchID:     "match-77",
		UserID:      actorID,
		CandidateID: candidateID,
		CreatedAt:   time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
	}, true, nil
}

type sessionFixture struct {
	source   *fakeSource
	quota    *fakeQuota
	resolver *fakeResolver
	session  *browse.Session
}

// singleSessionProvider always serves the same session, or fails when
// err is set.
type singleSessionProvider struct {
	session *browse.Session
	err     error
}

func (p *singleSessionProvider) Session(_ context.Context, _ string) (*browse.Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

func newSessionFixture(t *testing.T, pool ...model.Candidate) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		source:   &fakeSource{pool: pool},
		quota:    &fakeQuota{remaining: 5, nextReset: time.Now().Add(6 * time.Hour)},
		resolver: &fakeResolver{},
	}
	session, err := browse.NewSession(browse.Dependencies{
		UserID:    "user-1",
		Discovery: f.source,
		Quota:     f.quota,
		Resolver:  f.resolver,
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

func (f *sessionFixture) provider() *singleSessionProvider {
	return &singleSessionProvider{session: f.session}
}

func browsableCard(id string) model.Candidate {
	return model.Candidate{
		ID:               id,
		DisplayName:      "Dana",
		Age:              27,
		Gender:           "female",
		ProfileCompleted: true,
		Verified:         true,
		PhotoKey:         "users/" + id + "/photo.jpg",
		DistanceKM:       4.2,
	}
}
