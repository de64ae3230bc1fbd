package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/avolkau/sparkmatch/internal/domain/model"
	"github.com/avolkau/sparkmatch/internal/domain/rules"
	"github.com/avolkau/sparkmatch/internal/geo"
)

var (
	ErrValidation = errors.New("validation error")

	// ErrStaleFilter marks a fetch that completed after its criteria were
	// replaced. Callers discard the result silently.
	ErrStaleFilter = errors.New("stale filter response")
)

type CandidateStore interface {
	FetchCandidates(ctx context.Context, viewerID string, criteria model.FilterCriteria, pageLimit int) ([]model.Candidate, error)
	ViewerCoordinates(ctx context.Context, viewerID string) (*model.Coordinates, error)
}

type Config struct {
	PageLimit     int
	DefaultAgeMin int
	DefaultAgeMax int
	DefaultMaxKM  float64
}

// Service owns the active filter criteria of one browsing session and
// produces the ordered candidate pool for the deck. A generation counter
// fences concurrent refreshes: a fetch that lands after the criteria
// changed must not repopulate a deck built for different criteria.
type Service struct {
	store CandidateStore
	cfg   Config

	mu         sync.Mutex
	generation uint64
	criteria   model.FilterCriteria
}

func NewService(store CandidateStore, cfg Config) *Service {
	if cfg.PageLimit <= 0 || cfg.PageLimit > rules.CandidatePageLimit {
		cfg.PageLimit = rules.CandidatePageLimit
	}
	if cfg.DefaultAgeMin < 18 {
		cfg.DefaultAgeMin = 18
	}
	if cfg.DefaultAgeMax < cfg.DefaultAgeMin {
		cfg.DefaultAgeMax = 35
	}
	if cfg.DefaultMaxKM <= 0 {
		cfg.DefaultMaxKM = 50
	}

	s := &Service{
		store: store,
		cfg:   cfg,
	}
	s.criteria = model.FilterCriteria{
		MaxDistanceKM:    cfg.DefaultMaxKM,
		AgeRange:         model.AgeRange{Min: cfg.DefaultAgeMin, Max: cfg.DefaultAgeMax},
		GenderPreference: model.GenderAny,
	}
	return s
}

// SetCriteria replaces the session criteria wholesale and bumps the filter
// generation, invalidating any in-flight fetch.
func (s *Service) SetCriteria(criteria model.FilterCriteria) (uint64, error) {
	if err := validateCriteria(criteria); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.criteria = criteria
	return s.generation, nil
}

func (s *Service) Criteria() model.FilterCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// Refresh fetches and filters the candidate pool for the current criteria.
// Returns ErrStaleFilter when the criteria changed while the fetch was in
// flight; the caller keeps its previous pool on any error.
func (s *Service) Refresh(ctx context.Context, viewerID string) ([]model.Candidate, uint64, error) {
	if strings.TrimSpace(viewerID) == "" {
		return nil, 0, ErrValidation
	}
	if s.store == nil {
		return nil, 0, fmt.Errorf("candidate store is nil")
	}

	s.mu.Lock()
	gen := s.generation
	criteria := s.criteria
	s.mu.Unlock()

	viewer, err := s.store.ViewerCoordinates(ctx, viewerID)
	if err != nil {
		return nil, gen, fmt.Errorf("load viewer coordinates: %w", err)
	}

	pool, err := s.store.FetchCandidates(ctx, viewerID, criteria, s.cfg.PageLimit)
	if err != nil {
		return nil, gen, fmt.Errorf("fetch candidates: %w", err)
	}

	filtered := FilterPool(viewerID, viewer, pool, criteria)

	s.mu.Lock()
	stale := gen != s.generation
	s.mu.Unlock()
	if stale {
		return nil, gen, ErrStaleFilter
	}

	return filtered, gen, nil
}

// FilterPool narrows an already-fetched pool. Pure: fetch order is
// preserved and no re-sorting by distance or score happens. Candidates
// without coordinates carry the unknown-distance sentinel and are excluded
// unless the max distance itself is the sentinel ("unlimited").
func FilterPool(viewerID string, viewer *model.Coordinates, pool []model.Candidate, criteria model.FilterCriteria) []model.Candidate {
	unlimited := criteria.MaxDistanceKM >= geo.UnknownDistanceKM

	out := make([]model.Candidate, 0, len(pool))
	for _, candidate := range pool {
		if !candidate.ProfileCompleted || candidate.ID == viewerID {
			continue
		}
		if candidate.Age < criteria.AgeRange.Min || candidate.Age > criteria.AgeRange.Max {
			continue
		}
		if criteria.GenderPreference != "" && criteria.GenderPreference != model.GenderAny &&
			candidate.Gender != criteria.GenderPreference {
			continue
		}

		candidate.DistanceKM = geo.DistanceKM(viewer, candidate.Location)
		if !unlimited && candidate.DistanceKM > criteria.MaxDistanceKM {
			continue
		}

		out = append(out, candidate)
	}
	return out
}

func validateCriteria(criteria model.FilterCriteria) error {
	if criteria.MaxDistanceKM <= 0 {
		return fmt.Errorf("max distance must be positive: %w", ErrValidation)
	}
	if criteria.AgeRange.Min < 18 {
		return fmt.Errorf("age range must start at 18 or above: %w", ErrValidation)
	}
	if criteria.AgeRange.Min > criteria.AgeRange.Max {
		return fmt.Errorf("age range min exceeds max: %w", ErrValidation)
	}
	return nil
}
