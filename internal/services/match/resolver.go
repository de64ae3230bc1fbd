package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/avolkau/sparkmatch/internal/domain/model"
)

var ErrValidation = errors.New("validation error")

// DecisionStore persists swipe decisions and answers whether the other
// side has already expressed interest.
type DecisionStore interface {
	Record(ctx context.Context, tx pgx.Tx, decision model.Decision) error
	HasReciprocalInterest(ctx context.Context, tx pgx.Tx, userID, candidateID string) (bool, error)
}

// MatchStore creates match rows. Create reports false when the pair is
// already matched.
type MatchStore interface {
	Create(ctx context.Context, tx pgx.Tx, matchID, userID, targetID string, at time.Time) (bool, error)
}

// TxRunner executes fn inside a single database transaction.
type TxRunner func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error

type Dependencies struct {
	Decisions DecisionStore
	Matches   MatchStore
	RunInTx   TxRunner
}

// Resolver turns a committed swipe decision into persistent state. The
// decision write and the reciprocity check share one transaction, so a
// like can never be recorded without its match when the other side has
// already liked back.
type Resolver struct {
	decisions DecisionStore
	matches   MatchStore
	runInTx   TxRunner
	now       func() time.Time
}

func NewResolver(deps Dependencies) (*Resolver, error) {
	if deps.Decisions == nil {
		return nil, fmt.Errorf("decision store is required: %w", ErrValidation)
	}
	if deps.Matches == nil {
		return nil, fmt.Errorf("match store is required: %w", ErrValidation)
	}
	if deps.RunInTx == nil {
		return nil, fmt.Errorf("tx runner is required: %w", ErrValidation)
	}
	return &Resolver{
		decisions: deps.Decisions,
		matches:   deps.Matches,
		runInTx:   deps.RunInTx,
		now:       time.Now,
	}, nil
}

// Resolve records the decision and, for a like or super-like that is
// reciprocated, creates the match. It returns the match event and true
// only when a new match was created by this call.
func (r *Resolver) Resolve(ctx context.Context, actorID, candidateID string, kind model.DecisionKind) (model.MatchEvent, bool, error) {
	if actorID == "" || candidateID == "" {
		return model.MatchEvent{}, false, fmt.Errorf("actor and candidate ids are required: %w", ErrValidation)
	}
	if actorID == candidateID {
		return model.MatchEvent{}, false, fmt.Errorf("cannot swipe on yourself: %w", ErrValidation)
	}
	switch kind {
	case model.DecisionLike, model.DecisionPass, model.DecisionSuperLike:
	default:
		return model.MatchEvent{}, false, fmt.Errorf("unsupported decision kind %q: %w", kind, ErrValidation)
	}

	now := r.now()
	decision := model.Decision{
		ActorID:     actorID,
		CandidateID: candidateID,
		Kind:        kind,
		CreatedAt:   now,
	}

	var (
		event   model.MatchEvent
		matched bool
	)
	err := r.runInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := r.decisions.Record(ctx, tx, decision); err != nil {
			return fmt.Errorf("record decision: %w", err)
		}
		if !kind.IsPositive() {
			return nil
		}

		reciprocal, err := r.decisions.HasReciprocalInterest(ctx, tx, actorID, candidateID)
		if err != nil {
			return fmt.Errorf("check reciprocal interest: %w", err)
		}
		if !reciprocal {
			return nil
		}

		matchID := uuid.NewString()
		created, err := r.matches.Create(ctx, tx, matchID, actorID, candidateID, now)
		if err != nil {
			return fmt.Errorf("create match: %w", err)
		}
		if !created {
			return nil
		}

		event = model.MatchEvent{
			MatchID:     matchID,
			UserID:      actorID,
			CandidateID: candidateID,
			CreatedAt:   now,
		}
		matched = true
		return nil
	})
	if err != nil {
		return model.MatchEvent{}, false, err
	}
	return event, matched, nil
}
