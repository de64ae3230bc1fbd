package matches

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	pgrepo "github.com/avolkau/sparkmatch/internal/repo/postgres"
)

var ErrValidation = errors.New("validation error")

// MatchStore retires match rows.
type MatchStore interface {
	Unmatch(ctx context.Context, tx pgx.Tx, matchID, userID string) (bool, error)
	DeactivateByUsers(ctx context.Context, tx pgx.Tx, userID, targetID string) (bool, error)
}

// BlockStore persists user blocks.
type BlockStore interface {
	Upsert(ctx context.Context, tx pgx.Tx, actorID, targetID, reason string) error
	ListForUser(ctx context.Context, userID string, limit int) ([]pgrepo.BlockedUserRecord, error)
}

// TxRunner executes fn inside a single database transaction.
type TxRunner func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error

type Dependencies struct {
	Matches MatchStore
	Blocks  BlockStore
	RunInTx TxRunner
}

// Service owns the destructive side of the matches surface: unmatching
// and blocking. Listings go straight to the repos; these two mutate and
// need a transaction.
type Service struct {
	matches MatchStore
	blocks  BlockStore
	runInTx TxRunner
}

func NewService(deps Dependencies) (*Service, error) {
	if deps.Matches == nil {
		return nil, fmt.Errorf("match store is required: %w", ErrValidation)
	}
	if deps.Blocks == nil {
		return nil, fmt.Errorf("block store is required: %w", ErrValidation)
	}
	if deps.RunInTx == nil {
		return nil, fmt.Errorf("tx runner is required: %w", ErrValidation)
	}
	return &Service{
		matches: deps.Matches,
		blocks:  deps.Blocks,
		runInTx: deps.RunInTx,
	}, nil
}

// Unmatch retires the match if the caller is one of its sides. Returns
// false when there was no active match to retire.
func (s *Service) Unmatch(ctx context.Context, userID, matchID string) (bool, error) {
	if userID == "" || matchID == "" {
		return false, fmt.Errorf("user and match ids are required: %w", ErrValidation)
	}

	var removed bool
	err := s.runInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		ok, err := s.matches.Unmatch(ctx, tx, matchID, userID)
		if err != nil {
			return err
		}
		removed = ok
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("unmatch: %w", err)
	}
	return removed, nil
}

// Block records the block and retires any active match between the pair
// in the same transaction, so a blocked user never lingers in the
// caller's match list.
func (s *Service) Block(ctx context.Context, userID, targetID, reason string) error {
	if userID == "" || targetID == "" {
		return fmt.Errorf("user and target ids are required: %w", ErrValidation)
	}
	if userID == targetID {
		return fmt.Errorf("cannot block yourself: %w", ErrValidation)
	}

	err := s.runInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.blocks.Upsert(ctx, tx, userID, targetID, reason); err != nil {
			return err
		}
		_, err := s.matches.DeactivateByUsers(ctx, tx, userID, targetID)
		return err
	})
	if err != nil {
		return fmt.Errorf("block user: %w", err)
	}
	return nil
}

// Blocked lists the users the caller has blocked, newest first.
func (s *Service) Blocked(ctx context.Context, userID string, limit int) ([]pgrepo.BlockedUserRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", ErrValidation)
	}
	return s.blocks.ListForUser(ctx, userID, limit)
}
