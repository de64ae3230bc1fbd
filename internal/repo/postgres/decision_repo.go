package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avolkau/sparkmatch/internal/domain/model"
)

type DecisionRepo struct {
	pool *pgxpool.Pool
}

func NewDecisionRepo(pool *pgxpool.Pool) *DecisionRepo {
	return &DecisionRepo{pool: pool}
}

// Record stores one like/pass/super-like. A repeated decision for the same
// pair overwrites the previous one; the (actor, candidate) pair is the
// primary key, so a single action can never be charged twice.
func (r *DecisionRepo) Record(ctx context.Context, tx pgx.Tx, decision model.Decision) error {
	if strings.TrimSpace(decision.ActorID) == "" || strings.TrimSpace(decision.CandidateID) == "" {
		return fmt.Errorf("invalid decision payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO decisions (
	actor_id,
	candidate_id,
	kind,
	created_at
) VALUES ($1, $2, $3, $4)
ON CONFLICT (actor_id, candidate_id) DO UPDATE SET
	kind = EXCLUDED.kind,
	created_at = EXCLUDED.created_at
`, decision.ActorID, decision.CandidateID, string(decision.Kind), decision.CreatedAt); err != nil {
		return fmt.Errorf("record decision: %w", err)
	}

	return nil
}

// HasReciprocalInterest reports whether the candidate has a persisted like
// or super-like toward the user.
func (r *DecisionRepo) HasReciprocalInterest(ctx context.Context, tx pgx.Tx, userID, candidateID string) (bool, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(candidateID) == "" {
		return false, fmt.Errorf("invalid reciprocity lookup payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var one int
	err := tx.QueryRow(ctx, `
SELECT 1
FROM decisions
WHERE actor_id = $1 AND candidate_id = $2 AND kind IN ('LIKE', 'SUPERLIKE')
LIMIT 1
`, candidateID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup reciprocal interest: %w", err)
	}

	return true, nil
}

type IncomingLikeRecord struct {
	ActorID   string
	Kind      string
	CreatedAt time.Time
}

func (r *DecisionRepo) ListIncomingLikes(ctx context.Context, userID string, limit int) ([]IncomingLikeRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
SELECT actor_id, kind, created_at
FROM decisions
WHERE candidate_id = $1 AND kind IN ('LIKE', 'SUPERLIKE')
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list incoming likes: %w", err)
	}
	defer rows.Close()

	records := make([]IncomingLikeRecord, 0, limit)
	for rows.Next() {
		var rec IncomingLikeRecord
		if err := rows.Scan(&rec.ActorID, &rec.Kind, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan incoming like row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incoming like rows: %w", err)
	}

	return records, nil
}
