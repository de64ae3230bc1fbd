package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchRepo struct {
	pool *pgxpool.Pool
}

type ActiveMatchRecord struct {
	ID           string
	TargetUserID string
	DisplayName  string
	Age          int
	PhotoKey     string
	CreatedAt    time.Time
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

// Create inserts the match row for an ordered user pair. Returns false when
// the pair is already matched.
func (r *MatchRepo) Create(ctx context.Context, tx pgx.Tx, matchID, userID, targetID string, at time.Time) (bool, error) {
	if strings.TrimSpace(matchID) == "" || strings.TrimSpace(userID) == "" || strings.TrimSpace(targetID) == "" {
		return false, fmt.Errorf("invalid match payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	userA := userID
	userB := targetID
	if userA > userB {
		userA, userB = userB, userA
	}

	var id string
	err := tx.QueryRow(ctx, `
INSERT INTO matches (
	id,
	user_a_id,
	user_b_id,
	status,
	created_at
) VALUES ($1, $2, $3, 'active', $4)
ON CONFLICT (user_a_id, user_b_id) DO NOTHING
RETURNING id
`, matchID, userA, userB, at).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("create match: %w", err)
	}

	return id != "", nil
}

// Unmatch retires the match by id, provided the caller is one of its two
// sides. Returns false when no active match was touched.
func (r *MatchRepo) Unmatch(ctx context.Context, tx pgx.Tx, matchID, userID string) (bool, error) {
	if strings.TrimSpace(matchID) == "" || strings.TrimSpace(userID) == "" {
		return false, fmt.Errorf("invalid unmatch payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	tag, err := tx.Exec(ctx, `
UPDATE matches
SET status = 'unmatched'
WHERE id = $1
  AND (user_a_id = $2 OR user_b_id = $2)
  AND status = 'active'
`, matchID, userID)
	if err != nil {
		return false, fmt.Errorf("unmatch: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeactivateByUsers retires the active match between the pair, if any.
func (r *MatchRepo) DeactivateByUsers(ctx context.Context, tx pgx.Tx, userID, targetID string) (bool, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(targetID) == "" {
		return false, fmt.Errorf("invalid match pair payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	userA := userID
	userB := targetID
	if userA > userB {
		userA, userB = userB, userA
	}

	tag, err := tx.Exec(ctx, `
UPDATE matches
SET status = 'unmatched'
WHERE user_a_id = $1
  AND user_b_id = $2
  AND status = 'active'
`, userA, userB)
	if err != nil {
		return false, fmt.Errorf("deactivate match: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *MatchRepo) ListActiveForUser(ctx context.Context, userID string, limit int) ([]ActiveMatchRecord, error) {
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
SELECT m.id,
	CASE WHEN m.user_a_id = $1 THEN m.user_b_id ELSE m.user_a_id END AS target_user_id,
	p.display_name,
	p.age,
	p.photo_key,
	m.created_at
FROM matches m
JOIN profiles p
	ON p.user_id = CASE WHEN m.user_a_id = $1 THEN m.user_b_id ELSE m.user_a_id END
WHERE (m.user_a_id = $1 OR m.user_b_id = $1)
  AND m.status = 'active'
ORDER BY m.created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list active matches: %w", err)
	}
	defer rows.Close()

	records := make([]ActiveMatchRecord, 0, limit)
	for rows.Next() {
		var rec ActiveMatchRecord
		if err := rows.Scan(&rec.ID, &rec.TargetUserID, &rec.DisplayName, &rec.Age, &rec.PhotoKey, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match rows: %w", err)
	}

	return records, nil
}
