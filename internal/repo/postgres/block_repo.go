package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BlockRepo struct {
	pool *pgxpool.Pool
}

type BlockedUserRecord struct {
	TargetUserID string
	DisplayName  string
	PhotoKey     string
	Reason       string
	CreatedAt    time.Time
}

func NewBlockRepo(pool *pgxpool.Pool) *BlockRepo {
	return &BlockRepo{pool: pool}
}

// Upsert records the block. Blocking someone twice keeps one row and
// refreshes the reason.
func (r *BlockRepo) Upsert(ctx context.Context, tx pgx.Tx, actorID, targetID, reason string) error {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(targetID) == "" {
		return fmt.Errorf("invalid block payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO blocks (
	actor_user_id,
	target_user_id,
	reason,
	created_at
) VALUES ($1, $2, $3, NOW())
ON CONFLICT (actor_user_id, target_user_id) DO UPDATE SET
	reason = EXCLUDED.reason
`, actorID, targetID, reason); err != nil {
		return fmt.Errorf("upsert block: %w", err)
	}

	return nil
}

func (r *BlockRepo) ListForUser(ctx context.Context, userID string, limit int) ([]BlockedUserRecord, error) {
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
SELECT b.target_user_id,
	p.display_name,
	p.photo_key,
	b.reason,
	b.created_at
FROM blocks b
JOIN profiles p ON p.user_id = b.target_user_id
WHERE b.actor_user_id = $1
ORDER BY b.created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list blocked users: %w", err)
	}
	defer rows.Close()

	records := make([]BlockedUserRecord, 0, limit)
	for rows.Next() {
		var rec BlockedUserRecord
		if err := rows.Scan(&rec.TargetUserID, &rec.DisplayName, &rec.PhotoKey, &rec.Reason, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan block row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate block rows: %w", err)
	}

	return records, nil
}
