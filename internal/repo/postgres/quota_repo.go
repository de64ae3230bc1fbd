package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avolkau/sparkmatch/internal/domain/model"
)

type QuotaRepo struct {
	pool *pgxpool.Pool
}

func NewQuotaRepo(pool *pgxpool.Pool) *QuotaRepo {
	return &QuotaRepo{pool: pool}
}

// Load returns the persisted super-like state for the user. A user without
// a row has never super-liked: zero value with nil timestamps.
func (r *QuotaRepo) Load(ctx context.Context, userID string) (model.QuotaState, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return model.QuotaState{}, false, fmt.Errorf("invalid quota lookup payload")
	}
	if r.pool == nil {
		return model.QuotaState{}, false, fmt.Errorf("postgres pool is nil")
	}

	var state model.QuotaState
	err := r.pool.QueryRow(ctx, `
SELECT remaining, last_reset, last_action
FROM superlike_quotas
WHERE user_id = $1
LIMIT 1
`, userID).Scan(&state.Remaining, &state.LastReset, &state.LastAction)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.QuotaState{}, false, nil
		}
		return model.QuotaState{}, false, fmt.Errorf("load superlike quota: %w", err)
	}

	return state, true, nil
}

func (r *QuotaRepo) Persist(ctx context.Context, userID string, state model.QuotaState) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("invalid quota persist payload")
	}
	if state.Remaining < 0 {
		return fmt.Errorf("negative remaining count")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO superlike_quotas (
	user_id,
	remaining,
	last_reset,
	last_action,
	updated_at
) VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (user_id) DO UPDATE SET
	remaining = EXCLUDED.remaining,
	last_reset = EXCLUDED.last_reset,
	last_action = EXCLUDED.last_action,
	updated_at = NOW()
`, userID, state.Remaining, state.LastReset, state.LastAction); err != nil {
		return fmt.Errorf("persist superlike quota: %w", err)
	}

	return nil
}
