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

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// FetchCandidates loads completed profiles other than the viewer's, bounded
// by the age range and gender preference. Profiles blocked by the viewer,
// or that blocked the viewer, never enter the pool. Distance filtering
// happens in the discovery service since it needs the viewer's coordinates;
// the query only applies the parts the database can index. Fetch order is
// stable (created_at, user_id) so the deck order is reproducible.
func (r *ProfileRepo) FetchCandidates(ctx context.Context, viewerID string, criteria model.FilterCriteria, pageLimit int) ([]model.Candidate, error) {
	if strings.TrimSpace(viewerID) == "" {
		return nil, fmt.Errorf("viewer id is required")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if pageLimit <= 0 {
		pageLimit = 50
	}

	query := `
SELECT user_id, display_name, age, gender, lat, lon, location_hint,
	interests, verified, profile_completed, photo_key, created_at
FROM profiles
WHERE profile_completed = TRUE
  AND user_id <> $1
  AND age >= $2 AND age <= $3
  AND NOT EXISTS (
	SELECT 1
	FROM blocks b
	WHERE (b.actor_user_id = $1 AND b.target_user_id = profiles.user_id)
	   OR (b.actor_user_id = profiles.user_id AND b.target_user_id = $1)
  )
`
	args := []any{viewerID, criteria.AgeRange.Min, criteria.AgeRange.Max}
	if criteria.GenderPreference != "" && criteria.GenderPreference != model.GenderAny {
		query += fmt.Sprintf("  AND gender = $%d\n", len(args)+1)
		args = append(args, criteria.GenderPreference)
	}
	query += fmt.Sprintf("ORDER BY created_at, user_id\nLIMIT $%d", len(args)+1)
	args = append(args, pageLimit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]model.Candidate, 0, pageLimit)
	for rows.Next() {
		var (
			c        model.Candidate
			lat, lon *float64
		)
		if err := rows.Scan(
			&c.ID,
			&c.DisplayName,
			&c.Age,
			&c.Gender,
			&lat,
			&lon,
			&c.LocationHint,
			&c.Interests,
			&c.Verified,
			&c.ProfileCompleted,
			&c.PhotoKey,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		if lat != nil && lon != nil {
			c.Location = &model.Coordinates{Latitude: *lat, Longitude: *lon}
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate rows: %w", err)
	}

	return candidates, nil
}

func (r *ProfileRepo) ViewerCoordinates(ctx context.Context, viewerID string) (*model.Coordinates, error) {
	if strings.TrimSpace(viewerID) == "" {
		return nil, fmt.Errorf("viewer id is required")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	var lat, lon *float64
	err := r.pool.QueryRow(ctx, `
SELECT lat, lon
FROM profiles
WHERE user_id = $1
LIMIT 1
`, viewerID).Scan(&lat, &lon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("load viewer coordinates: %w", err)
	}

	if lat == nil || lon == nil {
		return nil, nil
	}
	return &model.Coordinates{Latitude: *lat, Longitude: *lon}, nil
}
