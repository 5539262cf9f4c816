package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UnknownOlympus/compass/internal/models"
	"github.com/jackc/pgx/v5"
)

// EnsureSchema creates the place cache table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS place_cache (
			query        TEXT        NOT NULL,
			result_limit INTEGER     NOT NULL,
			places       JSONB       NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (query, result_limit)
		);
	`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create place cache table: %w", err)
	}

	return nil
}

// FindPlaces returns cached places for query and limit that are younger than maxAge.
// The boolean result is false on a cache miss.
func (r *Repository) FindPlaces(
	ctx context.Context,
	query string,
	limit int,
	maxAge time.Duration,
) ([]models.Place, bool, error) {
	sql := `
		SELECT places
		FROM place_cache
		WHERE
			query = $1
			AND result_limit = $2
			AND created_at > $3;
	`

	var raw []byte
	err := r.db.QueryRow(ctx, sql, cacheKey(query), limit, time.Now().Add(-maxAge)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cached places: %w", err)
	}

	var places []models.Place
	if err = json.Unmarshal(raw, &places); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached places: %w", err)
	}

	r.log.DebugContext(ctx, "Places served from cache", "query", query, "limit", limit, "count", len(places))

	return places, true, nil
}

// SavePlaces stores places for query and limit, replacing an older entry.
func (r *Repository) SavePlaces(ctx context.Context, query string, limit int, places []models.Place) error {
	sql := `
		INSERT INTO place_cache (query, result_limit, places, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (query, result_limit)
		DO UPDATE SET places = EXCLUDED.places, created_at = EXCLUDED.created_at;
	`

	payload, err := json.Marshal(places)
	if err != nil {
		return fmt.Errorf("failed to encode places: %w", err)
	}

	if _, err = r.db.Exec(ctx, sql, cacheKey(query), limit, payload); err != nil {
		return fmt.Errorf("failed to save cached places: %w", err)
	}

	return nil
}

// PruneExpired deletes cache entries created before the given time and
// returns the number of removed rows.
func (r *Repository) PruneExpired(ctx context.Context, before time.Time) (int64, error) {
	sql := `
		DELETE FROM place_cache
		WHERE created_at < $1;
	`

	tag, err := r.db.Exec(ctx, sql, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune place cache: %w", err)
	}

	return tag.RowsAffected(), nil
}

// cacheKey normalises a query so that "Kuala Lumpur " and "kuala lumpur" share an entry.
func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
