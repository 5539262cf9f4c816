package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/compass/internal/models"
)

type Repository struct {
	db  Database
	log *slog.Logger
}

// Interface is the geocode result cache used by the maps service.
type Interface interface {
	FindPlaces(ctx context.Context, query string, limit int, maxAge time.Duration) ([]models.Place, bool, error)
	SavePlaces(ctx context.Context, query string, limit int, places []models.Place) error
	PruneExpired(ctx context.Context, before time.Time) (int64, error)
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
