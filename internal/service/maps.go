package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/compass/internal/geocoding"
	"github.com/UnknownOlympus/compass/internal/metrics"
	"github.com/UnknownOlympus/compass/internal/models"
	"github.com/UnknownOlympus/compass/internal/repository"
	"github.com/UnknownOlympus/compass/internal/routing"
)

const (
	operationGeocode = "geocode"
	operationRoute   = "route"
)

// Options holds the tunables of the maps service.
type Options struct {
	ProviderName  string        // Geocoding provider name for metrics labeling
	RouterName    string        // Routing backend name for metrics labeling
	CacheTTL      time.Duration // Maximum age of a cached geocode result
	PruneInterval time.Duration // Interval between cache prune passes
}

// MapsService answers geocode and route requests. Geocode results are read
// through the place cache when one is configured.
type MapsService struct {
	log      *slog.Logger
	cache    repository.Interface // Place cache, nil when running without a database
	provider geocoding.Provider
	router   routing.Router
	metrics  *metrics.Metrics
	opts     Options
}

// NewMapsService creates a new instance of MapsService. cache may be nil.
func NewMapsService(
	log *slog.Logger,
	cache repository.Interface,
	provider geocoding.Provider,
	router routing.Router,
	metrics *metrics.Metrics,
	opts Options,
) *MapsService {
	return &MapsService{
		log:      log,
		cache:    cache,
		provider: provider,
		router:   router,
		metrics:  metrics,
		opts:     opts,
	}
}

// Geocode resolves query into at most limit places. Results is never nil.
func (ms *MapsService) Geocode(ctx context.Context, query string, limit int) (*models.PlaceResult, error) {
	if places, ok := ms.fromCache(ctx, query, limit); ok {
		return &models.PlaceResult{Query: query, Results: places}, nil
	}

	startTime := time.Now()
	places, err := ms.provider.Search(ctx, query, limit)
	ms.metrics.UpstreamSeconds.WithLabelValues(ms.opts.ProviderName, operationGeocode).
		Observe(time.Since(startTime).Seconds())

	if err != nil && !geocoding.IsNoResult(err) {
		ms.metrics.UpstreamErrors.WithLabelValues(ms.opts.ProviderName, operationGeocode).Inc()
		ms.log.ErrorContext(ctx, "Failed to geocode", "query", query, "error", err)
		return nil, fmt.Errorf("failed to geocode %q: %w", query, err)
	}
	if places == nil {
		places = []models.Place{}
	}

	if ms.cache != nil {
		if err = ms.cache.SavePlaces(ctx, query, limit, places); err != nil {
			ms.log.WarnContext(ctx, "Failed to cache places", "query", query, "error", err)
		}
	}

	return &models.PlaceResult{Query: query, Results: places}, nil
}

func (ms *MapsService) fromCache(ctx context.Context, query string, limit int) ([]models.Place, bool) {
	if ms.cache == nil {
		return nil, false
	}

	places, found, err := ms.cache.FindPlaces(ctx, query, limit, ms.opts.CacheTTL)
	switch {
	case err != nil:
		ms.metrics.CacheLookups.WithLabelValues("error").Inc()
		ms.log.WarnContext(ctx, "Place cache lookup failed", "query", query, "error", err)
		return nil, false
	case !found:
		ms.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	ms.metrics.CacheLookups.WithLabelValues("hit").Inc()
	if places == nil {
		places = []models.Place{}
	}

	return places, true
}

// Route computes a route for query. An empty profile means walking.
func (ms *MapsService) Route(ctx context.Context, query models.RouteQuery) (*models.RouteResult, error) {
	if query.Profile == "" {
		query.Profile = models.ProfileFoot
	}

	startTime := time.Now()
	route, err := ms.router.Route(ctx, query)
	ms.metrics.UpstreamSeconds.WithLabelValues(ms.opts.RouterName, operationRoute).
		Observe(time.Since(startTime).Seconds())

	if err != nil {
		if !errors.Is(err, routing.ErrNoRoute) && !errors.Is(err, routing.ErrUnsupportedProfile) {
			ms.metrics.UpstreamErrors.WithLabelValues(ms.opts.RouterName, operationRoute).Inc()
			ms.log.ErrorContext(ctx, "Failed to route", "profile", query.Profile, "error", err)
		}
		return nil, fmt.Errorf("failed to route: %w", err)
	}

	return route, nil
}

// Run periodically removes expired place cache entries until ctx is cancelled.
// It returns immediately when there is no cache or pruning is disabled.
func (ms *MapsService) Run(ctx context.Context) {
	if ms.cache == nil || ms.opts.PruneInterval <= 0 {
		ms.log.InfoContext(ctx, "Place cache pruning disabled.")
		return
	}

	ticker := time.NewTicker(ms.opts.PruneInterval)
	defer ticker.Stop()

	ms.log.InfoContext(ctx, "Place cache pruner started...", "interval", ms.opts.PruneInterval)

	for {
		select {
		case <-ctx.Done():
			ms.log.InfoContext(ctx, "Place cache pruner stopped.")
			return
		case <-ticker.C:
			ms.prune(ctx)
		}
	}
}

func (ms *MapsService) prune(ctx context.Context) {
	removed, err := ms.cache.PruneExpired(ctx, time.Now().Add(-ms.opts.CacheTTL))
	if err != nil {
		ms.log.ErrorContext(ctx, "Failed to prune place cache", "error", err)
		return
	}

	ms.metrics.CachePruned.Add(float64(removed))
	ms.log.DebugContext(ctx, "Place cache pruned", "removed", removed)
}
