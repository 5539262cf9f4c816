package routing

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// RouterType represents the type of routing backend.
type RouterType string

const (
	// RouterTypeOSRM represents an OSRM HTTP server (public demo or self-hosted).
	RouterTypeOSRM RouterType = "osrm"
	// RouterTypeGoogle represents the Google Maps Directions API.
	RouterTypeGoogle RouterType = "google"
)

// RouterConfig holds configuration for creating a router.
type RouterConfig struct {
	Type      RouterType   // Type of router to create
	BaseURL   string       // Server root (used by OSRM router)
	APIKey    string       // API key (used by Google router)
	RateLimit int          // Requests per second (used by Google router)
	Logger    *slog.Logger // Logger for the router
}

// NewRouter creates a router based on the provided configuration.
// An empty type means OSRM.
func NewRouter(config RouterConfig) (Router, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	switch config.Type {
	case RouterTypeOSRM, "":
		return NewOSRMRouter(config.BaseURL, config.Logger), nil
	case RouterTypeGoogle:
		return newGoogleRouter(config)
	default:
		return nil, fmt.Errorf("unsupported router type: %s", config.Type)
	}
}

func newGoogleRouter(config RouterConfig) (Router, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google router")
	}

	clientOpts := []maps.ClientOption{maps.WithAPIKey(config.APIKey)}
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleRouter(client, config.Logger), nil
}
