package geocoding

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// ProviderType names a geocoding backend.
type ProviderType string

const (
	// ProviderTypeGoogle is the Google Maps Geocoding API.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim is OpenStreetMap Nominatim, public or self-hosted.
	ProviderTypeNominatim ProviderType = "nominatim"
	// ProviderTypeVisicom is the Visicom Data API.
	ProviderTypeVisicom ProviderType = "visicom"
)

// visicomDefaultRateLimit applies when no rate limit is configured for Visicom.
const visicomDefaultRateLimit = 5

var (
	ErrUnsupportedProvider = errors.New("unsupported provider type")
	ErrAPIKeyRequired      = errors.New("API key is required")
)

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type      ProviderType // Type of provider to create; empty means nominatim
	APIKey    string       // API key (used by Google and Visicom providers)
	RateLimit int          // Requests per second, zero picks the provider default
	BaseURL   string       // Endpoint override (used by Nominatim provider)
	UserAgent string       // User-Agent with contact info (used by Nominatim provider)
	Logger    *slog.Logger // Logger for the provider
}

var constructors = map[ProviderType]func(ProviderConfig) (Provider, error){
	ProviderTypeGoogle:    newGoogleProvider,
	ProviderTypeNominatim: newNominatimProvider,
	ProviderTypeVisicom:   newVisicomProvider,
}

// NewProvider builds the geocoding provider selected by config.Type.
func NewProvider(config ProviderConfig) (Provider, error) {
	if config.Type == "" {
		config.Type = ProviderTypeNominatim
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	construct, ok := constructors[config.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, config.Type)
	}

	return construct(config)
}

func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w for %s provider", ErrAPIKeyRequired, config.Type)
	}

	opts := []maps.ClientOption{maps.WithAPIKey(config.APIKey)}
	if config.RateLimit > 0 {
		opts = append(opts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}

// Nominatim needs no API key.
func newNominatimProvider(config ProviderConfig) (Provider, error) {
	return NewNominatimProvider(NominatimOptions{
		BaseURL:   config.BaseURL,
		UserAgent: config.UserAgent,
		RateLimit: config.RateLimit,
	}, config.Logger), nil
}

func newVisicomProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w for %s provider", ErrAPIKeyRequired, config.Type)
	}

	if config.RateLimit <= 0 {
		config.RateLimit = visicomDefaultRateLimit
		config.Logger.Warn("Rate limit for Visicom API not set, using default", "value", config.RateLimit)
	}

	return NewVisicomProvider(config.APIKey, config.RateLimit, config.Logger), nil
}
