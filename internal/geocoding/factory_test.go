package geocoding_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/compass/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	logger := slog.Default()

	tests := []struct {
		name     string
		config   geocoding.ProviderConfig
		wantType any
		wantErr  error
	}{
		{
			name:     "google with key and rate limit",
			config:   geocoding.ProviderConfig{Type: geocoding.ProviderTypeGoogle, APIKey: "test-api-key", RateLimit: 50},
			wantType: &geocoding.GoogleProvider{},
		},
		{
			name:     "google without rate limit",
			config:   geocoding.ProviderConfig{Type: geocoding.ProviderTypeGoogle, APIKey: "test-api-key"},
			wantType: &geocoding.GoogleProvider{},
		},
		{
			name:    "google without key",
			config:  geocoding.ProviderConfig{Type: geocoding.ProviderTypeGoogle, RateLimit: 10},
			wantErr: geocoding.ErrAPIKeyRequired,
		},
		{
			name:     "public nominatim",
			config:   geocoding.ProviderConfig{Type: geocoding.ProviderTypeNominatim},
			wantType: &geocoding.NominatimProvider{},
		},
		{
			name: "self-hosted nominatim",
			config: geocoding.ProviderConfig{
				Type:      geocoding.ProviderTypeNominatim,
				BaseURL:   "http://nominatim.internal:8080/search",
				UserAgent: "compass-test/0.1 (ops@example.com)",
				RateLimit: 20,
			},
			wantType: &geocoding.NominatimProvider{},
		},
		{
			name:     "empty type defaults to nominatim",
			config:   geocoding.ProviderConfig{},
			wantType: &geocoding.NominatimProvider{},
		},
		{
			name:     "visicom with rate limit",
			config:   geocoding.ProviderConfig{Type: geocoding.ProviderTypeVisicom, APIKey: "test-api-key", RateLimit: 5},
			wantType: &geocoding.VisicomProvider{},
		},
		{
			name:     "visicom with default rate limit",
			config:   geocoding.ProviderConfig{Type: geocoding.ProviderTypeVisicom, APIKey: "test-api-key"},
			wantType: &geocoding.VisicomProvider{},
		},
		{
			name:    "visicom without key",
			config:  geocoding.ProviderConfig{Type: geocoding.ProviderTypeVisicom},
			wantErr: geocoding.ErrAPIKeyRequired,
		},
		{
			name:    "unsupported type",
			config:  geocoding.ProviderConfig{Type: geocoding.ProviderType("mapquest")},
			wantErr: geocoding.ErrUnsupportedProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Logger = logger

			provider, err := geocoding.NewProvider(tt.config)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, provider)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, provider)
		})
	}
}

func TestNewProvider_NilLogger(t *testing.T) {
	provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:   geocoding.ProviderTypeVisicom,
		APIKey: "test-api-key",
	})

	require.NoError(t, err)
	assert.NotNil(t, provider)
}
