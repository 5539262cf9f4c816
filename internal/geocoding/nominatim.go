package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/compass/internal/models"
	"golang.org/x/time/rate"
)

// Defaults for the public Nominatim instance.
const (
	NominatimBaseURL   = "https://nominatim.openstreetmap.org/search"
	NominatimUserAgent = "Compass-Maps-Service/1.0 (https://github.com/UnknownOlympus/compass)"
)

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
type NominatimProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Nominatim search endpoint
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Limiter enforcing the usage policy
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// nominatimResponse represents one JSON match from Nominatim API.
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"` // Latitude as string
	Lon         string `json:"lon"` // Longitude as string
	Type        string `json:"type"`
	AddressType string `json:"addresstype"`
}

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

// NominatimOptions overrides the public endpoint defaults.
type NominatimOptions struct {
	BaseURL   string // BaseURL of a self-hosted instance; empty means NominatimBaseURL.
	UserAgent string // UserAgent with contact info; empty means NominatimUserAgent.
	RateLimit int    // RateLimit in requests per second; zero means 1.
}

// NewNominatimProvider creates a new Nominatim geocoding provider.
func NewNominatimProvider(opts NominatimOptions, log *slog.Logger) *NominatimProvider {
	const timeout = 10
	return NewNominatimProviderWithClient(&http.Client{Timeout: timeout * time.Second}, opts, log)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, opts NominatimOptions, log *slog.Logger) *NominatimProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = NominatimBaseURL
	}
	if opts.UserAgent == "" {
		// User-Agent MUST include valid contact info per Nominatim usage policy:
		// https://operations.osmfoundation.org/policies/nominatim/
		opts.UserAgent = NominatimUserAgent
	}
	limit := rate.Limit(1)
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	} else if opts.RateLimit < 0 {
		limit = rate.Inf
	}

	return &NominatimProvider{
		client:    client,
		baseURL:   opts.BaseURL,
		log:       log,
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: opts.UserAgent,
	}
}

// Search resolves query into places using the Nominatim API.
//
// Uses a progressive fallback strategy for detailed addresses:
// 1. Try the full query
// 2. Try the query without its last comma-separated component (usually a house number)
// 3. Try without the last two components
// 4. Try the first component only (town or city)
//
// Only an empty answer moves on to the next variation; any other error is returned immediately.
func (np *NominatimProvider) Search(ctx context.Context, query string, limit int) ([]models.Place, error) {
	np.log.DebugContext(ctx, "Geocoding using Nominatim", "query", query, "limit", limit)

	variations := generateAddressFallbacks(query)

	for idx, variation := range variations {
		places, err := np.searchSingle(ctx, variation, limit)
		if err == nil {
			if idx > 0 {
				np.log.InfoContext(ctx, "Geocoded using fallback query",
					"original", query,
					"fallback", variation,
					"fallback_level", idx)
			}
			return places, nil
		}

		if !errors.Is(err, ErrNominatimEmptyResponse) {
			return nil, err
		}

		np.log.DebugContext(ctx, "Query variation returned no results, trying fallback",
			"variation", variation,
			"fallback_level", idx)
	}

	np.log.WarnContext(ctx, "All query fallbacks exhausted", "query", query, "variations_tried", len(variations))
	return nil, ErrNominatimEmptyResponse
}

// generateAddressFallbacks creates a list of progressively simpler query variations.
func generateAddressFallbacks(address string) []string {
	if address == "" {
		return []string{""}
	}

	seen := make(map[string]bool)
	variations := []string{}

	addVariation := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			variations = append(variations, v)
		}
	}

	addVariation(address)

	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) > 1 {
		addVariation(strings.Join(parts[:len(parts)-1], ", "))

		const lenComponents = 2
		if len(parts) > lenComponents {
			addVariation(strings.Join(parts[:len(parts)-2], ", "))
		}

		addVariation(parts[0])
	}

	return variations
}

// searchSingle performs a single search request without fallback logic.
func (np *NominatimProvider) searchSingle(ctx context.Context, query string, limit int) ([]models.Place, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	params := reqURL.Query()
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", strconv.Itoa(limit))
	reqURL.RawQuery = params.Encode()

	np.log.DebugContext(ctx, "Nominatim request URL", "url", reqURL.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", np.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	np.log.DebugContext(ctx, "Nominatim raw response", "body", string(body))

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	places := make([]models.Place, 0, len(results))
	for _, result := range results {
		lat, errLat := strconv.ParseFloat(result.Lat, 64)
		if errLat != nil {
			return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, result.Lat)
		}
		lon, errLon := strconv.ParseFloat(result.Lon, 64)
		if errLon != nil {
			return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, result.Lon)
		}

		placeType := result.AddressType
		if placeType == "" {
			placeType = result.Type
		}

		places = append(places, models.Place{
			DisplayName: result.DisplayName,
			Latitude:    lat,
			Longitude:   lon,
			Type:        placeType,
		})
	}

	np.log.DebugContext(ctx, "Nominatim found results", "count", len(places))

	return places, nil
}
