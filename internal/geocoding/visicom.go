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

// VisicomBaseURL -- Visicom API base URL.
const VisicomBaseURL = "https://api.visicom.ua/data-api/5.0/en/geocode.json"

// VisicomProvider implements geocoding using Visicom API.
type VisicomProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Visicom API
	apiKey  string        // API key with geocoding access
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// Common errors for Visicom provider.
var (
	ErrVisicomEmptyResponse = errors.New("visicom API returned empty response")
	ErrVisicomEmptyAddress  = errors.New("visicom provider got empty address")
	ErrVisicomInvalidCoords = errors.New("visicom API returned invalid coordinates")
	ErrVisicomUnathorized   = errors.New("visicom API unathorized (invalid API key)")
)

// visicomFeature is a single GeoJSON feature of the Visicom response.
type visicomFeature struct {
	Type       string `json:"type"`
	Properties struct {
		Name       string `json:"name"`
		Categories string `json:"categories"`
		Street     string `json:"street"`
		Settlement string `json:"settlement"`
		Country    string `json:"country"`
	} `json:"properties"`
	Centroid struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geo_centroid"`
}

// visicomResponse is either a FeatureCollection or, for limit=1, a bare Feature.
type visicomResponse struct {
	visicomFeature

	Features []visicomFeature `json:"features"`
}

// NewVisicomProvider creates a new Visicom geocoding provider.
func NewVisicomProvider(apiKey string, rateLimit int, log *slog.Logger) *VisicomProvider {
	const timeout = 10

	return NewVisicomProviderWithClient(
		&http.Client{Timeout: timeout * time.Second},
		apiKey,
		rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		log,
	)
}

// NewVisicomProviderWithClient allows injecting custom HTTP client.
func NewVisicomProviderWithClient(
	client HTTPClient,
	apiKey string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *VisicomProvider {
	return &VisicomProvider{
		client:  client,
		baseURL: VisicomBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: limiter,
	}
}

// Search converts query into places using Visicom API.
func (vp *VisicomProvider) Search(ctx context.Context, query string, limit int) ([]models.Place, error) {
	if err := vp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	vp.log.DebugContext(ctx, "Geocoding using Visicom", "query", query)

	if query == "" {
		return nil, ErrVisicomEmptyAddress
	}

	reqURL, err := url.Parse(vp.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	params := reqURL.Query()
	params.Set("text", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("key", vp.apiKey)
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := vp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrVisicomUnathorized
	default:
		body, _ := io.ReadAll(resp.Body)
		vp.log.ErrorContext(ctx, "Visicom API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("visicom API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	vp.log.DebugContext(ctx, "Visicom raw response", "body", string(body))

	var result visicomResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode visicom response: %w", err)
	}

	features := result.Features
	if result.Type == "Feature" {
		features = []visicomFeature{result.visicomFeature}
	}
	if len(features) == 0 {
		return nil, ErrVisicomEmptyResponse
	}

	places := make([]models.Place, 0, len(features))
	for _, feature := range features {
		place, errConv := feature.toPlace()
		if errConv != nil {
			return nil, errConv
		}
		places = append(places, place)
	}

	vp.log.InfoContext(ctx, "Visicom found results", "query", query, "count", len(places))

	return places, nil
}

func (f visicomFeature) toPlace() (models.Place, error) {
	const coordsListLength = 2

	coords := f.Centroid.Coordinates
	if len(coords) != coordsListLength {
		return models.Place{}, ErrVisicomInvalidCoords
	}

	labels := []string{}
	for _, part := range []string{f.Properties.Name, f.Properties.Street, f.Properties.Settlement, f.Properties.Country} {
		if part != "" {
			labels = append(labels, part)
		}
	}

	return models.Place{
		DisplayName: strings.Join(labels, ", "),
		Latitude:    coords[1],
		Longitude:   coords[0],
		Type:        f.Properties.Categories,
	}, nil
}
