package discovery

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
)

// Operation names reported to the Recorder.
const (
	OperationGeocode = "geocode"
	OperationRoute   = "route"
)

const (
	geocodePath = "/api/maps/geocode"
	routePath   = "/api/maps/route"
)

// Source tells whether a lookup was answered by the backend or by the synthetic fallback.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder receives one observation per lookup.
type Recorder interface {
	ObserveLookup(operation string, source Source, seconds float64)
}

// Common errors that trigger a fallback. They are reported through the Cause field.
var (
	ErrUnexpectedStatus  = errors.New("maps backend returned unexpected status")
	ErrMalformedPayload  = errors.New("maps backend returned malformed payload")
	ErrInvalidBaseURL    = errors.New("invalid maps backend base URL")
	errMissingGeometry   = errors.New("route geometry has fewer than 2 points")
	errMissingPlaceArray = errors.New("geocode payload has no results array")
)

// Options configures a Client.
type Options struct {
	BaseURL    string        // BaseURL is the maps backend root, e.g. http://localhost:8000.
	HTTPClient HTTPClient    // HTTPClient overrides the default client without timeout.
	Timeout    time.Duration // Timeout bounds a single call; zero leaves it to the caller's context.
	Logger     *slog.Logger  // Logger receives fallback diagnostics.
	Recorder   Recorder      // Recorder is optional.
}

// Client is a facade over the maps backend geocode and route endpoints.
// Its methods never fail: any upstream problem is replaced by a deterministic
// synthetic result tagged with SourceFallback.
// A Client holds only immutable configuration and is safe for concurrent use.
type Client struct {
	client   HTTPClient
	baseURL  *url.URL
	timeout  time.Duration
	log      *slog.Logger
	recorder Recorder
}

// GeocodeResult is a place lookup tagged with its source.
type GeocodeResult struct {
	models.PlaceResult

	Source Source // Source is SourceLive for backend answers.
	Cause  error  // Cause is the failure that produced a fallback, nil otherwise.
}

// Fallback reports whether the result is synthetic.
func (r GeocodeResult) Fallback() bool { return r.Source == SourceFallback }

// RouteLookup is a route lookup tagged with its source.
type RouteLookup struct {
	models.RouteResult

	Source Source // Source is SourceLive for backend answers.
	Cause  error  // Cause is the failure that produced a fallback, nil otherwise.
}

// Fallback reports whether the result is synthetic.
func (r RouteLookup) Fallback() bool { return r.Source == SourceFallback }

// New creates a discovery client bound to opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, opts.BaseURL)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		client:   client,
		baseURL:  base,
		timeout:  opts.Timeout,
		log:      logger,
		recorder: opts.Recorder,
	}, nil
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Geocode resolves query into at most limit places. Query and limit are
// forwarded verbatim. On any failure it returns the fixed placeholder place.
func (c *Client) Geocode(ctx context.Context, query string, limit int) GeocodeResult {
	startTime := time.Now()

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var payload models.PlaceResult
	err := c.fetch(ctx, geocodePath, params, &payload)
	if err == nil && payload.Results == nil {
		err = fmt.Errorf("%w: %w", ErrMalformedPayload, errMissingPlaceArray)
	}

	result := GeocodeResult{PlaceResult: payload, Source: SourceLive}
	if err != nil {
		c.log.WarnContext(ctx, "Geocoding failed, using fallback place", "query", query, "error", err)
		result = GeocodeResult{PlaceResult: FallbackPlaces(query), Source: SourceFallback, Cause: err}
	}

	c.observe(OperationGeocode, result.Source, startTime)
	return result
}

// GetRoute computes a route between origin and destination for profile.
// An empty profile means models.ProfileFoot. On any failure it returns a
// straight three-point route with fixed distance and duration.
func (c *Client) GetRoute(
	ctx context.Context,
	originLat, originLon, destLat, destLon float64,
	profile string,
) RouteLookup {
	startTime := time.Now()

	if profile == "" {
		profile = models.ProfileFoot
	}

	params := url.Values{}
	params.Set("origin_lat", formatDegrees(originLat))
	params.Set("origin_lon", formatDegrees(originLon))
	params.Set("dest_lat", formatDegrees(destLat))
	params.Set("dest_lon", formatDegrees(destLon))
	params.Set("profile", profile)

	var payload models.RouteResult
	err := c.fetch(ctx, routePath, params, &payload)
	const minPoints = 2
	if err == nil && len(payload.Geometry.Coordinates) < minPoints {
		err = fmt.Errorf("%w: %w", ErrMalformedPayload, errMissingGeometry)
	}

	result := RouteLookup{RouteResult: payload, Source: SourceLive}
	if err != nil {
		c.log.WarnContext(ctx, "Routing failed, using fallback route", "profile", profile, "error", err)
		origin := models.Coordinates{Latitude: originLat, Longitude: originLon}
		dest := models.Coordinates{Latitude: destLat, Longitude: destLon}
		result = RouteLookup{RouteResult: FallbackRoute(origin, dest, profile), Source: SourceFallback, Cause: err}
	}

	c.observe(OperationRoute, result.Source, startTime)
	return result
}

// fetch performs exactly one GET against path and decodes the JSON body into out.
func (c *Client) fetch(ctx context.Context, path string, params url.Values, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reqURL := c.baseURL.JoinPath(path)
	reqURL.RawQuery = params.Encode()

	c.log.DebugContext(ctx, "Maps backend request URL", "url", reqURL.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, string(body))
	}

	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	return nil
}

func (c *Client) observe(operation string, source Source, startTime time.Time) {
	if c.recorder == nil {
		return
	}
	c.recorder.ObserveLookup(operation, source, time.Since(startTime).Seconds())
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
