package routing

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

// OSRMBaseURL is the public OSRM demo server.
const OSRMBaseURL = "https://router.project-osrm.org"

// OSRM response codes.
const (
	osrmCodeOK      = "Ok"
	osrmCodeNoRoute = "NoRoute"
)

// ErrOSRMInvalidResponse is returned when OSRM answers with an unusable payload.
var ErrOSRMInvalidResponse = errors.New("osrm API returned invalid response")

// osrmProfiles maps travel profiles to OSRM profile path segments.
var osrmProfiles = map[string]string{
	models.ProfileFoot: "foot",
	models.ProfileBike: "bike",
	models.ProfileCar:  "driving",
}

// OSRMRouter implements the Router interface with the OSRM route service.
type OSRMRouter struct {
	client  HTTPClient   // HTTP client for making requests
	baseURL string       // Base URL of the OSRM server
	log     *slog.Logger // Logger for logging operations
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64           `json:"distance"`
		Duration float64           `json:"duration"`
		Geometry models.LineString `json:"geometry"`
	} `json:"routes"`
}

// NewOSRMRouter creates an OSRM router for baseURL, or the public demo server when empty.
func NewOSRMRouter(baseURL string, log *slog.Logger) *OSRMRouter {
	const timeout = 10
	return NewOSRMRouterWithClient(&http.Client{Timeout: timeout * time.Second}, baseURL, log)
}

// NewOSRMRouterWithClient creates an OSRM router with a custom HTTP client.
func NewOSRMRouterWithClient(client HTTPClient, baseURL string, log *slog.Logger) *OSRMRouter {
	if baseURL == "" {
		baseURL = OSRMBaseURL
	}
	return &OSRMRouter{client: client, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// Route asks OSRM for the best route and returns its full GeoJSON geometry.
func (or *OSRMRouter) Route(ctx context.Context, query models.RouteQuery) (*models.RouteResult, error) {
	profile, ok := osrmProfiles[query.Profile]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProfile, query.Profile)
	}

	or.log.DebugContext(ctx, "Routing using OSRM", "profile", profile)

	waypoints := formatPoint(query.Origin) + ";" + formatPoint(query.Destination)
	reqURL, err := url.Parse(or.baseURL + "/route/v1/" + profile + "/" + waypoints)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	params := reqURL.Query()
	params.Set("overview", "full")
	params.Set("geometries", "geojson")
	reqURL.RawQuery = params.Encode()

	or.log.DebugContext(ctx, "OSRM request URL", "url", reqURL.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := or.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute routing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result osrmResponse
	decodeErr := json.Unmarshal(body, &result)

	if result.Code == osrmCodeNoRoute {
		return nil, ErrNoRoute
	}

	if resp.StatusCode != http.StatusOK {
		or.log.ErrorContext(ctx, "OSRM API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("osrm API returned status %d: %s", resp.StatusCode, string(body))
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode osrm response: %w", decodeErr)
	}

	if result.Code != osrmCodeOK {
		return nil, fmt.Errorf("%w: %s: %s", ErrOSRMInvalidResponse, result.Code, result.Message)
	}

	if len(result.Routes) == 0 {
		return nil, ErrNoRoute
	}

	best := result.Routes[0]
	const minPoints = 2
	if len(best.Geometry.Coordinates) < minPoints {
		return nil, fmt.Errorf("%w: geometry has %d points", ErrOSRMInvalidResponse, len(best.Geometry.Coordinates))
	}
	best.Geometry.Type = models.GeometryLineString

	return &models.RouteResult{
		Profile:   query.Profile,
		DistanceM: best.Distance,
		DurationS: best.Duration,
		Geometry:  best.Geometry,
	}, nil
}

// formatPoint renders a point the way OSRM expects it: "lon,lat".
func formatPoint(c models.Coordinates) string {
	return strconv.FormatFloat(c.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Latitude, 'f', -1, 64)
}
