package routing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/UnknownOlympus/compass/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleDirectionsClient is the part of the Google Maps client used for routing.
type GoogleDirectionsClient interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

var googleModes = map[string]maps.Mode{
	models.ProfileFoot: maps.TravelModeWalking,
	models.ProfileBike: maps.TravelModeBicycling,
	models.ProfileCar:  maps.TravelModeDriving,
}

// GoogleRouter implements the Router interface with the Google Maps Directions API.
type GoogleRouter struct {
	client GoogleDirectionsClient
	log    *slog.Logger
}

// NewGoogleRouter creates a router on top of a Google Maps client.
func NewGoogleRouter(client GoogleDirectionsClient, log *slog.Logger) *GoogleRouter {
	return &GoogleRouter{client: client, log: log}
}

// Route returns the first Directions route. Distance and duration are summed
// over its legs and the overview polyline becomes the geometry.
func (gr *GoogleRouter) Route(ctx context.Context, query models.RouteQuery) (*models.RouteResult, error) {
	mode, ok := googleModes[query.Profile]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProfile, query.Profile)
	}

	gr.log.DebugContext(ctx, "Routing using Google Maps", "mode", mode)

	req := &maps.DirectionsRequest{
		Origin:      latLngString(query.Origin),
		Destination: latLngString(query.Destination),
		Mode:        mode,
	}

	routes, _, err := gr.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to request directions: %w", err)
	}

	if len(routes) == 0 {
		return nil, ErrNoRoute
	}

	best := routes[0]
	points, err := best.OverviewPolyline.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode overview polyline: %w", err)
	}

	coords := make([]models.Coordinates, 0, len(points))
	for _, point := range points {
		coords = append(coords, models.Coordinates{Latitude: point.Lat, Longitude: point.Lng})
	}

	var distance, duration float64
	for _, leg := range best.Legs {
		distance += float64(leg.Distance.Meters)
		duration += leg.Duration.Seconds()
	}

	return &models.RouteResult{
		Profile:   query.Profile,
		DistanceM: distance,
		DurationS: duration,
		Geometry:  models.NewLineString(coords...),
	}, nil
}

func latLngString(c models.Coordinates) string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}
