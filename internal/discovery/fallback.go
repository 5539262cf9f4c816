package discovery

import "github.com/UnknownOlympus/compass/internal/models"

// Placeholder values served when the maps backend cannot answer.
const (
	FallbackPlaceName = "Kuala Lumpur, Malaysia"
	FallbackPlaceLat  = 3.1390
	FallbackPlaceLon  = 101.6869
	FallbackPlaceType = "city"

	FallbackDistanceM = 5000
	FallbackDurationS = 1200
)

// FallbackPlaces returns the fixed single-place result. The query is echoed
// but never influences the place itself.
func FallbackPlaces(query string) models.PlaceResult {
	return models.PlaceResult{
		Query: query,
		Results: []models.Place{{
			DisplayName: FallbackPlaceName,
			Latitude:    FallbackPlaceLat,
			Longitude:   FallbackPlaceLon,
			Type:        FallbackPlaceType,
		}},
	}
}

// FallbackRoute returns a three-point route through the midpoint of origin and dest.
func FallbackRoute(origin, dest models.Coordinates, profile string) models.RouteResult {
	return models.RouteResult{
		Profile:   profile,
		DistanceM: FallbackDistanceM,
		DurationS: FallbackDurationS,
		Geometry:  models.NewLineString(origin, models.Midpoint(origin, dest), dest),
	}
}
