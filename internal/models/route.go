package models

// Travel profiles understood by the routing backends.
const (
	ProfileFoot = "foot"
	ProfileBike = "bike"
	ProfileCar  = "car"
)

// GeometryLineString is the GeoJSON type tag of a route geometry.
const GeometryLineString = "LineString"

// RouteQuery describes a routing request between two points.
type RouteQuery struct {
	Origin      Coordinates
	Destination Coordinates
	Profile     string
}

// LineString is a GeoJSON LineString. Each coordinate is a [lon, lat] pair.
type LineString struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// NewLineString builds a LineString from points in path order.
func NewLineString(points ...Coordinates) LineString {
	coords := make([][2]float64, 0, len(points))
	for _, p := range points {
		coords = append(coords, [2]float64{p.Longitude, p.Latitude})
	}

	return LineString{Type: GeometryLineString, Coordinates: coords}
}

// RouteResult is the route payload returned by the maps API.
type RouteResult struct {
	Profile   string     `json:"profile"`
	DistanceM float64    `json:"distance_m"`
	DurationS float64    `json:"duration_s"`
	Geometry  LineString `json:"geometry"`
}
