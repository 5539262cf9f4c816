package models

// Coordinates represents a geographical point defined by its longitude and latitude.
type Coordinates struct {
	Longitude float64 `json:"lon"` // Longitude of the geographical point.
	Latitude  float64 `json:"lat"` // Latitude of the geographical point.
}

// Valid reports whether the point lies within WGS 84 decimal degree bounds.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Midpoint returns the arithmetic mean of two points.
func Midpoint(a, b Coordinates) Coordinates {
	const half = 2
	return Coordinates{
		Longitude: (a.Longitude + b.Longitude) / half,
		Latitude:  (a.Latitude + b.Latitude) / half,
	}
}
