package models

// Place is a single geocoding match.
type Place struct {
	DisplayName string  `json:"display_name"` // DisplayName is the canonical label of the place.
	Latitude    float64 `json:"lat"`          // Latitude in decimal degrees.
	Longitude   float64 `json:"lon"`          // Longitude in decimal degrees.
	Type        string  `json:"type"`         // Type is the place-type tag (city, street, ...).
}

// PlaceResult is the geocode payload: matches in upstream relevance order.
type PlaceResult struct {
	Query   string  `json:"query"`
	Results []Place `json:"results"`
}
