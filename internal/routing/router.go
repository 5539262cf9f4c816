package routing

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/compass/internal/models"
)

// Router computes a path between two points for a travel profile.
type Router interface {
	Route(ctx context.Context, query models.RouteQuery) (*models.RouteResult, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Common routing errors.
var (
	ErrNoRoute            = errors.New("no route found between the given points")
	ErrUnsupportedProfile = errors.New("unsupported travel profile")
)
