package geocoding

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/compass/internal/models"
)

// Provider is an interface that defines a method for resolving free text into places.
// Search returns at most limit matches in the upstream relevance order.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]models.Place, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// IsNoResult reports whether err means the provider found nothing for the query.
func IsNoResult(err error) bool {
	return errors.Is(err, ErrNominatimEmptyResponse) ||
		errors.Is(err, ErrEmptyResponse) ||
		errors.Is(err, ErrVisicomEmptyResponse)
}
