package geocoding

import (
	"context"
	"net/http"

	"github.com/peerrent/compass/internal/models"
)

// Provider is the combined geocoding capability the service layer depends
// on. Geocode resolves an address string to coordinates (forward lookup);
// ReverseGeocode resolves coordinates to a structured place description.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
	ReverseGeocode(ctx context.Context, coords models.Coordinates) (*Place, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
