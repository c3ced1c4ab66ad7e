package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/peerrent/compass/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrEmptyResponse = errors.New("get empty response from Google Maps API")

// NewGoogleProvider wraps a Google Maps client in the Provider interface.
// Rate limiting is configured on the client itself via maps.WithRateLimit.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Geocode takes a context and an address string as input, and returns the
// geographical coordinates of the provided address using the Google Maps
// Geocoding API.
func (gp *GoogleProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Forward geocoding using Google Maps", "address", address)

	req := maps.GeocodingRequest{Address: address}
	geocodeResponse, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}

	if len(geocodeResponse) == 0 {
		return nil, ErrEmptyResponse
	}
	coords := geocodeResponse[0].Geometry.Location

	return &models.Coordinates{Latitude: coords.Lat, Longitude: coords.Lng}, nil
}

// ReverseGeocode resolves coordinates into a structured place using the
// Google Maps Geocoding API, translating Google's address component types
// into the provider-neutral Address record.
func (gp *GoogleProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (*Place, error) {
	gp.log.DebugContext(ctx, "Reverse geocoding using Google Maps",
		"lat", coords.Latitude, "lon", coords.Longitude)

	req := maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: coords.Latitude, Lng: coords.Longitude},
	}
	geocodeResponse, err := gp.client.ReverseGeocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to reverse geocode coordinates: %w", err)
	}

	if len(geocodeResponse) == 0 {
		return nil, ErrEmptyResponse
	}

	result := geocodeResponse[0]
	place := &Place{DisplayName: result.FormattedAddress}
	for _, component := range result.AddressComponents {
		for _, typ := range component.Types {
			switch typ {
			case "neighborhood":
				place.Address.Neighbourhood = component.LongName
			case "sublocality", "sublocality_level_1":
				place.Address.Suburb = component.LongName
			case "locality":
				place.Address.City = component.LongName
			case "administrative_area_level_2":
				place.Address.District = component.LongName
			case "administrative_area_level_1":
				place.Address.State = component.LongName
			case "country":
				place.Address.Country = component.LongName
			case "postal_code":
				place.Address.Postcode = component.LongName
			}
		}
	}

	return place, nil
}
