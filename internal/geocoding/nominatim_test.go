package geocoding_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/peerrent/compass/internal/geocoding"
	"github.com/peerrent/compass/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestNominatimProvider_Geocode(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				// Verify request parameters
				assert.Equal(t, "GET", req.Method)
				assert.Contains(t, req.URL.String(), "nominatim.openstreetmap.org/search")
				assert.Equal(t, "44 Stanley Ave, Milpark, Johannesburg", req.URL.Query().Get("q"))
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t, "1", req.URL.Query().Get("limit"))
				assert.Equal(
					t,
					"Compass-Location-Service/1.0 (https://github.com/peerrent/compass)",
					req.Header.Get("User-Agent"),
				)

				return jsonResponse(http.StatusOK, `[{"lat":"-26.1844","lon":"28.0115"}]`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, time.Millisecond, logger)
		coords, err := provider.Geocode(ctx, "44 Stanley Ave, Milpark, Johannesburg")

		require.NoError(t, err)
		require.NotNil(t, coords)
		assert.InEpsilon(t, -26.1844, coords.Latitude, 0.0001)
		assert.InEpsilon(t, 28.0115, coords.Longitude, 0.0001)
	})

	t.Run("empty response from API", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `[]`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, time.Millisecond, logger)
		coords, err := provider.Geocode(ctx, "nowhere at all")

		require.Error(t, err)
		require.Nil(t, coords)
		assert.ErrorIs(t, err, geocoding.ErrNominatimEmptyResponse)
	})

	t.Run("HTTP error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusTooManyRequests, `{"error":"Rate limit exceeded"}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, time.Millisecond, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		assert.Contains(t, err.Error(), "nominatim API returned status 429")
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `invalid json`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, time.Millisecond, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		assert.Contains(t, err.Error(), "failed to decode nominatim response")
	})

	t.Run("invalid latitude in response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `[{"lat":"invalid","lon":"28.0115"}]`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, time.Millisecond, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		require.ErrorIs(t, err, geocoding.ErrNominatimInvalidCoords)
		assert.Contains(t, err.Error(), "invalid latitude")
	})

	t.Run("HTTP client returns error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, time.Millisecond, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		assert.Contains(t, err.Error(), "failed to execute geocoding request")
	})
}

func TestNominatimProvider_ReverseGeocode(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("successful reverse geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Contains(t, req.URL.String(), "nominatim.openstreetmap.org/reverse")
				assert.Equal(t, "-26.2041", req.URL.Query().Get("lat"))
				assert.Equal(t, "28.0473", req.URL.Query().Get("lon"))
				assert.Equal(t, "18", req.URL.Query().Get("zoom"))
				assert.Equal(t, "1", req.URL.Query().Get("addressdetails"))

				body := `{
					"display_name": "Sandton, Johannesburg, Gauteng, South Africa",
					"address": {"suburb": "Sandton", "city": "Johannesburg", "state": "Gauteng", "country": "South Africa"}
				}`
				return jsonResponse(http.StatusOK, body), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, time.Millisecond, logger)
		place, err := provider.ReverseGeocode(ctx, models.Coordinates{Latitude: -26.2041, Longitude: 28.0473})

		require.NoError(t, err)
		require.NotNil(t, place)
		assert.Equal(t, "Sandton", place.Address.Suburb)
		assert.Equal(t, "Johannesburg", place.Address.City)
	})

	t.Run("unable to geocode body", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"error":"Unable to geocode"}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, time.Millisecond, logger)
		place, err := provider.ReverseGeocode(ctx, models.Coordinates{Latitude: 0, Longitude: 0})

		require.Error(t, err)
		require.Nil(t, place)
		assert.ErrorIs(t, err, geocoding.ErrNominatimEmptyResponse)
	})

	t.Run("HTTP error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusServiceUnavailable, `unavailable`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, time.Millisecond, logger)
		place, err := provider.ReverseGeocode(ctx, models.Coordinates{Latitude: -26.2041, Longitude: 28.0473})

		require.Error(t, err)
		require.Nil(t, place)
		assert.Contains(t, err.Error(), "nominatim API returned status 503")
	})

	t.Run("context cancellation", func(t *testing.T) {
		newCtx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, req.Context().Err()
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, time.Millisecond, logger)
		place, err := provider.ReverseGeocode(newCtx, models.Coordinates{Latitude: 1, Longitude: 1})

		require.Error(t, err)
		require.Nil(t, place)
	})
}

func TestNominatimProvider_RateLimitSharedAcrossOperations(t *testing.T) {
	logger := slog.Default()
	interval := 60 * time.Millisecond

	var mu sync.Mutex
	var callTimes []time.Time
	mockClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			callTimes = append(callTimes, time.Now())
			mu.Unlock()
			if req.URL.Path == "/reverse" {
				return jsonResponse(http.StatusOK, `{"display_name":"somewhere","address":{}}`), nil
			}
			return jsonResponse(http.StatusOK, `[{"lat":"1.0","lon":"2.0"}]`), nil
		},
	}

	provider := geocoding.NewNominatimProviderWithClient(mockClient, interval, logger)
	ctx := context.Background()

	_, err := provider.Geocode(ctx, "first")
	require.NoError(t, err)
	_, err = provider.ReverseGeocode(ctx, models.Coordinates{Latitude: 1, Longitude: 2})
	require.NoError(t, err)
	_, err = provider.Geocode(ctx, "second")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, callTimes, 3)
	assert.GreaterOrEqual(t, callTimes[1].Sub(callTimes[0]), interval/2)
	assert.GreaterOrEqual(t, callTimes[2].Sub(callTimes[1]), interval/2)
}

func TestNewNominatimProvider(t *testing.T) {
	provider := geocoding.NewNominatimProvider(time.Second, slog.Default())
	require.NotNil(t, provider)
}
