// Package geo holds the pure coordinate helpers shared by the geocoding and
// search pipelines: cache-key quantization, coordinate fallback labels and
// great-circle distance.
package geo

import (
	"fmt"
	"math"

	"github.com/peerrent/compass/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// keyPrecision is the number of decimals a coordinate is rounded to before
// it becomes a cache key. Four decimals is roughly 11 m, so two points
// closer than that collapse to one cache entry. Accepted precision loss.
const keyPrecision = 4

// Key quantizes a coordinate pair into a deterministic cache key of the
// form "lat,lon" with both components rounded to four decimals.
func Key(c models.Coordinates) string {
	return fmt.Sprintf("%.*f,%.*f", keyPrecision, c.Latitude, keyPrecision, c.Longitude)
}

// FallbackLabel renders a coordinate pair as a human-friendly label, e.g.
// "26.20°S, 28.05°E". Total: it accepts out-of-range values unchanged.
func FallbackLabel(c models.Coordinates) string {
	latHemi := "N"
	if c.Latitude < 0 {
		latHemi = "S"
	}
	lonHemi := "E"
	if c.Longitude < 0 {
		lonHemi = "W"
	}
	return fmt.Sprintf("%.2f°%s, %.2f°%s",
		math.Abs(c.Latitude), latHemi, math.Abs(c.Longitude), lonHemi)
}

// Distance calculates the great-circle distance between two points using
// the haversine formula. Returns kilometres.
func Distance(from, to models.Coordinates) float64 {
	lat1 := from.Latitude * math.Pi / 180
	lat2 := to.Latitude * math.Pi / 180
	dLat := (to.Latitude - from.Latitude) * math.Pi / 180
	dLon := (to.Longitude - from.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}
