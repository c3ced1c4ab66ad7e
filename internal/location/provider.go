// Package location abstracts the requester's geolocation capability so the
// search core never talks to a platform API directly.
package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/peerrent/compass/internal/models"
)

// ErrUnavailable is returned when no geolocation can be determined for the
// requester.
var ErrUnavailable = errors.New("location unavailable")

// Provider yields the requester's current coordinates or reports that none
// are available.
type Provider interface {
	Current(ctx context.Context) (models.Coordinates, error)
}

// Static always returns a fixed coordinate. It serves both as the injected
// default-center provider and as a test double.
type Static struct {
	Coords models.Coordinates
}

func (s Static) Current(_ context.Context) (models.Coordinates, error) {
	return s.Coords, nil
}

// Unavailable always reports that no geolocation is available, carrying the
// reason (e.g. "permission denied").
type Unavailable struct {
	Reason string
}

func (u Unavailable) Current(_ context.Context) (models.Coordinates, error) {
	if u.Reason == "" {
		return models.Coordinates{}, ErrUnavailable
	}
	return models.Coordinates{}, fmt.Errorf("%w: %s", ErrUnavailable, u.Reason)
}
