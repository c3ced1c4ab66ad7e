package service

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/peerrent/compass/internal/geo"
	"github.com/peerrent/compass/internal/models"
)

// ForwardGeocoder is the forward-lookup capability the ranker needs for
// candidates whose coordinates are not stored. (nil, nil) means the address
// could not be resolved.
type ForwardGeocoder interface {
	Forward(ctx context.Context, address string) (*models.Coordinates, error)
}

// Ranker enriches a candidate list with distances from an origin and sorts
// it by the selected key. Distances live on returned copies only.
type Ranker struct {
	log      *slog.Logger
	geocoder ForwardGeocoder
}

func NewRanker(log *slog.Logger, geocoder ForwardGeocoder) *Ranker {
	return &Ranker{log: log, geocoder: geocoder}
}

// Rank returns a sorted copy of the candidates with the Distance field
// populated. When origin is nil every distance stays unset and no lookups
// happen. A candidate without stored coordinates but with a usable location
// string gets a forward lookup; if its position still cannot be determined
// its distance is +Inf, which (like unset) always sorts last.
func (r *Ranker) Rank(
	ctx context.Context,
	candidates []models.Item,
	origin *models.Coordinates,
	spec models.SortSpec,
) []models.Item {
	ranked := make([]models.Item, len(candidates))
	copy(ranked, candidates)

	if origin != nil {
		for i := range ranked {
			d := r.distanceFrom(ctx, *origin, ranked[i])
			ranked[i].Distance = &d
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j], spec)
	})

	return ranked
}

// distanceFrom computes the great-circle distance to one candidate,
// geocoding its location string on demand. +Inf means unknown.
func (r *Ranker) distanceFrom(ctx context.Context, origin models.Coordinates, item models.Item) float64 {
	if item.Coordinates != nil {
		return geo.Distance(origin, *item.Coordinates)
	}

	if !usableLocation(item.Location) {
		return math.Inf(1)
	}

	coords, err := r.geocoder.Forward(ctx, item.Location)
	if err != nil {
		r.log.WarnContext(ctx, "Forward lookup interrupted while ranking",
			"item", item.ID, "error", err)
		return math.Inf(1)
	}
	if coords == nil {
		return math.Inf(1)
	}
	return geo.Distance(origin, *coords)
}

// usableLocation rejects empty strings and coordinate-formatted fallback
// labels, which would only geocode back to themselves.
func usableLocation(location string) bool {
	location = strings.TrimSpace(location)
	return location != "" && !strings.Contains(location, "°")
}

// less implements the sort total order. Items with missing distance data
// (unset or +Inf) are placed after every finite distance regardless of the
// order direction; among themselves their original relative order is kept.
// For the other fields the numeric/time value is compared directly, with an
// absent rating treated as zero.
func less(a, b models.Item, spec models.SortSpec) bool {
	desc := spec.Order == models.OrderDesc

	if spec.Field == models.SortByDistance {
		aKnown, bKnown := a.HasKnownDistance(), b.HasKnownDistance()
		if aKnown != bKnown {
			return aKnown
		}
		if !aKnown {
			return false
		}
		if desc {
			return *a.Distance > *b.Distance
		}
		return *a.Distance < *b.Distance
	}

	var cmp int
	switch spec.Field {
	case models.SortByPrice:
		cmp = compareFloat(a.PricePerDay, b.PricePerDay)
	case models.SortByCreated:
		cmp = a.CreatedAt.Compare(b.CreatedAt)
	case models.SortByRating:
		cmp = compareFloat(ratingOrZero(a), ratingOrZero(b))
	default:
		return false
	}

	if desc {
		return cmp > 0
	}
	return cmp < 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func ratingOrZero(item models.Item) float64 {
	if item.Rating == nil {
		return 0
	}
	return *item.Rating
}
