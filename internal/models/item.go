package models

import (
	"math"
	"time"
)

// Item is a read view of a rentable item as served by the search pipeline.
// Distance is request-scoped: it is populated on copies by the ranker for a
// single search and never persisted.
type Item struct {
	ID          string       // ID is the unique identifier for the item.
	Title       string       // Title is the short listing name.
	Description string       // Description is the free-text listing body.
	Category    string       // Category groups items (e.g. "tools", "camping").
	PricePerDay float64      // PricePerDay is the rental price in the platform currency.
	Location    string       // Location is the stored human-readable address label, may be empty.
	Coordinates *Coordinates // Coordinates of the item if the owner pinned it on a map.
	ImageURLs   []string     // ImageURLs are the listing photos.
	CreatedAt   time.Time    // CreatedAt is the listing creation timestamp.
	Rating      *float64     // Rating is the average rating, nil when the item has none.

	// Distance from the search origin in kilometres. nil means no origin was
	// available for the request; +Inf means the origin was known but the
	// item's position could not be determined.
	Distance *float64
}

// HasKnownDistance reports whether a finite distance was computed for the item.
func (i Item) HasKnownDistance() bool {
	return i.Distance != nil && !math.IsInf(*i.Distance, 1)
}
