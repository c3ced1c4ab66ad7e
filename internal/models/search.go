package models

// SortField selects the key the search results are ordered by.
type SortField string

const (
	SortByDistance SortField = "distance"
	SortByPrice    SortField = "price"
	SortByCreated  SortField = "created"
	SortByRating   SortField = "rating"
)

// SortOrder selects the direction of the ordering.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// SortSpec describes how a result set is ordered. Items with unknown
// distance are always placed last regardless of the order direction.
type SortSpec struct {
	Field SortField
	Order SortOrder
}

// SearchFilters is the immutable filter configuration of a single search.
// A zero field disables the corresponding filter.
type SearchFilters struct {
	Text     string  // Case-insensitive substring over title and description.
	Category string  // Case-insensitive category equality.
	PriceMin float64 // Lower bound on price per day, inclusive.
	PriceMax float64 // Upper bound on price per day, inclusive; 0 disables.
	Location string  // Case-insensitive substring over the stored address label.
	RadiusKm float64 // Maximum distance from the origin; 0 disables.
}

// SearchResult is the outcome of one search invocation: the requested page
// plus the total number of matches before pagination.
type SearchResult struct {
	Items []Item
	Total int
}
