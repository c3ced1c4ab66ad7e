package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/peerrent/compass/internal/location"
	"github.com/peerrent/compass/internal/models"
	"github.com/peerrent/compass/internal/service"
)

// Searcher runs one search cycle. Satisfied by service.SearchService.
type Searcher interface {
	Search(ctx context.Context, req service.SearchRequest) (*models.SearchResult, error)
}

// LabelResolver turns coordinates into a display label without blocking.
// Satisfied by service.GeocodingService.
type LabelResolver interface {
	Resolve(c models.Coordinates) string
}

// SearchHandler serves the search endpoints of the public API.
type SearchHandler struct {
	log      *slog.Logger
	searcher Searcher
	resolver LabelResolver
	origin   location.Provider
	pageSize int
	radiusKm float64
}

// NewSearchHandler builds the handler. origin supplies the search center for
// requests without coordinates (the configured default center in production);
// defaultRadiusKm applies when the query omits radiusKm.
func NewSearchHandler(
	log *slog.Logger,
	searcher Searcher,
	resolver LabelResolver,
	origin location.Provider,
	pageSize int,
	defaultRadiusKm float64,
) *SearchHandler {
	if pageSize <= 0 {
		pageSize = service.DefaultPageSize
	}

	return &SearchHandler{
		log:      log,
		searcher: searcher,
		resolver: resolver,
		origin:   origin,
		pageSize: pageSize,
		radiusKm: defaultRadiusKm,
	}
}

// SearchQuery is the query-string shape of GET /v1/search. Coordinate and
// radius fields are pointers so "absent" and "zero" stay distinguishable:
// an absent radius gets the configured default, an explicit 0 disables the
// radius cut.
type SearchQuery struct {
	Text      string   `form:"text"`
	Category  string   `form:"category"`
	PriceMin  float64  `form:"priceMin"`
	PriceMax  float64  `form:"priceMax"`
	Location  string   `form:"location"`
	Latitude  *float64 `form:"latitude"`
	Longitude *float64 `form:"longitude"`
	RadiusKm  *float64 `form:"radiusKm"`
	SortBy    string   `form:"sortBy"`
	SortOrder string   `form:"sortOrder"`
	Page      int      `form:"page"`
	PageSize  int      `form:"pageSize"`
}

// ItemResponse is the wire shape of a single search hit.
type ItemResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	PricePerDay float64   `json:"pricePerDay"`
	Location    string    `json:"location,omitempty"`
	ImageURLs   []string  `json:"imageUrls,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Rating      *float64  `json:"rating,omitempty"`
	DistanceKm  *float64  `json:"distanceKm,omitempty"`
}

// SearchResponse is the wire shape of GET /v1/search.
type SearchResponse struct {
	Items []ItemResponse `json:"items"`
	Total int            `json:"total"`
}

// Search handles GET /v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := service.SearchRequest{
		Filters: models.SearchFilters{
			Text:     q.Text,
			Category: q.Category,
			PriceMin: q.PriceMin,
			PriceMax: q.PriceMax,
			Location: q.Location,
			RadiusKm: h.radiusKm,
		},
		Sort:     sortSpec(q.SortBy, q.SortOrder),
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if q.RadiusKm != nil {
		req.Filters.RadiusKm = *q.RadiusKm
	}
	if req.PageSize <= 0 {
		req.PageSize = h.pageSize
	}

	if q.Latitude != nil && q.Longitude != nil {
		origin := models.Coordinates{Latitude: *q.Latitude, Longitude: *q.Longitude}
		if !origin.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "latitude or longitude out of range"})
			return
		}
		req.Origin = &origin
	} else if h.origin != nil {
		// No geolocation in the request: fall back to the configured center
		// so distance ranking and the radius cut still work. A provider that
		// reports no position leaves the origin unset.
		if fallback, err := h.origin.Current(c.Request.Context()); err == nil {
			req.Origin = &fallback
		}
	}

	result, err := h.searcher.Search(c.Request.Context(), req)
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "Search failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	resp := SearchResponse{Items: make([]ItemResponse, 0, len(result.Items)), Total: result.Total}
	for _, item := range result.Items {
		resp.Items = append(resp.Items, h.toResponse(item))
	}

	c.JSON(http.StatusOK, resp)
}

// ReverseQuery is the query-string shape of GET /v1/locations/reverse.
// Pointers keep zero coordinates (the equator and the prime meridian are
// real places) distinguishable from absent parameters.
type ReverseQuery struct {
	Latitude  *float64 `form:"latitude"`
	Longitude *float64 `form:"longitude"`
}

// Reverse handles GET /v1/locations/reverse. It never blocks on the
// geocoding provider: the response carries the best label known right now,
// and a repeat call returns the refined label once the lookup lands.
func (h *SearchHandler) Reverse(c *gin.Context) {
	var q ReverseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Latitude == nil || q.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}

	coords := models.Coordinates{Latitude: *q.Latitude, Longitude: *q.Longitude}
	c.JSON(http.StatusOK, gin.H{"label": h.resolver.Resolve(coords)})
}

// toResponse maps an item to its wire shape. An item that has coordinates
// but no stored address gets a display label from the resolver; the first
// request for a fresh coordinate sees the coordinate fallback.
func (h *SearchHandler) toResponse(item models.Item) ItemResponse {
	label := item.Location
	if label == "" && item.Coordinates != nil {
		label = h.resolver.Resolve(*item.Coordinates)
	}

	resp := ItemResponse{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		PricePerDay: item.PricePerDay,
		Location:    label,
		ImageURLs:   item.ImageURLs,
		CreatedAt:   item.CreatedAt,
		Rating:      item.Rating,
	}
	if item.HasKnownDistance() {
		resp.DistanceKm = item.Distance
	}

	return resp
}

func sortSpec(field, order string) models.SortSpec {
	spec := models.SortSpec{Field: models.SortByDistance, Order: models.OrderAsc}

	switch models.SortField(field) {
	case models.SortByPrice:
		spec.Field = models.SortByPrice
	case models.SortByCreated:
		spec.Field = models.SortByCreated
		spec.Order = models.OrderDesc
	case models.SortByRating:
		spec.Field = models.SortByRating
		spec.Order = models.OrderDesc
	}

	if models.SortOrder(order) == models.OrderDesc {
		spec.Order = models.OrderDesc
	} else if models.SortOrder(order) == models.OrderAsc {
		spec.Order = models.OrderAsc
	}

	return spec
}
