package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/peerrent/compass/internal/metrics"
	"github.com/peerrent/compass/internal/models"
)

// Catalog is the external item store the search pipeline reads from. The
// pipeline never writes through it.
type Catalog interface {
	ListAll(ctx context.Context) ([]models.Item, error)
	GetByID(ctx context.Context, id string) (models.Item, error)
}

// DefaultPageSize is used when the caller does not request a page size.
const DefaultPageSize = 20

// SearchRequest bundles everything one search invocation needs. Origin is
// nil when no geolocation is available for the requester.
type SearchRequest struct {
	Filters  models.SearchFilters
	Sort     models.SortSpec
	Origin   *models.Coordinates
	Page     int
	PageSize int
}

// SearchService runs the full search cycle: fetch candidates, filter, rank,
// paginate.
type SearchService struct {
	log     *slog.Logger
	catalog Catalog
	ranker  *Ranker
	metrics *metrics.Metrics
}

func NewSearchService(log *slog.Logger, catalog Catalog, ranker *Ranker, appMetrics *metrics.Metrics) *SearchService {
	return &SearchService{log: log, catalog: catalog, ranker: ranker, metrics: appMetrics}
}

// Search executes one request/response cycle and returns the requested page
// plus the total number of matches before pagination. Filters apply in a
// fixed order: text, category, price range, location substring; each is a
// no-op when its field is unset. The radius cut happens after ranking, when
// distances are known; items with unknown distance survive it and rank last.
func (ss *SearchService) Search(ctx context.Context, req SearchRequest) (*models.SearchResult, error) {
	candidates, err := ss.catalog.ListAll(ctx)
	if err != nil {
		ss.metrics.Searches.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	filtered := applyFilters(candidates, req.Filters)
	ranked := ss.ranker.Rank(ctx, filtered, req.Origin, req.Sort)

	if req.Origin != nil && req.Filters.RadiusKm > 0 {
		ranked = withinRadius(ranked, req.Filters.RadiusKm)
	}

	total := len(ranked)
	items := paginate(ranked, req.Page, req.PageSize)

	ss.metrics.Searches.WithLabelValues("success").Inc()
	ss.log.DebugContext(ctx, "Search completed",
		"candidates", len(candidates), "matches", total, "returned", len(items))

	return &models.SearchResult{Items: items, Total: total}, nil
}

func applyFilters(items []models.Item, filters models.SearchFilters) []models.Item {
	out := items
	if text := strings.TrimSpace(filters.Text); text != "" {
		out = keep(out, func(item models.Item) bool {
			return containsFold(item.Title, text) || containsFold(item.Description, text)
		})
	}
	if category := strings.TrimSpace(filters.Category); category != "" {
		out = keep(out, func(item models.Item) bool {
			return strings.EqualFold(item.Category, category)
		})
	}
	if filters.PriceMin > 0 {
		out = keep(out, func(item models.Item) bool {
			return item.PricePerDay >= filters.PriceMin
		})
	}
	if filters.PriceMax > 0 {
		out = keep(out, func(item models.Item) bool {
			return item.PricePerDay <= filters.PriceMax
		})
	}
	if loc := strings.TrimSpace(filters.Location); loc != "" {
		out = keep(out, func(item models.Item) bool {
			return containsFold(item.Location, loc)
		})
	}
	return out
}

func keep(items []models.Item, pred func(models.Item) bool) []models.Item {
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// withinRadius drops items whose finite distance exceeds the radius. Items
// with unknown distance are kept; the sort already placed them last.
func withinRadius(items []models.Item, radiusKm float64) []models.Item {
	return keep(items, func(item models.Item) bool {
		if !item.HasKnownDistance() {
			return true
		}
		return *item.Distance <= radiusKm
	})
}

func paginate(items []models.Item, page, pageSize int) []models.Item {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []models.Item{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}
