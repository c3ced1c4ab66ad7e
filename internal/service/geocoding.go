package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/peerrent/compass/internal/geo"
	"github.com/peerrent/compass/internal/geocoding"
	"github.com/peerrent/compass/internal/metrics"
	"github.com/peerrent/compass/internal/models"
	"github.com/peerrent/compass/internal/queue"
)

// GeocodingService owns the geocode caches, the rate-limited queue and the
// provider, and is the single entry point for address resolution in both
// directions. It is constructed once at application start and passed to
// consumers; nothing here is package-level state.
//
// Reverse resolution is stale-while-revalidate: Resolve never blocks, a
// cache miss returns the coordinate fallback label immediately and the real
// lookup happens on the queue. Refined labels are visible only to future
// Resolve calls.
type GeocodingService struct {
	log           *slog.Logger       // Logger for logging service activities
	provider      geocoding.Provider // Geocoding provider for external lookups
	providerName  string             // Name of the provider for metrics labeling
	metrics       *metrics.Metrics   // Metrics for tracking service performance
	queue         *queue.Queue       // Serial queue pacing reverse lookups
	lookupTimeout time.Duration      // Per-lookup deadline for background tasks

	mu      sync.Mutex
	labels  map[string]string              // coordinate key -> resolved label
	points  map[string]*models.Coordinates // address -> coordinates, nil marks a failed lookup
	pending map[string]struct{}            // coordinate keys with a queued lookup
}

// NewGeocodingService creates a new instance of GeocodingService. The queue
// is owned by the service; Close tears it down.
func NewGeocodingService(
	log *slog.Logger,
	provider geocoding.Provider,
	providerName string,
	appMetrics *metrics.Metrics,
	interval time.Duration,
	lookupTimeout time.Duration,
) *GeocodingService {
	if lookupTimeout <= 0 {
		lookupTimeout = 10 * time.Second
	}
	return &GeocodingService{
		log:           log,
		provider:      provider,
		providerName:  providerName,
		metrics:       appMetrics,
		queue:         queue.New(interval, log),
		lookupTimeout: lookupTimeout,
		labels:        make(map[string]string),
		points:        make(map[string]*models.Coordinates),
		pending:       make(map[string]struct{}),
	}
}

// Close stops the background queue. Pending lookups are dropped.
func (gs *GeocodingService) Close() {
	gs.queue.Close()
	gs.metrics.QueueDepth.Set(0)
}

// Resolve returns the best label currently known for the coordinates,
// without blocking. A cached label is returned as is. Otherwise the
// coordinate-formatted fallback is returned immediately and, unless a
// lookup for the same key is already queued, a background reverse lookup
// is enqueued to refine the label for future calls.
//
// Out-of-range coordinates get the fallback label and never create a cache
// entry or a network task.
func (gs *GeocodingService) Resolve(c models.Coordinates) string {
	fallback := geo.FallbackLabel(c)
	if !c.Valid() {
		return fallback
	}

	key := geo.Key(c)

	gs.mu.Lock()
	if label, ok := gs.labels[key]; ok {
		gs.mu.Unlock()
		gs.metrics.GeocodeCache.WithLabelValues("reverse", "hit").Inc()
		return label
	}
	if _, queued := gs.pending[key]; queued {
		gs.mu.Unlock()
		gs.metrics.GeocodeCache.WithLabelValues("reverse", "pending").Inc()
		return fallback
	}
	gs.pending[key] = struct{}{}
	gs.mu.Unlock()

	gs.metrics.GeocodeCache.WithLabelValues("reverse", "miss").Inc()
	gs.queue.Enqueue(func() {
		gs.reverseLookup(c, key, fallback)
	})
	gs.metrics.QueueDepth.Set(float64(gs.queue.Depth()))

	return fallback
}

// reverseLookup runs on the queue's drain goroutine. On success the
// formatted label is cached; on any failure the fallback label is cached
// instead, so the key is never retried for the life of the process.
func (gs *GeocodingService) reverseLookup(c models.Coordinates, key, fallback string) {
	defer gs.metrics.QueueDepth.Set(float64(gs.queue.Depth()))

	ctx, cancel := context.WithTimeout(context.Background(), gs.lookupTimeout)
	defer cancel()

	startTime := time.Now()
	place, err := gs.provider.ReverseGeocode(ctx, c)
	gs.metrics.ProviderSeconds.WithLabelValues(gs.providerName).Observe(time.Since(startTime).Seconds())

	label := fallback
	if err != nil {
		gs.log.WarnContext(ctx, "Reverse geocode failed, caching fallback label",
			"key", key, "error", err)
		gs.metrics.GeocodeLookups.WithLabelValues("reverse", "failure").Inc()
	} else {
		if formatted := geocoding.FormatLabel(place); formatted != "" {
			label = formatted
		}
		gs.metrics.GeocodeLookups.WithLabelValues("reverse", "success").Inc()
		gs.log.DebugContext(ctx, "Reverse geocode resolved", "key", key, "label", label)
	}

	gs.mu.Lock()
	gs.labels[key] = label
	delete(gs.pending, key)
	gs.mu.Unlock()
}

// Forward resolves an address string to coordinates, caching by the address
// string. A failed lookup is cached as unresolvable so the provider is not
// asked again for the same address; callers receive (nil, nil) in that case
// and treat the position as unknown.
func (gs *GeocodingService) Forward(ctx context.Context, address string) (*models.Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}

	gs.mu.Lock()
	if coords, ok := gs.points[address]; ok {
		gs.mu.Unlock()
		gs.metrics.GeocodeCache.WithLabelValues("forward", "hit").Inc()
		if coords == nil {
			return nil, nil
		}
		c := *coords
		return &c, nil
	}
	gs.mu.Unlock()
	gs.metrics.GeocodeCache.WithLabelValues("forward", "miss").Inc()

	startTime := time.Now()
	coords, err := gs.provider.Geocode(ctx, address)
	gs.metrics.ProviderSeconds.WithLabelValues(gs.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		// Context interruption is the caller's problem and must not poison
		// the cache; everything else is cached as unresolvable.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		gs.log.WarnContext(ctx, "Forward geocode failed, caching as unresolvable",
			"address", address, "error", err)
		gs.metrics.GeocodeLookups.WithLabelValues("forward", "failure").Inc()
		gs.mu.Lock()
		gs.points[address] = nil
		gs.mu.Unlock()
		return nil, nil
	}

	gs.metrics.GeocodeLookups.WithLabelValues("forward", "success").Inc()
	gs.mu.Lock()
	gs.points[address] = coords
	gs.mu.Unlock()

	c := *coords
	return &c, nil
}
