package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/peerrent/compass/internal/location"
	"github.com/peerrent/compass/internal/models"
)

// Searcher is what a session drives; satisfied by *SearchService.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*models.SearchResult, error)
}

// DefaultDebounce is the quiet period required after free-text input before
// a search fires.
const DefaultDebounce = 300 * time.Millisecond

// Session serializes the searches of one interactive consumer. Free-text
// changes are debounced; clearing the text and any structured filter, sort
// or page change dispatch immediately. Every dispatch gets a monotonically
// increasing generation; a response whose generation is older than the one
// already applied is discarded, so a slow stale search can never overwrite
// a newer result.
type Session struct {
	log      *slog.Logger
	ctx      context.Context
	searcher Searcher
	debounce time.Duration
	onUpdate func(models.SearchResult)

	mu      sync.Mutex
	req     SearchRequest
	timer   *time.Timer
	issued  uint64
	applied uint64
	result  *models.SearchResult
	closed  bool
}

// NewSession creates a session around an initial request. onUpdate, if not
// nil, is invoked outside the session lock for every applied result.
func NewSession(
	ctx context.Context,
	log *slog.Logger,
	searcher Searcher,
	debounce time.Duration,
	initial SearchRequest,
	onUpdate func(models.SearchResult),
) *Session {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Session{
		log:      log,
		ctx:      ctx,
		searcher: searcher,
		debounce: debounce,
		req:      initial,
		onUpdate: onUpdate,
	}
}

// SetText updates the free-text filter. A non-empty value (re)starts the
// debounce timer; an empty value cancels it and searches immediately.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	s.req.Filters.Text = text
	s.req.Page = 1
	s.stopTimerLocked()
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		s.dispatch()
		return
	}
	s.timer = time.AfterFunc(s.debounce, s.dispatch)
	s.mu.Unlock()
}

// SetFilters replaces the structured filters, resets to page 1 and searches
// immediately. The current free-text filter is preserved.
func (s *Session) SetFilters(filters models.SearchFilters) {
	s.mu.Lock()
	filters.Text = s.req.Filters.Text
	s.req.Filters = filters
	s.req.Page = 1
	s.stopTimerLocked()
	s.mu.Unlock()
	s.dispatch()
}

// SetSort changes the ordering, resets to page 1 and searches immediately.
func (s *Session) SetSort(spec models.SortSpec) {
	s.mu.Lock()
	s.req.Sort = spec
	s.req.Page = 1
	s.stopTimerLocked()
	s.mu.Unlock()
	s.dispatch()
}

// SetPage moves to another page of the current query immediately.
func (s *Session) SetPage(page int) {
	s.mu.Lock()
	s.req.Page = page
	s.stopTimerLocked()
	s.mu.Unlock()
	s.dispatch()
}

// UseDeviceLocation asks the geolocation provider for the requester's
// position and makes it the search origin. When the provider reports no
// position, the fallback center is used instead, so the session always ends
// up with a usable origin.
func (s *Session) UseDeviceLocation(ctx context.Context, provider location.Provider, fallback models.Coordinates) {
	origin, err := provider.Current(ctx)
	if err != nil {
		s.log.Warn("Geolocation unavailable, using default center", "error", err)
		origin = fallback
	}
	s.SetOrigin(&origin)
}

// SetOrigin changes the search origin, resets to page 1 and searches
// immediately.
func (s *Session) SetOrigin(origin *models.Coordinates) {
	s.mu.Lock()
	s.req.Origin = origin
	s.req.Page = 1
	s.stopTimerLocked()
	s.mu.Unlock()
	s.dispatch()
}

// Result returns the latest applied result, if any search completed yet.
func (s *Session) Result() (models.SearchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return models.SearchResult{}, false
	}
	return *s.result, true
}

// Close cancels a pending debounce timer and stops applying responses.
// In-flight searches cannot be withdrawn; their results are discarded at
// the application step.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// dispatch issues a search with a fresh generation. The response is applied
// only while it is newer than the latest applied one.
func (s *Session) dispatch() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	s.issued++
	gen := s.issued
	req := s.req
	s.mu.Unlock()

	go func() {
		result, err := s.searcher.Search(s.ctx, req)
		if err != nil {
			s.log.Error("Search failed", "generation", gen, "error", err)
			return
		}

		s.mu.Lock()
		if s.closed || gen <= s.applied {
			s.mu.Unlock()
			s.log.Debug("Discarding stale search response", "generation", gen)
			return
		}
		s.applied = gen
		s.result = result
		onUpdate := s.onUpdate
		s.mu.Unlock()

		if onUpdate != nil {
			onUpdate(*result)
		}
	}()
}
