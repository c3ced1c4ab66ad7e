package service_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/peerrent/compass/internal/location"
	"github.com/peerrent/compass/internal/models"
	"github.com/peerrent/compass/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var johannesburg = models.Coordinates{Latitude: -26.2041, Longitude: 28.0473}

// recordingSearcher records every search request it receives. Requests with
// Page == 1 can be held back via gate to simulate a slow in-flight search.
type recordingSearcher struct {
	mu    sync.Mutex
	calls []service.SearchRequest
	gate  chan struct{}
}

func (r *recordingSearcher) Search(_ context.Context, req service.SearchRequest) (*models.SearchResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, req)
	gate := r.gate
	r.mu.Unlock()

	if gate != nil && req.Page == 1 {
		<-gate
	}
	return &models.SearchResult{Total: req.Page}, nil
}

func (r *recordingSearcher) requests() []service.SearchRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]service.SearchRequest, len(r.calls))
	copy(out, r.calls)
	return out
}

func waitForResult(t *testing.T, session *service.Session, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if result, ok := session.Result(); ok && result.Total == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session never applied a result with total %d", want)
}

func newTestSession(searcher service.Searcher, debounce time.Duration) *service.Session {
	return service.NewSession(
		context.Background(), slog.Default(), searcher, debounce,
		service.SearchRequest{Page: 2, PageSize: 10}, nil,
	)
}

func TestSession_DebounceCollapsesRapidInput(t *testing.T) {
	t.Parallel()
	searcher := &recordingSearcher{}
	session := newTestSession(searcher, 150*time.Millisecond)
	defer session.Close()

	session.SetText("d")
	time.Sleep(50 * time.Millisecond)
	session.SetText("dr")
	time.Sleep(50 * time.Millisecond)
	session.SetText("drill")

	// The quiet period has not elapsed since the last keystroke yet.
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, searcher.requests())

	waitForResult(t, session, 1)
	calls := searcher.requests()
	require.Len(t, calls, 1)
	assert.Equal(t, "drill", calls[0].Filters.Text)
	assert.Equal(t, 1, calls[0].Page)
}

func TestSession_ClearingTextBypassesDebounce(t *testing.T) {
	t.Parallel()
	searcher := &recordingSearcher{}
	session := newTestSession(searcher, time.Hour)
	defer session.Close()

	session.SetText("drill") // would debounce for an hour
	session.SetText("")

	waitForResult(t, session, 1)
	calls := searcher.requests()
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].Filters.Text)
}

func TestSession_StructuredChangeIsImmediateAndResetsPage(t *testing.T) {
	t.Parallel()
	searcher := &recordingSearcher{}
	session := newTestSession(searcher, time.Hour)
	defer session.Close()

	session.SetText("drill") // pending debounce, never fires
	session.SetFilters(models.SearchFilters{Category: "tools"})

	waitForResult(t, session, 1)
	calls := searcher.requests()
	require.Len(t, calls, 1)
	assert.Equal(t, "tools", calls[0].Filters.Category)
	assert.Equal(t, "drill", calls[0].Filters.Text, "text filter survives structured change")
	assert.Equal(t, 1, calls[0].Page)
}

func TestSession_SortChangeResetsPage(t *testing.T) {
	t.Parallel()
	searcher := &recordingSearcher{}
	session := newTestSession(searcher, time.Hour)
	defer session.Close()

	session.SetSort(models.SortSpec{Field: models.SortByPrice, Order: models.OrderDesc})

	waitForResult(t, session, 1)
	calls := searcher.requests()
	require.Len(t, calls, 1)
	assert.Equal(t, models.SortByPrice, calls[0].Sort.Field)
	assert.Equal(t, 1, calls[0].Page)
}

func TestSession_StaleResponseIsDiscarded(t *testing.T) {
	t.Parallel()
	gate := make(chan struct{})
	searcher := &recordingSearcher{gate: gate}
	session := newTestSession(searcher, 20*time.Millisecond)
	defer session.Close()

	// First generation: a page-1 search that stalls in flight.
	session.SetText("slow query")
	deadline := time.Now().Add(2 * time.Second)
	for len(searcher.requests()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Len(t, searcher.requests(), 1)

	// Second generation completes immediately and is applied.
	session.SetPage(3)
	waitForResult(t, session, 3)

	// Now the stalled first generation returns; it must not overwrite.
	close(gate)
	time.Sleep(50 * time.Millisecond)

	result, ok := session.Result()
	require.True(t, ok)
	assert.Equal(t, 3, result.Total)
}

func TestSession_ClosedSessionAppliesNothing(t *testing.T) {
	t.Parallel()
	gate := make(chan struct{})
	searcher := &recordingSearcher{gate: gate}
	session := newTestSession(searcher, 10*time.Millisecond)

	session.SetText("drill")
	deadline := time.Now().Add(2 * time.Second)
	for len(searcher.requests()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	session.Close()
	close(gate)
	time.Sleep(50 * time.Millisecond)

	_, ok := session.Result()
	assert.False(t, ok)
}

func TestSession_UseDeviceLocation(t *testing.T) {
	t.Parallel()
	searcher := &recordingSearcher{}
	session := newTestSession(searcher, 150*time.Millisecond)
	defer session.Close()

	device := models.Coordinates{Latitude: -25.7461, Longitude: 28.1881}
	session.UseDeviceLocation(context.Background(), location.Static{Coords: device}, johannesburg)

	waitForResult(t, session, 1)
	calls := searcher.requests()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].Origin)
	assert.Equal(t, device, *calls[0].Origin)
	assert.Equal(t, 1, calls[0].Page)
}

func TestSession_UseDeviceLocationFallsBackToDefaultCenter(t *testing.T) {
	t.Parallel()
	searcher := &recordingSearcher{}
	session := newTestSession(searcher, 150*time.Millisecond)
	defer session.Close()

	session.UseDeviceLocation(
		context.Background(), location.Unavailable{Reason: "permission denied"}, johannesburg,
	)

	waitForResult(t, session, 1)
	calls := searcher.requests()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].Origin)
	assert.Equal(t, johannesburg, *calls[0].Origin)
}
