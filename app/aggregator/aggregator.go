package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tubetab/tubetab/app/cache"
	"github.com/tubetab/tubetab/app/catalog"
	"github.com/tubetab/tubetab/app/cfg"
	"github.com/tubetab/tubetab/app/video"
)

type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateSuccess  State = "success"
	StateFailed   State = "failed"
)

// ErrRefreshInProgress is returned when a load request arrives while another
// run holds the single-flight slot. The request is rejected, not queued.
var ErrRefreshInProgress = errors.New("aggregation already in progress")

// Request describes one load: an optional category filter and whether the
// cache must be bypassed.
type Request struct {
	Category     string
	ForceRefresh bool
}

// Result is what a load hands to the presentation consumer.
type Result struct {
	Videos   []video.Record
	Cached   bool
	Stale    bool
	StoredAt time.Time
}

// FeedFetcher retrieves one channel's recent videos.
type FeedFetcher interface {
	Fetch(ctx context.Context, ch catalog.Channel) ([]video.Record, error)
}

// Searcher retrieves free-text query matches; Available reports whether the
// source can be used at all (it needs an API key).
type Searcher interface {
	Available() bool
	Search(ctx context.Context, query string) ([]video.Record, error)
}

// CacheStore is the persisted aggregation result.
type CacheStore interface {
	IsValid() bool
	Get() *cache.Entry
	Put(entry *cache.Entry) error
	Clear() error
}

// Aggregator orchestrates the pipeline: cache-first load, concurrent
// channel-feed fan-out, fallback and search escalation when results are
// scarce, blocked-channel filtering, dedup, sort, bound, cache write.
type Aggregator struct {
	registry   *catalog.Registry
	feeds      FeedFetcher
	search     Searcher
	store      CacheStore
	maxVideos  int
	minResults int
	relevance  bool

	mu       sync.Mutex
	state    State
	inFlight bool
}

func New(registry *catalog.Registry, feeds FeedFetcher, search Searcher, store CacheStore) *Aggregator {
	c := cfg.Get()

	return &Aggregator{
		registry:   registry,
		feeds:      feeds,
		search:     search,
		store:      store,
		maxVideos:  c.MaxVideos,
		minResults: c.MinResults,
		relevance:  c.RelevanceFilter,
		state:      StateIdle,
	}
}

// Load serves the cached result when it is still valid (unless forced),
// otherwise runs a full aggregation pass. Only one load may be in flight; a
// concurrent call gets ErrRefreshInProgress. On total aggregation failure the
// last cache entry is served regardless of its TTL before giving up.
func (a *Aggregator) Load(ctx context.Context, req Request) (*Result, error) {
	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return nil, ErrRefreshInProgress
	}
	a.inFlight = true
	a.state = StateFetching
	a.mu.Unlock()

	result, err := a.load(ctx, req)

	a.mu.Lock()
	if err != nil {
		a.state = StateFailed
	} else {
		a.state = StateSuccess
	}
	a.inFlight = false
	a.mu.Unlock()

	return result, err
}

// State returns the aggregator's current state and whether a run is active.
func (a *Aggregator) State() (State, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.inFlight
}

// ForceRefresh clears the cache unconditionally and runs a fresh
// aggregation. This is the user-triggered refresh path.
func (a *Aggregator) ForceRefresh(ctx context.Context, category string) (*Result, error) {
	if err := a.store.Clear(); err != nil {
		slog.Warn("Cache clear failed before forced refresh", "error", err)
	}
	return a.Load(ctx, Request{Category: category, ForceRefresh: true})
}

func (a *Aggregator) load(ctx context.Context, req Request) (*Result, error) {
	if !req.ForceRefresh && a.store.IsValid() {
		if entry := a.store.Get(); entry != nil && len(entry.Videos) > 0 {
			slog.Debug("Serving cached videos", "count", len(entry.Videos))
			return &Result{Videos: entry.Videos, Cached: true, StoredAt: entry.StoredAt}, nil
		}
	}

	started := time.Now()
	videos, err := a.aggregate(ctx, req.Category)
	if err != nil {
		// Degraded availability beats zero results: serve the last entry
		// even past its TTL.
		if entry := a.store.Get(); entry != nil && len(entry.Videos) > 0 {
			slog.Warn("Aggregation failed, serving stale cache", "videos", len(entry.Videos), "error", err)
			return &Result{Videos: entry.Videos, Cached: true, Stale: true, StoredAt: entry.StoredAt}, nil
		}
		return nil, err
	}

	slog.Info("Aggregation completed",
		"category", req.Category,
		"videos", len(videos),
		"duration", time.Since(started))

	return &Result{Videos: videos}, nil
}

func (a *Aggregator) aggregate(ctx context.Context, category string) ([]video.Record, error) {
	channels := a.registry.Channels(category)

	records, fetched := a.fetchChannels(ctx, channels)
	attempted := len(channels)

	// Escalation tier 1: the fallback channel set. Merged when no specific
	// category was requested, or when primaries under-delivered.
	if category == "" || category == catalog.CategoryAll || len(records) < a.minResults {
		fallbackRecords, fallbackFetched := a.fetchChannels(ctx, a.registry.FallbackChannels())
		records = append(records, fallbackRecords...)
		fetched += fallbackFetched
		attempted += len(a.registry.FallbackChannels())
	}

	// Escalation tier 2: free-text search.
	if len(records) < a.minResults {
		searchRecords, searchFetched := a.searchQueries(ctx)
		records = append(records, searchRecords...)
		fetched += searchFetched
	}

	if fetched == 0 && attempted > 0 {
		return nil, fmt.Errorf("all sources failed for category %q", category)
	}

	records = a.excludeBlocked(records)
	records = video.Dedupe(records)
	video.SortNewestFirst(records)

	if len(records) > a.maxVideos {
		records = records[:a.maxVideos]
	}

	entry := &cache.Entry{Videos: records, Category: category}
	if err := a.store.Put(entry); err != nil {
		// Cache write failures degrade future loads but never this one.
		slog.Warn("Cache write failed", "error", err)
	}

	return records, nil
}

// fetchChannels fans out one concurrent feed fetch per channel and joins
// all-settled: a failed fetch contributes zero records and never cancels its
// siblings. Returns the flattened records in channel order plus the number of
// sources that succeeded.
func (a *Aggregator) fetchChannels(ctx context.Context, channels []catalog.Channel) ([]video.Record, int) {
	if len(channels) == 0 {
		return nil, 0
	}

	results := make([][]video.Record, len(channels))
	settled := make([]bool, len(channels))

	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch catalog.Channel) {
			defer wg.Done()

			records, err := a.feeds.Fetch(ctx, ch)
			if err != nil {
				slog.Warn("Channel fetch failed", "channel", ch.Name, "error", err)
				return
			}
			results[i] = records
			settled[i] = true
		}(i, ch)
	}
	wg.Wait()

	var flattened []video.Record
	succeeded := 0
	keywords := a.registry.Keywords()

	for i := range channels {
		if !settled[i] {
			continue
		}
		succeeded++
		for _, rec := range results[i] {
			if a.relevance && !video.Relevant(rec.Title, keywords) {
				continue
			}
			flattened = append(flattened, rec)
		}
	}

	return flattened, succeeded
}

// searchQueries fans out the catalog's search queries concurrently. Skipped
// entirely when the search source has no API key.
func (a *Aggregator) searchQueries(ctx context.Context) ([]video.Record, int) {
	queries := a.registry.SearchQueries()
	if len(queries) == 0 {
		return nil, 0
	}
	if !a.search.Available() {
		slog.Debug("Search escalation skipped: source unavailable")
		return nil, 0
	}

	results := make([][]video.Record, len(queries))
	settled := make([]bool, len(queries))

	var wg sync.WaitGroup
	for i, query := range queries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()

			records, err := a.search.Search(ctx, query)
			if err != nil {
				slog.Warn("Search query failed", "query", query, "error", err)
				return
			}
			results[i] = records
			settled[i] = true
		}(i, query)
	}
	wg.Wait()

	var flattened []video.Record
	succeeded := 0
	for i := range queries {
		if !settled[i] {
			continue
		}
		succeeded++
		flattened = append(flattened, results[i]...)
	}

	return flattened, succeeded
}

func (a *Aggregator) excludeBlocked(records []video.Record) []video.Record {
	kept := make([]video.Record, 0, len(records))
	for _, rec := range records {
		if video.Blocked(rec, a.registry) {
			slog.Debug("Excluding video from blocked channel", "channel", rec.ChannelTitle, "video", rec.VideoID)
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// Stats reports aggregator state for the stats endpoint.
func (a *Aggregator) Stats() map[string]any {
	state, inFlight := a.State()
	return map[string]any{
		"state":     string(state),
		"in_flight": inFlight,
		"channels":  a.registry.Size(),
	}
}
