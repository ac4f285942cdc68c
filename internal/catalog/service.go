package catalog

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/metrics"
)

type Service struct {
	store    Store
	cache    Cache
	cfg      Config
	recorder SearchRecorder
}

// SearchEvent describes one answered search for offline analysis.
type SearchEvent struct {
	Key          string
	Type         DocType
	Availability Availability
	Total        int
	Cached       bool
	Duration     time.Duration
	At           time.Time
}

// SearchRecorder must not block the request.
type SearchRecorder interface {
	RecordSearch(SearchEvent)
}

// NewService wires the search pipeline. cache may be nil to run uncached.
func NewService(store Store, cache Cache, cfg Config) *Service {
	return &Service{store: store, cache: cache, cfg: cfg.withDefaults()}
}

// WithRecorder attaches a search event sink and returns s.
func (s *Service) WithRecorder(r SearchRecorder) *Service {
	s.recorder = r
	return s
}

// SearchCatalog runs one catalog search:
// normalize → cache lookup → query → derive availability → post-filter →
// cache write → respond.
//
// Requests with an availability filter never touch the cache: a cached page
// is computed before post-filtering and would not match the request.
func (s *Service) SearchCatalog(ctx context.Context, raw Filters) (Result, error) {
	start := time.Now()
	f := Normalize(raw)
	typeLabel := string(f.Type)
	defer func() {
		metrics.SearchDuration.WithLabelValues(typeLabel).Observe(time.Since(start).Seconds())
	}()

	guard := &cacheGuard{cache: s.cache}
	useCache := s.cache != nil && !f.NeedsAvailabilityFilter()

	key := CacheKey(f)
	if useCache {
		if hit := guard.get(ctx, key); hit != nil {
			dbg("cache hit %s (%d items)", key, len(hit.Items))
			metrics.Searches.WithLabelValues(typeLabel, "cache").Inc()
			return s.respond(key, f, hit.Items, hit.Total, true, start), nil
		}
	}

	var (
		items   []Item
		total   int
		unknown int
		err     error
	)
	if f.NeedsAvailabilityFilter() {
		items, total, err = s.searchWithAvailability(ctx, f)
	} else {
		items, total, err = s.store.Search(ctx, f, Window{Offset: f.Offset(), Limit: f.Limit})
		if err == nil {
			unknown = DeriveAvailability(ctx, s.store, items)
		}
	}
	if err != nil {
		return Result{}, fmt.Errorf("search catalog: %w", err)
	}
	metrics.Searches.WithLabelValues(typeLabel, "live").Inc()

	// Unknown statuses come from a failed lookup and must not outlive it.
	if useCache && unknown == 0 {
		guard.put(ctx, key, f, CachedResult{Items: items, Total: total}, s.cfg.CacheTTL)
	}
	return s.respond(key, f, items, total, false, start), nil
}

// searchWithAvailability scans windows of max(5×limit, 100) rows from the
// top of the ordered set, keeps the rows matching the availability
// predicate, and pages the survivors with the caller's page/limit. Scanning
// stops when the source runs dry or exactly MaxAvailabilityScan rows were
// examined; the last window is shortened to land on the cap.
func (s *Service) searchWithAvailability(ctx context.Context, f Filters) ([]Item, int, error) {
	window := max(availabilityWindowFactor*f.Limit, minAvailabilityWindow)

	var matched []Item
	scanned := 0
	for {
		limit := min(window, s.cfg.MaxAvailabilityScan-scanned)
		batch, _, err := s.store.Search(ctx, f, Window{Offset: scanned, Limit: limit})
		if err != nil {
			return nil, 0, err
		}
		DeriveAvailability(ctx, s.store, batch)
		matched = append(matched, FilterByAvailability(batch, f.Availability)...)
		scanned += len(batch)

		if len(batch) < limit {
			break
		}
		if scanned >= s.cfg.MaxAvailabilityScan {
			log.Printf("[catalog] availability scan capped at %d rows (availability=%s type=%s)", scanned, f.Availability, f.Type)
			break
		}
	}
	dbg("availability=%s scanned=%d matched=%d", f.Availability, scanned, len(matched))
	return Paginate(matched, f.Page, f.Limit), len(matched), nil
}

func (s *Service) respond(key string, f Filters, items []Item, total int, cached bool, start time.Time) Result {
	if items == nil {
		items = []Item{}
	}
	if s.recorder != nil {
		s.recorder.RecordSearch(SearchEvent{
			Key:          key,
			Type:         f.Type,
			Availability: f.Availability,
			Total:        total,
			Cached:       cached,
			Duration:     time.Since(start),
			At:           start.UTC(),
		})
	}
	return Result{
		Data:          items,
		Total:         total,
		Page:          f.Page,
		Limit:         f.Limit,
		TotalPages:    TotalPages(total, f.Limit),
		Cached:        cached,
		ExecutionTime: time.Since(start).Milliseconds(),
	}
}

// CatalogStats returns per-type totals from the precomputed stats table.
func (s *Service) CatalogStats(ctx context.Context) ([]TypeStats, error) {
	st, err := s.store.CatalogStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	return st, nil
}

// cacheGuard is request-scoped: cache failures degrade to misses and are
// logged once per request.
type cacheGuard struct {
	cache  Cache
	warned bool
}

func (g *cacheGuard) get(ctx context.Context, key string) *CachedResult {
	hit, err := g.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheErrors.WithLabelValues("get").Inc()
		g.warnOnce("cache get failed: %v; bypassing cache for this request", err)
		return nil
	}
	return hit
}

func (g *cacheGuard) put(ctx context.Context, key string, f Filters, r CachedResult, ttl time.Duration) {
	if err := g.cache.Put(ctx, key, f, r, ttl); err != nil {
		metrics.CacheErrors.WithLabelValues("put").Inc()
		g.warnOnce("cache put failed: %v", err)
	}
}

func (g *cacheGuard) warnOnce(format string, args ...any) {
	if g.warned {
		return
	}
	g.warned = true
	log.Printf("[catalog][cache] "+format, args...)
}
