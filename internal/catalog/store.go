package catalog

import (
	"context"
	"time"
)

// Window selects rows [Offset, Offset+Limit) of the ordered result set.
type Window struct {
	Offset int
	Limit  int
}

// ActivityCounter returns active loan / reservation counts keyed by document
// id for one document type. Ids without activity are absent from the map.
type ActivityCounter interface {
	ActiveLoanCounts(ctx context.Context, t ItemType, ids []int64) (map[int64]int, error)
	ActiveReservationCounts(ctx context.Context, t ItemType, ids []int64) (map[int64]int, error)
}

// Store is the read side of the catalog data store.
type Store interface {
	ActivityCounter

	// Search returns one window of publicly visible items matching f, ordered
	// by created_at DESC, id DESC, plus the total number of matches. Items come
	// back without derived availability.
	Search(ctx context.Context, f Filters, w Window) ([]Item, int, error)

	CatalogStats(ctx context.Context) ([]TypeStats, error)
}

// CachedResult is the payload kept per cache key.
type CachedResult struct {
	Items []Item `json:"data"`
	Total int    `json:"total"`
}

// Cache is a key/value result store with expiry. Get returns (nil, nil) on
// a miss. Errors are advisory: callers treat them as misses.
type Cache interface {
	Get(ctx context.Context, key string) (*CachedResult, error)
	Put(ctx context.Context, key string, f Filters, r CachedResult, ttl time.Duration) error
}
