// Package searchcache holds the catalog.Cache backends: the search_cache
// table in Postgres and a Redis hash per key.
package searchcache

import (
	"context"
	"os"
	"strconv"
	"time"
)

// DefaultTimeout bounds each cache round trip so a slow cache cannot hold up
// a search.
const DefaultTimeout = 150 * time.Millisecond

// TimeoutFromEnv reads CATALOG_CACHE_TIMEOUT_MS.
func TimeoutFromEnv() time.Duration {
	if v := os.Getenv("CATALOG_CACHE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return DefaultTimeout
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
