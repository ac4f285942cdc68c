package searchcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
)

// PG keeps cached pages in the search_cache table.
type PG struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPG(db *sql.DB, timeout time.Duration) *PG {
	return &PG{db: db, timeout: timeout}
}

var _ catalog.Cache = (*PG)(nil)

// A hit bumps hit_count in the same statement that reads the entry.
const getSQL = `UPDATE search_cache
SET hit_count = hit_count + 1
WHERE search_hash = $1 AND expires_at > NOW()
RETURNING results, total_count`

const putSQL = `INSERT INTO search_cache
  (search_hash, search_params, results, total_count, created_at, expires_at, hit_count)
VALUES ($1, $2::jsonb, $3::jsonb, $4, NOW(), $5, 0)
ON CONFLICT (search_hash) DO UPDATE
SET results     = EXCLUDED.results,
    total_count = EXCLUDED.total_count,
    expires_at  = EXCLUDED.expires_at,
    hit_count   = search_cache.hit_count + 1`

const purgeSQL = `DELETE FROM search_cache WHERE expires_at <= NOW()`

func (c *PG) Get(ctx context.Context, key string) (*catalog.CachedResult, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	var (
		raw   []byte
		total int
	)
	err := c.db.QueryRowContext(ctx, getSQL, key).Scan(&raw, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search_cache get: %w", err)
	}

	out := &catalog.CachedResult{Total: total}
	if err := json.Unmarshal(raw, &out.Items); err != nil {
		return nil, fmt.Errorf("search_cache decode %s: %w", key, err)
	}
	return out, nil
}

func (c *PG) Put(ctx context.Context, key string, f catalog.Filters, r catalog.CachedResult, ttl time.Duration) error {
	params, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("search_cache encode params: %w", err)
	}
	items := r.Items
	if items == nil {
		items = []catalog.Item{}
	}
	results, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("search_cache encode results: %w", err)
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	expires := time.Now().Add(ttl)
	if _, err := c.db.ExecContext(ctx, putSQL, key, string(params), string(results), r.Total, expires); err != nil {
		return fmt.Errorf("search_cache put: %w", err)
	}
	return nil
}

// PurgeExpired deletes entries past their expiry and reports how many went.
func (c *PG) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, purgeSQL)
	if err != nil {
		return 0, fmt.Errorf("search_cache purge: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
