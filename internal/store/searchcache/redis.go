package searchcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "catalog:search:"

// Redis keeps one hash per cached page (params, results, total, created_at,
// hits) and relies on key expiry for the TTL.
type Redis struct {
	rdb     redis.Scripter
	timeout time.Duration
	get     *redis.Script
	put     *redis.Script
}

var _ catalog.Cache = (*Redis)(nil)

// KEYS[1] = entry key
// Returns false on miss, else {results, total}.
const getLua = `
if redis.call('EXISTS', KEYS[1]) == 0 then
  return false
end
redis.call('HINCRBY', KEYS[1], 'hits', 1)
return redis.call('HMGET', KEYS[1], 'results', 'total')
`

// KEYS[1] = entry key
// ARGV[1] = params json, ARGV[2] = results json, ARGV[3] = total,
// ARGV[4] = created_at (unix ms), ARGV[5] = ttl ms
const putLua = `
local existed = redis.call('EXISTS', KEYS[1])
redis.call('HSET', KEYS[1], 'params', ARGV[1], 'results', ARGV[2], 'total', ARGV[3])
if existed == 1 then
  redis.call('HINCRBY', KEYS[1], 'hits', 1)
else
  redis.call('HSET', KEYS[1], 'created_at', ARGV[4], 'hits', 0)
end
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return existed
`

func NewRedis(rdb redis.Scripter, timeout time.Duration) *Redis {
	return &Redis{
		rdb:     rdb,
		timeout: timeout,
		get:     redis.NewScript(getLua),
		put:     redis.NewScript(putLua),
	}
}

func redisKey(key string) string { return keyPrefix + key }

func (c *Redis) Get(ctx context.Context, key string) (*catalog.CachedResult, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.get.Run(ctx, c.rdb, []string{redisKey(key)}).Slice()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis cache get: %w", err)
	}
	return decodeEntry(res)
}

// decodeEntry turns the {results, total} reply of the get script into a
// cached page. A hash missing either field is a miss.
func decodeEntry(res []any) (*catalog.CachedResult, error) {
	if len(res) != 2 || res[0] == nil || res[1] == nil {
		return nil, nil
	}
	total, err := strconv.Atoi(asString(res[1]))
	if err != nil {
		return nil, fmt.Errorf("redis cache total: %w", err)
	}
	out := &catalog.CachedResult{Total: total}
	if err := json.Unmarshal([]byte(asString(res[0])), &out.Items); err != nil {
		return nil, fmt.Errorf("redis cache decode: %w", err)
	}
	return out, nil
}

func (c *Redis) Put(ctx context.Context, key string, f catalog.Filters, r catalog.CachedResult, ttl time.Duration) error {
	params, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("redis cache encode params: %w", err)
	}
	items := r.Items
	if items == nil {
		items = []catalog.Item{}
	}
	results, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("redis cache encode results: %w", err)
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	err = c.put.Run(ctx, c.rdb, []string{redisKey(key)},
		string(params),
		string(results),
		strconv.Itoa(r.Total),
		strconv.FormatInt(time.Now().UnixMilli(), 10),
		strconv.FormatInt(ttl.Milliseconds(), 10),
	).Err()
	if err != nil {
		return fmt.Errorf("redis cache put: %w", err)
	}
	return nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
