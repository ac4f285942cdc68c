package middlewares

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/api/apperr"
	"github.com/5w1tchy/sigb-catalog/internal/catalog"
	"github.com/5w1tchy/sigb-catalog/internal/metrics"
	"github.com/redis/go-redis/v9"
)

type KeyFunc func(r *http.Request) string

// PerIPKey keys limits by client address; the catalog is anonymous.
func PerIPKey(prefix string) KeyFunc {
	return func(r *http.Request) string {
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		return prefix + ":" + ip
	}
}

func clientIP(r *http.Request) string {
	// X-Forwarded-For may have a list: client, proxy1, proxy2...
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, _ := strings.Cut(xff, ","); strings.TrimSpace(first) != "" {
			return strings.TrimSpace(first)
		}
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// Budget is a token bucket: Rate tokens per second up to Burst.
type Budget struct {
	Rate  float64
	Burst int
}

const (
	PolicySearch       = "search"
	PolicyAvailability = "availability"
)

var (
	DefaultSearchBudget       = Budget{Rate: 10, Burst: 40}
	DefaultAvailabilityBudget = Budget{Rate: 1, Burst: 5}
)

// BudgetsFromEnv reads CATALOG_RATE_PER_SEC / CATALOG_RATE_BURST and the
// CATALOG_AVAILABILITY_RATE_* pair, keeping defaults for unset or bad values.
func BudgetsFromEnv() (search, availability Budget) {
	return budgetFromEnv("CATALOG_RATE", DefaultSearchBudget),
		budgetFromEnv("CATALOG_AVAILABILITY_RATE", DefaultAvailabilityBudget)
}

func budgetFromEnv(prefix string, def Budget) Budget {
	b := def
	if f, err := strconv.ParseFloat(os.Getenv(prefix+"_PER_SEC"), 64); err == nil && f > 0 {
		b.Rate = f
	}
	if n, err := strconv.Atoi(os.Getenv(prefix + "_BURST")); err == nil && n > 0 {
		b.Burst = n
	}
	return b
}

// KEYS[1] = bucket hash {tokens, ts}
// ARGV[1] = rate per second, ARGV[2] = burst, ARGV[3] = now (unix ms)
// Returns {allowed 1/0, whole tokens left, wait ms}.
const bucketLua = `
local rate  = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now   = tonumber(ARGV[3])

local b = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(b[1])
local ts = tonumber(b[2])
if tokens == nil or ts == nil then
  tokens = burst
  ts = now
end
if now > ts then
  tokens = math.min(burst, tokens + (now - ts) * rate / 1000)
end

local wait = 0
if tokens >= 1 then
  tokens = tokens - 1
else
  wait = math.ceil((1 - tokens) * 1000 / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', ARGV[3])
redis.call('PEXPIRE', KEYS[1], math.ceil(burst * 1000 / rate))

local allowed = 0
if wait == 0 then allowed = 1 end
return {allowed, math.floor(tokens), wait}
`

// SearchLimiter meters catalog requests per client. Availability-filtered
// searches draw from their own, tighter bucket because each one can scan up
// to the availability cap. Redis failures let the request through.
type SearchLimiter struct {
	rdb          redis.Scripter
	keyFn        KeyFunc
	search       Budget
	availability Budget
	script       *redis.Script
	now          func() time.Time
}

func NewSearchLimiter(rdb redis.Scripter, keyFn KeyFunc, search, availability Budget) *SearchLimiter {
	return &SearchLimiter{
		rdb:          rdb,
		keyFn:        keyFn,
		search:       search,
		availability: availability,
		script:       redis.NewScript(bucketLua),
		now:          time.Now,
	}
}

// policy picks the bucket a request is charged to.
func (l *SearchLimiter) policy(r *http.Request) (string, Budget) {
	if r.URL.Path == "/catalog/search" && catalog.FiltersFromQuery(r.URL.Query()).NeedsAvailabilityFilter() {
		return PolicyAvailability, l.availability
	}
	return PolicySearch, l.search
}

func (l *SearchLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		policy, budget := l.policy(r)
		key := l.keyFn(r) + ":" + policy

		ctx, cancel := context.WithTimeout(r.Context(), 250*time.Millisecond)
		res, err := l.script.Run(ctx, l.rdb, []string{key},
			strconv.FormatFloat(budget.Rate, 'f', -1, 64),
			strconv.Itoa(budget.Burst),
			strconv.FormatInt(l.now().UnixMilli(), 10),
		).Int64Slice()
		cancel()
		if err != nil || len(res) != 3 {
			log.Printf("[ratelimit] redis error on %s: %v (allowing request)", policy, err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Policy", policy)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(budget.Burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))

		if res[0] != 1 {
			sec := max((res[2]+999)/1000, 1)
			w.Header().Set("Retry-After", strconv.FormatInt(sec, 10))
			log.Printf("[ratelimit] blocked key=%s retry_after=%ds", key, sec)
			tooMany(w, r, policy)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tooMany(w http.ResponseWriter, r *http.Request, policy string) {
	metrics.RateLimited.WithLabelValues(policy).Inc()
	apperr.Write(w, r, apperr.Problem{
		Status:    http.StatusTooManyRequests,
		Title:     "Too Many Requests",
		Retryable: true,
	})
}
