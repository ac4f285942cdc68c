package validate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Env validates the catalog service configuration. Fail-fast on bad config.
func Env() error {
	if strings.TrimSpace(os.Getenv("DATABASE_URL")) == "" {
		return errors.New("DATABASE_URL must be set")
	}

	backend, err := ParseCacheBackend(os.Getenv("CATALOG_CACHE_BACKEND"))
	if err != nil {
		return fmt.Errorf("CATALOG_CACHE_BACKEND: %w", err)
	}
	if backend == CacheRedis && !RedisConfigured() {
		return errors.New("CATALOG_CACHE_BACKEND=redis needs UPSTASH_REDIS_URL or REDIS_ADDR")
	}

	if v := os.Getenv("CATALOG_CACHE_TTL"); v != "" {
		if _, err := envDuration("CATALOG_CACHE_TTL", v); err != nil {
			// bare seconds are accepted too
			if err := envMinUint("CATALOG_CACHE_TTL", 1); err != nil {
				return fmt.Errorf("CATALOG_CACHE_TTL: %w", err)
			}
		}
	}
	if err := envMinUint("CATALOG_CACHE_TIMEOUT_MS", 1); err != nil {
		return fmt.Errorf("CATALOG_CACHE_TIMEOUT_MS: %w", err)
	}
	if err := envMinUint("CATALOG_AVAILABILITY_MAX_SCAN", 100); err != nil {
		return fmt.Errorf("CATALOG_AVAILABILITY_MAX_SCAN: %w", err)
	}

	for _, k := range []string{"CATALOG_RATE_PER_SEC", "CATALOG_AVAILABILITY_RATE_PER_SEC"} {
		if err := envPositiveFloat(k); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	for _, k := range []string{"CATALOG_RATE_BURST", "CATALOG_AVAILABILITY_RATE_BURST"} {
		if err := envMinUint(k, 1); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}

	if v := os.Getenv("CATALOG_JOBS_AT"); v != "" {
		if _, _, err := ParseClock(v); err != nil {
			return fmt.Errorf("CATALOG_JOBS_AT: %w", err)
		}
	}
	if v := os.Getenv("CATALOG_JOBS_TZ"); v != "" {
		if _, err := time.LoadLocation(v); err != nil {
			return fmt.Errorf("CATALOG_JOBS_TZ: %w", err)
		}
	}

	if (os.Getenv("TLS_CERT") == "") != (os.Getenv("TLS_KEY") == "") {
		return errors.New("TLS_CERT and TLS_KEY must be set together")
	}
	return nil
}

// RedisConfigured reports whether either Redis configuration path is set.
func RedisConfigured() bool {
	return os.Getenv("UPSTASH_REDIS_URL") != "" || os.Getenv("REDIS_ADDR") != ""
}

// HardeningWarnings returns non-fatal warnings to log on startup.
func HardeningWarnings(appEnv string) []string {
	var warns []string

	if d, err := envDuration("CATALOG_CACHE_TTL", os.Getenv("CATALOG_CACHE_TTL")); err == nil && d > time.Hour {
		warns = append(warns, fmt.Sprintf("CATALOG_CACHE_TTL=%s is > 1h; cached pages carry stale availability for longer", d))
	}
	if os.Getenv("CATALOG_RATE_PER_SEC") != "" && os.Getenv("CATALOG_AVAILABILITY_RATE_PER_SEC") != "" {
		plain, _ := strconv.ParseFloat(os.Getenv("CATALOG_RATE_PER_SEC"), 64)
		avail, _ := strconv.ParseFloat(os.Getenv("CATALOG_AVAILABILITY_RATE_PER_SEC"), 64)
		if avail > plain {
			warns = append(warns, "CATALOG_AVAILABILITY_RATE_PER_SEC exceeds CATALOG_RATE_PER_SEC; availability scans are the expensive path")
		}
	}
	if os.Getenv("CATALOG_DEBUG") == "1" {
		warns = append(warns, "CATALOG_DEBUG=1 logs every cache hit and availability scan")
	}

	if strings.EqualFold(appEnv, "production") {
		if os.Getenv("TLS_CERT") == "" {
			warns = append(warns, "TLS_CERT/TLS_KEY not set; serving plain HTTP (expected only behind a TLS proxy)")
		}
		if u := os.Getenv("UPSTASH_REDIS_URL"); u != "" && strings.HasPrefix(u, "redis://") {
			warns = append(warns, "UPSTASH_REDIS_URL uses redis:// (no TLS). Prefer rediss:// for TLS")
		}
		if os.Getenv("UPSTASH_REDIS_URL") == "" && os.Getenv("REDIS_ADDR") != "" &&
			(os.Getenv("REDIS_PASSWORD") == "" || os.Getenv("REDIS_USER") == "") {
			warns = append(warns, "REDIS_ADDR provided without REDIS_USER/REDIS_PASSWORD; require auth in production")
		}
		if os.Getenv("CORS_ORIGINS") == "" {
			warns = append(warns, "CORS_ORIGINS not set; only localhost frontends are allowed")
		}
	}
	return warns
}

// PingRedis checks connectivity with a short timeout.
func PingRedis(rdb *redis.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_, err := rdb.Ping(ctx).Result()
	return err
}

// --- helpers ---

func envDuration(key, def string) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		s = def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func envMinUint(key string, min uint64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil // unset -> code defaults apply elsewhere
	}
	n, err := parseUint(v)
	if err != nil {
		return fmt.Errorf("not a number: %v", err)
	}
	if n < min {
		return fmt.Errorf("must be >= %d", min)
	}
	return nil
}

func envPositiveFloat(key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("not a number: %v", err)
	}
	if f <= 0 {
		return errors.New("must be > 0")
	}
	return nil
}
