package catalog

import (
	"log"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultCacheTTL is how long a cached search page stays servable.
	DefaultCacheTTL = 5 * time.Minute

	// Availability requests pull at least this many rows per window.
	minAvailabilityWindow    = 100
	availabilityWindowFactor = 5
	defaultMaxScan           = 1000
)

type Config struct {
	CacheTTL time.Duration
	// MaxAvailabilityScan caps the rows examined in memory for one
	// availability-filtered request.
	MaxAvailabilityScan int
}

// ConfigFromEnv reads CATALOG_CACHE_TTL (Go duration or seconds) and
// CATALOG_AVAILABILITY_MAX_SCAN, falling back to defaults on bad input.
func ConfigFromEnv() Config {
	cfg := Config{CacheTTL: DefaultCacheTTL, MaxAvailabilityScan: defaultMaxScan}
	if v := os.Getenv("CATALOG_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CacheTTL = d
		} else if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.CacheTTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("CATALOG_AVAILABILITY_MAX_SCAN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAvailabilityScan = n
		}
	}
	return cfg
}

func (c Config) withDefaults() Config {
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.MaxAvailabilityScan <= 0 {
		c.MaxAvailabilityScan = defaultMaxScan
	}
	return c
}

func debugEnabled() bool { return os.Getenv("CATALOG_DEBUG") == "1" }

func dbg(format string, args ...any) {
	if debugEnabled() {
		log.Printf("[catalog] "+format, args...)
	}
}
