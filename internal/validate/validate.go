package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalid = errors.New("invalid")

type CacheBackend string

const (
	CachePostgres CacheBackend = "postgres"
	CacheRedis    CacheBackend = "redis"
	CacheOff      CacheBackend = "off"
)

// ParseCacheBackend maps CATALOG_CACHE_BACKEND to a backend; empty means
// postgres.
func ParseCacheBackend(s string) (CacheBackend, error) {
	switch CacheBackend(strings.ToLower(strings.TrimSpace(s))) {
	case "", CachePostgres:
		return CachePostgres, nil
	case CacheRedis:
		return CacheRedis, nil
	case CacheOff, "none", "disabled":
		return CacheOff, nil
	}
	return "", fmt.Errorf("%w cache backend %q (want postgres, redis or off)", ErrInvalid, s)
}

// ParseClock parses a 24h "HH:MM" wall-clock time.
func ParseClock(s string) (hour, minute int, err error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w clock %q (want HH:MM)", ErrInvalid, s)
	}
	h, err1 := strconv.Atoi(hs)
	m, err2 := strconv.Atoi(ms)
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("%w clock %q (want HH:MM)", ErrInvalid, s)
	}
	return h, m, nil
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(s), 10, 64)
}
