package catalog

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
)

// CacheKey hashes the canonical JSON form of the normalized filters.
func CacheKey(f Filters) string {
	b, _ := json.Marshal(Normalize(f)) // Filters has no unmarshalable fields
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
