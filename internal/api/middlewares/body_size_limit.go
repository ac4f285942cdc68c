package middlewares

import (
	"net/http"
	"os"
	"strconv"
)

// BodySizeLimit caps request bodies. The catalog reads filters from the
// query string, so the default is small; MAX_BODY_SIZE overrides it.
func BodySizeLimit(next http.Handler) http.Handler {
	limit := int64(64 * 1024)
	if v := os.Getenv("MAX_BODY_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}
