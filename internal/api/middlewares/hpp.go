package middlewares

import (
	"net/http"
	"slices"
)

// HPPOptions configures HTTP parameter pollution protection for query
// strings: repeated parameters collapse to their first value and parameters
// outside Whitelist are dropped.
type HPPOptions struct {
	Whitelist []string
}

func HPP(opts HPPOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != "" {
				filterQueryParams(r, opts.Whitelist)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func filterQueryParams(r *http.Request, whitelist []string) {
	query := r.URL.Query()
	for k, v := range query {
		if !slices.Contains(whitelist, k) {
			query.Del(k)
			continue
		}
		if len(v) > 1 {
			query.Set(k, v[0])
		}
	}
	r.URL.RawQuery = query.Encode()
}

// CatalogHPPOptions whitelists the catalog search filters.
func CatalogHPPOptions() HPPOptions {
	return HPPOptions{
		Whitelist: []string{
			"type", "search", "q",
			"domain", "year", "availability",
			"language", "format", "level",
			"publisher", "classification",
			"page", "limit",
		},
	}
}
