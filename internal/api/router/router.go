package router

import (
	"net/http"

	"github.com/5w1tchy/sigb-catalog/internal/api/handlers"
	"github.com/5w1tchy/sigb-catalog/internal/api/handlers/search"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router mounts the public catalog endpoints plus health and metrics.
func Router(svc search.Catalog, db handlers.Pinger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /catalog/search", search.Search(svc))
	mux.Handle("GET /catalog/stats", search.Stats(svc))

	// Keep trailing-slash variants working for older clients
	mux.HandleFunc("GET /catalog/search/", func(w http.ResponseWriter, r *http.Request) {
		target := "/catalog/search"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})

	mux.Handle("GET /healthz", handlers.Healthz(db))
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
