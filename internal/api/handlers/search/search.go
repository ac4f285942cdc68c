// Package search serves the public catalog search and stats endpoints.
package search

import (
	"context"
	"log"
	"net/http"

	"github.com/5w1tchy/sigb-catalog/internal/api/apperr"
	"github.com/5w1tchy/sigb-catalog/internal/api/httpx"
	"github.com/5w1tchy/sigb-catalog/internal/api/middlewares"
	"github.com/5w1tchy/sigb-catalog/internal/catalog"
)

// Catalog is the part of catalog.Service the handlers need.
type Catalog interface {
	SearchCatalog(ctx context.Context, f catalog.Filters) (catalog.Result, error)
	CatalogStats(ctx context.Context) ([]catalog.TypeStats, error)
}

// Search handles GET /catalog/search. Filters come from the query string;
// malformed values are normalized rather than rejected. The body is the
// search result itself.
func Search(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := catalog.FiltersFromQuery(r.URL.Query())

		res, err := svc.SearchCatalog(r.Context(), f)
		if err != nil {
			log.Printf("[catalog] rid=%s search failed (type=%s availability=%s): %v",
				middlewares.GetRequestID(r), f.Type, f.Availability, err)
			apperr.HandleDBError(w, r, err, "Search failed")
			return
		}
		if res.Cached {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
		httpx.WriteJSON(w, http.StatusOK, res)
	}
}

// Stats handles GET /catalog/stats.
func Stats(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.CatalogStats(r.Context())
		if err != nil {
			log.Printf("[catalog] rid=%s stats failed: %v", middlewares.GetRequestID(r), err)
			apperr.HandleDBError(w, r, err, "Stats unavailable")
			return
		}
		httpx.OK(w, st)
	}
}
