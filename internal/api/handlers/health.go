package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/api/httpx"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Healthz reports whether the database answers within a second.
func Healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "db": "down"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "up"})
	}
}
