package middlewares

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/5w1tchy/sigb-catalog/internal/api/apperr"
	"github.com/5w1tchy/sigb-catalog/internal/metrics"
)

// Recovery turns a handler panic into a problem+json 500.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			rid := GetRequestID(r)
			if rid == "" {
				rid = "unknown"
			}
			metrics.Panics.Inc()
			log.Printf("[PANIC] rid=%s %s %s: %v\n%s", rid, r.Method, r.URL.Path, rec, debug.Stack())

			apperr.Write(w, r, apperr.Problem{
				Status:    http.StatusInternalServerError,
				Title:     "Internal Server Error",
				RequestID: rid,
			})
		}()
		next.ServeHTTP(w, r)
	})
}
