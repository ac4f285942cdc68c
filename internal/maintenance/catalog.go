package maintenance

import (
	"context"
	"log"
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/metrics"
	"github.com/5w1tchy/sigb-catalog/internal/validate"
)

// CachePurger drops expired cached search pages.
type CachePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// StatsRefresher recomputes the catalog_stats table.
type StatsRefresher interface {
	RefreshStats(ctx context.Context) (int64, error)
}

// Jobs are the daily catalog maintenance tasks. A nil field skips that job
// (the Redis cache expires keys on its own).
type Jobs struct {
	Cache CachePurger
	Stats StatsRefresher
}

const jobTimeout = 2 * time.Minute

// RunOnce runs every configured job. A failing job does not stop the others.
func (j Jobs) RunOnce(ctx context.Context) {
	if j.Cache != nil {
		jctx, cancel := context.WithTimeout(ctx, jobTimeout)
		n, err := j.Cache.PurgeExpired(jctx)
		cancel()
		if err != nil {
			metrics.MaintenanceRuns.WithLabelValues("purge_search_cache", "error").Inc()
			log.Printf("[maintenance] purge search_cache failed: %v", err)
		} else {
			metrics.MaintenanceRuns.WithLabelValues("purge_search_cache", "ok").Inc()
			log.Printf("[maintenance] purged %d expired search_cache rows", n)
		}
	}
	if j.Stats != nil {
		jctx, cancel := context.WithTimeout(ctx, jobTimeout)
		n, err := j.Stats.RefreshStats(jctx)
		cancel()
		if err != nil {
			metrics.MaintenanceRuns.WithLabelValues("refresh_stats", "error").Inc()
			log.Printf("[maintenance] refresh catalog_stats failed: %v", err)
		} else {
			metrics.MaintenanceRuns.WithLabelValues("refresh_stats", "ok").Inc()
			log.Printf("[maintenance] catalog_stats refreshed (%d types)", n)
		}
	}
}

// StartCatalogJobs runs the jobs every day at localTime ("HH:MM") in tzName
// until ctx is done. Call once at startup:
//
//	maintenance.StartCatalogJobs(ctx, jobs, "03:00", "Africa/Algiers")
func StartCatalogJobs(ctx context.Context, jobs Jobs, localTime, tzName string) {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Printf("[maintenance] unknown timezone %q, using local time", tzName)
		loc = time.Local
	}
	h, m, err := validate.ParseClock(localTime)
	if err != nil {
		h, m = 3, 0
	}

	go func() {
		for {
			next := NextRun(time.Now(), h, m, loc)
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				jobs.RunOnce(ctx)
			}
		}
	}()
}

// NextRun is the first h:m in loc strictly after now.
func NextRun(now time.Time, h, m int, loc *time.Location) time.Time {
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
