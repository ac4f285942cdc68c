// Package searchqueue records answered catalog searches into search_events
// off the request path. Writes are batched by a small worker pool and are
// best-effort: when the buffer is full, events are dropped.
package searchqueue

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var dropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "catalog_search_events_dropped_total",
	Help: "Search events dropped because the queue was full or the insert failed.",
})

const (
	batchSize  = 100
	flushEvery = 250 * time.Millisecond
	writeTO    = 500 * time.Millisecond
	insertHead = `INSERT INTO search_events (search_hash, doc_type, availability, total, cached, duration_ms, searched_at) VALUES `
)

type Queue struct {
	db      *sql.DB
	ch      chan catalog.SearchEvent
	done    chan struct{}
	wg      sync.WaitGroup
	stopped sync.Once
}

// Start spins up workers draining a buffer of buf events.
// Suggested: buf=10000, workers=2.
func Start(db *sql.DB, buf, workers int) *Queue {
	q := &Queue{
		db:   db,
		ch:   make(chan catalog.SearchEvent, max(buf, 1)),
		done: make(chan struct{}),
	}
	for range max(workers, 1) {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// RecordSearch queues ev without blocking.
func (q *Queue) RecordSearch(ev catalog.SearchEvent) {
	select {
	case q.ch <- ev:
	default:
		dropped.Inc()
	}
}

// Shutdown stops the workers after flushing what is queued.
func (q *Queue) Shutdown() {
	q.stopped.Do(func() {
		close(q.done)
		q.wg.Wait()
	})
}

func (q *Queue) worker() {
	defer q.wg.Done()
	tk := time.NewTicker(flushEvery)
	defer tk.Stop()

	batch := make([]catalog.SearchEvent, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := q.insertBatch(batch); err != nil {
			dropped.Add(float64(len(batch)))
			log.Printf("[search-events] insert of %d events failed: %v", len(batch), err)
		}
		batch = batch[:0]
	}
	add := func(ev catalog.SearchEvent) {
		batch = append(batch, ev)
		if len(batch) >= batchSize {
			flush()
		}
	}

	for {
		select {
		case <-q.done:
			for {
				select {
				case ev := <-q.ch:
					add(ev)
				default:
					flush()
					return
				}
			}
		case ev := <-q.ch:
			add(ev)
		case <-tk.C:
			flush()
		}
	}
}

// InsertSQL builds the multi-row insert for n events.
func InsertSQL(n int) string {
	var b strings.Builder
	b.WriteString(insertHead)
	for i := range n {
		if i > 0 {
			b.WriteByte(',')
		}
		p := 7 * i
		fmt.Fprintf(&b, "($%d,$%d,$%d,$%d,$%d,$%d,$%d)", p+1, p+2, p+3, p+4, p+5, p+6, p+7)
	}
	return b.String()
}

func (q *Queue) insertBatch(batch []catalog.SearchEvent) error {
	args := make([]any, 0, len(batch)*7)
	for _, ev := range batch {
		args = append(args, ev.Key, string(ev.Type), string(ev.Availability), ev.Total, ev.Cached, ev.Duration.Milliseconds(), ev.At)
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTO)
	defer cancel()
	_, err := q.db.ExecContext(ctx, InsertSQL(len(batch)), args...)
	return err
}
