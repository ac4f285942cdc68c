package apperr

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// FromPG maps a Postgres error to a Problem. Returns (Problem, true) if
// mapped. The catalog only reads, so constraint violations do not reach here;
// what does is load shedding, timeouts and schema drift.
func FromPG(err error) (Problem, bool) {
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return Problem{}, false
	}

	p := Problem{
		Title:  "Database error",
		Status: http.StatusInternalServerError,
	}

	switch pg.Code {
	case "57014": // query_canceled (statement_timeout)
		p.Status = http.StatusServiceUnavailable
		p.Title = "Service Unavailable"
		p.Detail = "search took too long, please retry"
		p.Retryable = true
	case "53300", "57P03": // too_many_connections, cannot_connect_now
		p.Status = http.StatusServiceUnavailable
		p.Title = "Service Unavailable"
		p.Detail = "database is busy, please retry"
		p.Retryable = true
	case "40001", "40P01": // serialization_failure, deadlock_detected
		p.Status = http.StatusServiceUnavailable
		p.Title = "Service Unavailable"
		p.Detail = "transaction conflict, please retry"
		p.Retryable = true
	case "22P02", "22007", "22008": // bad text/datetime representation
		p.Status = http.StatusBadRequest
		p.Title = "Bad Request"
		p.FieldErrors = []FieldError{{Field: fieldFromColumn(pg), Code: "invalid", Message: "invalid format"}}
	case "42P01", "42703": // undefined_table, undefined_column
		// schema drift; never echo identifiers to clients
		log.Printf("[db] schema error %s: %s", pg.Code, strings.TrimSpace(pg.Message))
	}
	return p, true
}

func fieldFromColumn(pg *pgconn.PgError) string {
	if pg.ColumnName != "" {
		return pg.ColumnName
	}
	return "filter"
}

// HandleDBError maps err to a Problem and writes it. Returns true if handled.
func HandleDBError(w http.ResponseWriter, r *http.Request, err error, fallbackTitle string) bool {
	if err == nil {
		return false
	}
	if p, ok := FromPG(err); ok {
		Write(w, r, p)
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		Write(w, r, Problem{Status: http.StatusServiceUnavailable, Title: "Service Unavailable", Retryable: true})
		return true
	}
	Write(w, r, Problem{Status: http.StatusInternalServerError, Title: fallbackTitle})
	return true
}
