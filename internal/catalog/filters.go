package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type DocType string

const (
	TypeAll      DocType = "all"
	TypeBooks    DocType = "books"
	TypeTheses   DocType = "theses"
	TypeMemoires DocType = "memoires"
	TypeReports  DocType = "reports"
)

type Availability string

const (
	AvailabilityAll         Availability = "all"
	AvailabilityAvailable   Availability = "available"
	AvailabilityUnavailable Availability = "unavailable"
	AvailabilityBorrowed    Availability = "borrowed"
	AvailabilityReserved    Availability = "reserved"
)

const (
	DefaultLimit = 24
	MaxLimit     = 100
)

// Filters is the request side of a catalog search. Field order is part of the
// cache key (json.Marshal follows declaration order), so append new fields at
// the end.
type Filters struct {
	Type           DocType      `json:"type"`
	Search         string       `json:"search"`
	Domain         string       `json:"domain"`
	Year           string       `json:"year"`
	Availability   Availability `json:"availability"`
	Language       string       `json:"language"`
	Format         string       `json:"format"`
	Level          string       `json:"level"`
	Publisher      string       `json:"publisher"`
	Classification string       `json:"classification"`
	Page           int          `json:"page"`
	Limit          int          `json:"limit"`
}

// NeedsAvailabilityFilter reports whether the request carries a derived
// availability predicate that the query layer cannot evaluate.
func (f Filters) NeedsAvailabilityFilter() bool {
	return f.Availability != "" && f.Availability != AvailabilityAll
}

// Offset is the row offset of the requested page.
func (f Filters) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Normalize coerces raw filters into canonical form. It never fails: unknown
// enum values fall back to "all", the "all" sentinel on free-form fields
// becomes "", and paging is clamped.
func Normalize(f Filters) Filters {
	out := Filters{
		Type:           normalizeType(f.Type),
		Search:         normalizeSearch(f.Search),
		Domain:         sentinel(f.Domain),
		Year:           normalizeYear(f.Year),
		Availability:   normalizeAvailability(f.Availability),
		Language:       sentinel(f.Language),
		Format:         sentinel(f.Format),
		Level:          sentinel(f.Level),
		Publisher:      sentinel(f.Publisher),
		Classification: sentinel(f.Classification),
		Page:           f.Page,
		Limit:          f.Limit,
	}
	if out.Page < 1 {
		out.Page = 1
	}
	if out.Limit < 1 {
		out.Limit = DefaultLimit
	}
	if out.Limit > MaxLimit {
		out.Limit = MaxLimit
	}
	return out
}

// FiltersFromQuery reads the flattened query-string shape and normalizes it.
// "q" is accepted as an alias of "search".
func FiltersFromQuery(q url.Values) Filters {
	search := q.Get("search")
	if search == "" {
		search = q.Get("q")
	}
	return Normalize(Filters{
		Type:           DocType(q.Get("type")),
		Search:         search,
		Domain:         q.Get("domain"),
		Year:           q.Get("year"),
		Availability:   Availability(q.Get("availability")),
		Language:       q.Get("language"),
		Format:         q.Get("format"),
		Level:          q.Get("level"),
		Publisher:      q.Get("publisher"),
		Classification: q.Get("classification"),
		Page:           atoi(q.Get("page")),
		Limit:          atoi(q.Get("limit")),
	})
}

func normalizeType(t DocType) DocType {
	switch DocType(strings.ToLower(strings.TrimSpace(string(t)))) {
	case TypeBooks:
		return TypeBooks
	case TypeTheses:
		return TypeTheses
	case TypeMemoires:
		return TypeMemoires
	case TypeReports:
		return TypeReports
	default:
		return TypeAll
	}
}

func normalizeAvailability(a Availability) Availability {
	switch Availability(strings.ToLower(strings.TrimSpace(string(a)))) {
	case AvailabilityAvailable:
		return AvailabilityAvailable
	case AvailabilityUnavailable:
		return AvailabilityUnavailable
	case AvailabilityBorrowed:
		return AvailabilityBorrowed
	case AvailabilityReserved:
		return AvailabilityReserved
	default:
		return AvailabilityAll
	}
}

func sentinel(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}

func normalizeSearch(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

func normalizeYear(s string) string {
	s = sentinel(s)
	if s == "" || len(s) > 4 {
		return ""
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
