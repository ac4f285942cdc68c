package catalog

import "time"

// ItemType discriminates catalog items. The values match the document_type
// column of loans and reservations.
type ItemType string

const (
	ItemBook    ItemType = "book"
	ItemThese   ItemType = "these"
	ItemMemoire ItemType = "memoire"
	ItemReport  ItemType = "rapport_stage"
)

// ItemTypes lists every document type in federated order.
var ItemTypes = []ItemType{ItemBook, ItemThese, ItemMemoire, ItemReport}

// ItemTypeFor maps a filter type to the single item type it selects.
// ok is false for TypeAll.
func ItemTypeFor(t DocType) (ItemType, bool) {
	switch t {
	case TypeBooks:
		return ItemBook, true
	case TypeTheses:
		return ItemThese, true
	case TypeMemoires:
		return ItemMemoire, true
	case TypeReports:
		return ItemReport, true
	}
	return "", false
}

// MultiCopy reports whether availability is driven by copy counts (books)
// rather than by the single conceptual copy of an academic document.
func (t ItemType) MultiCopy() bool { return t == ItemBook }

type AvailabilityStatus string

const (
	StatusDisponible   AvailabilityStatus = "disponible"
	StatusIndisponible AvailabilityStatus = "indisponible"
	StatusUnknown      AvailabilityStatus = "unknown"
)

// Item is the common shape every source row is adapted into.
type Item struct {
	ID             int64    `json:"id"`
	Type           ItemType `json:"type"`
	Title          string   `json:"title"`
	Author         string   `json:"author"`
	Supervisor     string   `json:"supervisor,omitempty"`
	University     string   `json:"university,omitempty"`
	Company        string   `json:"company,omitempty"`
	ISBN           string   `json:"isbn,omitempty"`
	Publisher      string   `json:"publisher,omitempty"`
	Classification string   `json:"classification,omitempty"`
	Domain         string   `json:"domain,omitempty"`
	Level          string   `json:"level,omitempty"`
	Year           int      `json:"year,omitempty"`
	Language       string   `json:"language,omitempty"`
	Format         string   `json:"format,omitempty"`
	Status         string   `json:"status"`

	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`

	IsBorrowed         bool               `json:"is_borrowed"`
	IsReserved         bool               `json:"is_reserved"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status"`
}

// Result is what SearchCatalog returns to callers.
type Result struct {
	Data          []Item `json:"data"`
	Total         int    `json:"total"`
	Page          int    `json:"page"`
	Limit         int    `json:"limit"`
	TotalPages    int    `json:"totalPages"`
	Cached        bool   `json:"cached"`
	ExecutionTime int64  `json:"executionTime"` // milliseconds
}

// TypeStats is one row of the precomputed catalog_stats table.
type TypeStats struct {
	Type      ItemType  `json:"type"`
	Total     int       `json:"total"`
	Available int       `json:"available"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TotalPages is ceil(total/limit), 0 when there is nothing to page.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
