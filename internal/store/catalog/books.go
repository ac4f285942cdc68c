package catalogstore

import (
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
)

// Books carry several copies; available copies are what remains after active
// loans and reservations.
const booksFrom = `books b
LEFT JOIN (
  SELECT document_id, COUNT(*) AS cnt
  FROM loans
  WHERE document_type = 'book' AND status IN ` + activeLoans + `
  GROUP BY document_id
) bl ON bl.document_id = b.id
LEFT JOIN (
  SELECT document_id, COUNT(*) AS cnt
  FROM reservations
  WHERE document_type = 'book' AND status = 'active'
  GROUP BY document_id
) br ON br.document_id = b.id`

const bookAvailableCopies = `GREATEST(0, b.total_copies - COALESCE(bl.cnt, 0) - COALESCE(br.cnt, 0))`

var booksSource = source{
	itemType: catalog.ItemBook,
	table:    "books b",
	alias:    "b",
	from:     booksFrom,
	columns: `b.id, b.title, COALESCE(b.author, ''), COALESCE(b.isbn, ''), COALESCE(b.publisher, ''),
  COALESCE(b.classification, ''), COALESCE(b.domain, ''), COALESCE(b.publication_year, 0),
  COALESCE(b.language, ''), COALESCE(b.format, ''), b.status, b.total_copies,
  ` + bookAvailableCopies + ` AS available_copies, b.created_at`,
	where:         booksWhere,
	scan:          scanBook,
	availableExpr: bookAvailableCopies + " > 0",
}

type bookRow struct {
	ID              int64
	Title           string
	Author          string
	ISBN            string
	Publisher       string
	Classification  string
	Domain          string
	PublicationYear int
	Language        string
	Format          string
	Status          string
	TotalCopies     int
	AvailableCopies int
	CreatedAt       time.Time
}

func scanBook(sc scanner) (catalog.Item, error) {
	var r bookRow
	if err := sc.Scan(&r.ID, &r.Title, &r.Author, &r.ISBN, &r.Publisher,
		&r.Classification, &r.Domain, &r.PublicationYear,
		&r.Language, &r.Format, &r.Status, &r.TotalCopies,
		&r.AvailableCopies, &r.CreatedAt); err != nil {
		return catalog.Item{}, err
	}
	return r.toItem(), nil
}

func (r bookRow) toItem() catalog.Item {
	return catalog.Item{
		ID:              r.ID,
		Type:            catalog.ItemBook,
		Title:           r.Title,
		Author:          r.Author,
		ISBN:            r.ISBN,
		Publisher:       r.Publisher,
		Classification:  r.Classification,
		Domain:          r.Domain,
		Year:            r.PublicationYear,
		Language:        r.Language,
		Format:          r.Format,
		Status:          r.Status,
		TotalCopies:     r.TotalCopies,
		AvailableCopies: r.AvailableCopies,
		CreatedAt:       r.CreatedAt,
	}
}

func booksWhere(f catalog.Filters, a *argList) []string {
	w := []string{"b.status IN " + publicStatuses}
	if f.Search != "" {
		w = append(w, anyILike(a.ph(contains(f.Search)), "b.title", "b.author", "b.isbn"))
	}
	if f.Domain != "" {
		w = append(w, "b.domain = "+a.ph(f.Domain))
	}
	if f.Year != "" {
		w = append(w, "b.publication_year = "+a.ph(year(f)))
	}
	w = commonWhere("b", f, a, w)
	if f.Publisher != "" {
		w = append(w, "b.publisher ILIKE "+a.ph(contains(f.Publisher)))
	}
	if f.Classification != "" {
		w = append(w, "b.classification ILIKE "+a.ph(contains(f.Classification)))
	}
	return w
}
