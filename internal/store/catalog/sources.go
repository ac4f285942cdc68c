package catalogstore

import (
	"strconv"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
)

type scanner interface {
	Scan(dest ...any) error
}

// source describes one catalog table: how to filter it, what to select, and
// how to adapt a selected row into a catalog.Item.
type source struct {
	itemType catalog.ItemType
	table    string // "books b"
	alias    string
	from     string // table plus joins needed by columns
	columns  string
	where    func(f catalog.Filters, a *argList) []string
	scan     func(sc scanner) (catalog.Item, error)
	// availableExpr is true for a row that can be lent right now; used by the
	// stats refresh.
	availableExpr string
}

func (s source) selectSQL() string {
	return "SELECT " + s.columns + "\nFROM " + s.from
}

func (s source) col(name string) string { return s.alias + "." + name }

func sourceFor(t catalog.ItemType) (source, bool) {
	switch t {
	case catalog.ItemBook:
		return booksSource, true
	case catalog.ItemThese:
		return thesesSource, true
	case catalog.ItemMemoire:
		return memoiresSource, true
	case catalog.ItemReport:
		return reportsSource, true
	}
	return source{}, false
}

var allSources = []source{booksSource, thesesSource, memoiresSource, reportsSource}

// commonWhere appends the filters every table treats the same way.
func commonWhere(alias string, f catalog.Filters, a *argList, w []string) []string {
	if f.Language != "" {
		w = append(w, alias+".language = "+a.ph(f.Language))
	}
	if f.Format != "" {
		w = append(w, alias+".format = "+a.ph(f.Format))
	}
	return w
}

func year(f catalog.Filters) int {
	n, _ := strconv.Atoi(f.Year) // normalized: "" or digits
	return n
}

// academicNotLent is the stats predicate for single-copy documents.
func academicNotLent(t catalog.ItemType, alias string) string {
	return `NOT EXISTS (
    SELECT 1 FROM loans l
    WHERE l.document_type = '` + string(t) + `' AND l.document_id = ` + alias + `.id AND l.status IN ` + activeLoans + `
  ) AND NOT EXISTS (
    SELECT 1 FROM reservations r
    WHERE r.document_type = '` + string(t) + `' AND r.document_id = ` + alias + `.id AND r.status = 'active'
  )`
}
