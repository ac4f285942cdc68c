package catalogstore

import (
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
)

var thesesSource = source{
	itemType: catalog.ItemThese,
	table:    "theses t",
	alias:    "t",
	from:     "theses t",
	columns: `t.id, t.title, COALESCE(t.author, ''), COALESCE(t.director, ''), COALESCE(t.university, ''),
  COALESCE(t.specialty, ''), COALESCE(t.defense_year, 0), COALESCE(t.degree, ''),
  COALESCE(t.language, ''), COALESCE(t.format, ''), t.status,
  COALESCE(t.total_copies, 1), COALESCE(t.available_copies, 0), t.created_at`,
	where:         thesesWhere,
	scan:          scanThesis,
	availableExpr: academicNotLent(catalog.ItemThese, "t"),
}

type thesisRow struct {
	ID              int64
	Title           string
	Author          string
	Director        string
	University      string
	Specialty       string
	DefenseYear     int
	Degree          string
	Language        string
	Format          string
	Status          string
	TotalCopies     int
	AvailableCopies int
	CreatedAt       time.Time
}

func scanThesis(sc scanner) (catalog.Item, error) {
	var r thesisRow
	if err := sc.Scan(&r.ID, &r.Title, &r.Author, &r.Director, &r.University,
		&r.Specialty, &r.DefenseYear, &r.Degree,
		&r.Language, &r.Format, &r.Status,
		&r.TotalCopies, &r.AvailableCopies, &r.CreatedAt); err != nil {
		return catalog.Item{}, err
	}
	return r.toItem(), nil
}

func (r thesisRow) toItem() catalog.Item {
	return catalog.Item{
		ID:              r.ID,
		Type:            catalog.ItemThese,
		Title:           r.Title,
		Author:          r.Author,
		Supervisor:      r.Director,
		University:      r.University,
		Domain:          r.Specialty,
		Year:            r.DefenseYear,
		Level:           r.Degree,
		Language:        r.Language,
		Format:          r.Format,
		Status:          r.Status,
		TotalCopies:     r.TotalCopies,
		AvailableCopies: r.AvailableCopies,
		CreatedAt:       r.CreatedAt,
	}
}

func thesesWhere(f catalog.Filters, a *argList) []string {
	w := []string{"t.status IN " + publicStatuses, "t.is_accessible = TRUE"}
	if f.Search != "" {
		w = append(w, anyILike(a.ph(contains(f.Search)), "t.title", "t.author", "t.university"))
	}
	if f.Domain != "" {
		w = append(w, "t.specialty ILIKE "+a.ph(contains(f.Domain)))
	}
	if f.Year != "" {
		w = append(w, "t.defense_year = "+a.ph(year(f)))
	}
	w = commonWhere("t", f, a, w)
	if f.Level != "" {
		w = append(w, "t.degree ILIKE "+a.ph(contains(f.Level)))
	}
	return w
}
