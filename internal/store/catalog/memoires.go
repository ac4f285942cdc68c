package catalogstore

import (
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
)

var memoiresSource = source{
	itemType: catalog.ItemMemoire,
	table:    "memoires m",
	alias:    "m",
	from:     "memoires m",
	columns: `m.id, m.title, COALESCE(m.student_name, ''), COALESCE(m.supervisor, ''), COALESCE(m.university, ''),
  COALESCE(m.field_of_study, ''), COALESCE(EXTRACT(YEAR FROM m.defense_date)::int, 0), COALESCE(m.level, ''),
  COALESCE(m.language, ''), COALESCE(m.format, ''), m.status,
  COALESCE(m.total_copies, 1), COALESCE(m.available_copies, 0), m.created_at`,
	where:         memoiresWhere,
	scan:          scanMemoire,
	availableExpr: academicNotLent(catalog.ItemMemoire, "m"),
}

type memoireRow struct {
	ID              int64
	Title           string
	StudentName     string
	Supervisor      string
	University      string
	FieldOfStudy    string
	DefenseYear     int
	Level           string
	Language        string
	Format          string
	Status          string
	TotalCopies     int
	AvailableCopies int
	CreatedAt       time.Time
}

func scanMemoire(sc scanner) (catalog.Item, error) {
	var r memoireRow
	if err := sc.Scan(&r.ID, &r.Title, &r.StudentName, &r.Supervisor, &r.University,
		&r.FieldOfStudy, &r.DefenseYear, &r.Level,
		&r.Language, &r.Format, &r.Status,
		&r.TotalCopies, &r.AvailableCopies, &r.CreatedAt); err != nil {
		return catalog.Item{}, err
	}
	return r.toItem(), nil
}

func (r memoireRow) toItem() catalog.Item {
	return catalog.Item{
		ID:              r.ID,
		Type:            catalog.ItemMemoire,
		Title:           r.Title,
		Author:          r.StudentName,
		Supervisor:      r.Supervisor,
		University:      r.University,
		Domain:          r.FieldOfStudy,
		Year:            r.DefenseYear,
		Level:           r.Level,
		Language:        r.Language,
		Format:          r.Format,
		Status:          r.Status,
		TotalCopies:     r.TotalCopies,
		AvailableCopies: r.AvailableCopies,
		CreatedAt:       r.CreatedAt,
	}
}

func memoiresWhere(f catalog.Filters, a *argList) []string {
	w := []string{"m.status IN " + publicStatuses, "m.is_accessible = TRUE"}
	if f.Search != "" {
		w = append(w, anyILike(a.ph(contains(f.Search)), "m.title", "m.student_name", "m.university"))
	}
	if f.Domain != "" {
		w = append(w, "m.field_of_study ILIKE "+a.ph(contains(f.Domain)))
	}
	if f.Year != "" {
		w = append(w, "EXTRACT(YEAR FROM m.defense_date) = "+a.ph(year(f)))
	}
	w = commonWhere("m", f, a, w)
	if f.Level != "" {
		w = append(w, "m.level ILIKE "+a.ph(contains(f.Level)))
	}
	return w
}
