package catalogstore

import (
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
)

var reportsSource = source{
	itemType: catalog.ItemReport,
	table:    "stage_reports s",
	alias:    "s",
	from:     "stage_reports s",
	columns: `s.id, s.title, COALESCE(s.student_name, ''), COALESCE(s.supervisor, ''), COALESCE(s.company_name, ''),
  COALESCE(s.university, ''), COALESCE(s.field_of_study, ''), COALESCE(EXTRACT(YEAR FROM s.defense_date)::int, 0),
  COALESCE(s.level, ''), COALESCE(s.language, ''), COALESCE(s.format, ''), s.status,
  COALESCE(s.total_copies, 1), COALESCE(s.available_copies, 0), s.created_at`,
	where:         reportsWhere,
	scan:          scanReport,
	availableExpr: academicNotLent(catalog.ItemReport, "s"),
}

// reportRow is a stage (internship) report.
type reportRow struct {
	ID              int64
	Title           string
	StudentName     string
	Supervisor      string
	CompanyName     string
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

func scanReport(sc scanner) (catalog.Item, error) {
	var r reportRow
	if err := sc.Scan(&r.ID, &r.Title, &r.StudentName, &r.Supervisor, &r.CompanyName,
		&r.University, &r.FieldOfStudy, &r.DefenseYear,
		&r.Level, &r.Language, &r.Format, &r.Status,
		&r.TotalCopies, &r.AvailableCopies, &r.CreatedAt); err != nil {
		return catalog.Item{}, err
	}
	return r.toItem(), nil
}

func (r reportRow) toItem() catalog.Item {
	return catalog.Item{
		ID:              r.ID,
		Type:            catalog.ItemReport,
		Title:           r.Title,
		Author:          r.StudentName,
		Supervisor:      r.Supervisor,
		Company:         r.CompanyName,
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

func reportsWhere(f catalog.Filters, a *argList) []string {
	w := []string{"s.status IN " + publicStatuses, "s.is_accessible = TRUE"}
	if f.Search != "" {
		w = append(w, anyILike(a.ph(contains(f.Search)), "s.title", "s.student_name", "s.company_name"))
	}
	if f.Domain != "" {
		w = append(w, "s.field_of_study ILIKE "+a.ph(contains(f.Domain)))
	}
	if f.Year != "" {
		w = append(w, "EXTRACT(YEAR FROM s.defense_date) = "+a.ph(year(f)))
	}
	w = commonWhere("s", f, a, w)
	if f.Level != "" {
		w = append(w, "s.level ILIKE "+a.ph(contains(f.Level)))
	}
	return w
}
