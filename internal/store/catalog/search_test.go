package catalogstore_test

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
	catalogstore "github.com/5w1tchy/sigb-catalog/internal/store/catalog"
	"github.com/DATA-DOG/go-sqlmock"
)

// int64Slices lets []int64 through to the mock the way pgx accepts it.
type int64Slices struct{}

func (int64Slices) ConvertValue(v any) (driver.Value, error) {
	if ids, ok := v.([]int64); ok {
		return ids, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMock(t *testing.T) (*catalogstore.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(int64Slices{}))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	mock.MatchExpectationsInOrder(false)
	return catalogstore.New(db), mock
}

var bookCols = []string{"id", "title", "author", "isbn", "publisher", "classification", "domain",
	"publication_year", "language", "format", "status", "total_copies", "available_copies", "created_at"}

var thesisCols = []string{"id", "title", "author", "director", "university", "specialty", "defense_year",
	"degree", "language", "format", "status", "total_copies", "available_copies", "created_at"}

func TestBooksQuery_Placeholders(t *testing.T) {
	f := catalog.Normalize(catalog.Filters{
		Type:      catalog.TypeBooks,
		Search:    "50%_off",
		Year:      "2020",
		Language:  "fr",
		Publisher: "Dunod",
		Page:      3,
	})
	q := catalogstore.BooksQuery(f, catalog.Window{Offset: f.Offset(), Limit: f.Limit})

	wantCount := []any{`%50\%\_off%`, 2020, "fr", "%Dunod%"}
	if len(q.CountArgs) != len(wantCount) {
		t.Fatalf("count args = %v; want %v", q.CountArgs, wantCount)
	}
	for i := range wantCount {
		if q.CountArgs[i] != wantCount[i] {
			t.Fatalf("count arg %d = %v; want %v", i, q.CountArgs[i], wantCount[i])
		}
	}
	if len(q.Args) != 6 || q.Args[4] != 24 || q.Args[5] != 48 {
		t.Fatalf("page args = %v; want limit 24 offset 48", q.Args)
	}
	if !strings.Contains(q.Data, "LIMIT $5 OFFSET $6") {
		t.Fatalf("data query missing window: %s", q.Data)
	}
	if !strings.Contains(q.Data, "ORDER BY b.created_at DESC, b.id DESC") {
		t.Fatalf("data query missing order: %s", q.Data)
	}
	if strings.Contains(q.Count, "LIMIT") {
		t.Fatalf("count query must not be windowed: %s", q.Count)
	}
}

func TestBooksQuery_AvailableCopiesSubtractsActivity(t *testing.T) {
	q := catalogstore.BooksQuery(catalog.Normalize(catalog.Filters{Type: catalog.TypeBooks}), catalog.Window{Limit: 24})

	for _, want := range []string{
		"GREATEST(0, b.total_copies - COALESCE(bl.cnt, 0) - COALESCE(br.cnt, 0)) AS available_copies",
		"FROM loans\n  WHERE document_type = 'book'",
		"FROM reservations\n  WHERE document_type = 'book' AND status = 'active'",
		") bl ON bl.document_id = b.id",
		") br ON br.document_id = b.id",
	} {
		if !strings.Contains(q.Data, want) {
			t.Errorf("data query missing %q:\n%s", want, q.Data)
		}
	}
	if strings.Contains(q.Count, "GREATEST") {
		t.Errorf("count query should not compute copies: %s", q.Count)
	}
}

func TestAcademicQueries_IgnoreBookOnlyFilters(t *testing.T) {
	f := catalog.Normalize(catalog.Filters{Publisher: "Dunod", Classification: "004", Level: "master"})
	w := catalog.Window{Limit: 10}
	for name, q := range map[string]catalogstore.Query{
		"theses":   catalogstore.ThesesQuery(f, w),
		"memoires": catalogstore.MemoiresQuery(f, w),
		"reports":  catalogstore.ReportsQuery(f, w),
	} {
		if strings.Contains(q.Data, "publisher") || strings.Contains(q.Data, "classification") {
			t.Errorf("%s: book-only filter leaked: %s", name, q.Data)
		}
		if len(q.CountArgs) != 1 || q.CountArgs[0] != "%master%" {
			t.Errorf("%s: count args = %v; want level only", name, q.CountArgs)
		}
		if !strings.Contains(q.Count, "is_accessible = TRUE") {
			t.Errorf("%s: missing accessibility predicate", name)
		}
	}
}

func TestAcademicQueries_ApplyLanguageAndFormat(t *testing.T) {
	f := catalog.Normalize(catalog.Filters{Language: "fr", Format: "pdf", Publisher: "Dunod"})
	w := catalog.Window{Limit: 10}
	for name, tc := range map[string]struct {
		q     catalogstore.Query
		alias string
	}{
		"books":    {catalogstore.BooksQuery(f, w), "b"},
		"theses":   {catalogstore.ThesesQuery(f, w), "t"},
		"memoires": {catalogstore.MemoiresQuery(f, w), "m"},
		"reports":  {catalogstore.ReportsQuery(f, w), "s"},
	} {
		for _, col := range []string{".language = $", ".format = $"} {
			if !strings.Contains(tc.q.Count, tc.alias+col) {
				t.Errorf("%s: count query missing %s%s: %s", name, tc.alias, col, tc.q.Count)
			}
		}
	}
}

func TestFederatedQuery_NoTextCasts(t *testing.T) {
	q := catalogstore.FederatedQuery(catalog.Normalize(catalog.Filters{Search: "data"}), catalog.Window{Limit: 24})
	if strings.Contains(q.Data, "::text") {
		t.Fatalf("federated keys should be natively typed: %s", q.Data)
	}
	if got := strings.Count(q.Data, "UNION ALL"); got != 3 {
		t.Fatalf("want 3 UNION ALL in keys query; got %d", got)
	}
	if got := strings.Count(q.Count, "UNION ALL"); got != 3 {
		t.Fatalf("want 3 UNION ALL in count query; got %d", got)
	}
	if len(q.CountArgs) != 4 || len(q.Args) != 6 {
		t.Fatalf("want 4 search args plus window; got count=%v data=%v", q.CountArgs, q.Args)
	}
}

func TestSearch_SingleType(t *testing.T) {
	store, mock := newMock(t)
	f := catalog.Normalize(catalog.Filters{Type: catalog.TypeBooks, Search: "dune"})
	w := catalog.Window{Offset: 0, Limit: 24}
	q := catalogstore.BooksQuery(f, w)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(q.Count)).
		WithArgs("%dune%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(q.Data)).
		WithArgs("%dune%", 24, 0).
		WillReturnRows(sqlmock.NewRows(bookCols).
			AddRow(9, "Dune", "Herbert", "978-2", "Pocket", "813", "SF", 1965, "fr", "print", "available", 3, 1, created))

	items, total, err := store.Search(t.Context(), f, w)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("want 1 item total 1; got %d items total %d", len(items), total)
	}
	it := items[0]
	if it.Type != catalog.ItemBook || it.ID != 9 || it.AvailableCopies != 1 || it.Year != 1965 {
		t.Fatalf("unexpected item: %+v", it)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSearch_StoreErrorIsWrapped(t *testing.T) {
	store, mock := newMock(t)
	f := catalog.Normalize(catalog.Filters{Type: catalog.TypeTheses})
	w := catalog.Window{Limit: 24}
	q := catalogstore.ThesesQuery(f, w)

	boom := errors.New("relation \"theses\" does not exist")
	mock.ExpectQuery(regexp.QuoteMeta(q.Count)).WillReturnError(boom)
	mock.ExpectQuery(regexp.QuoteMeta(q.Data)).WillReturnError(boom)

	_, _, err := store.Search(t.Context(), f, w)
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped %v; got %v", boom, err)
	}
	if !strings.Contains(err.Error(), "search these") {
		t.Fatalf("missing context in %q", err)
	}
}

func TestSearch_AllHydratesInKeyOrder(t *testing.T) {
	store, mock := newMock(t)
	f := catalog.Normalize(catalog.Filters{})
	w := catalog.Window{Limit: 24}
	q := catalogstore.FederatedQuery(f, w)
	t1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(-time.Hour)
	t3 := t1.Add(-2 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(q.Count)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(q.Data)).
		WithArgs(24, 0).
		WillReturnRows(sqlmock.NewRows([]string{"doc_type", "id", "created_at"}).
			AddRow("these", 1, t1).
			AddRow("book", 1, t2).
			AddRow("these", 2, t3))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE b.id = ANY($1::bigint[])`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(bookCols).
			AddRow(1, "SQL", "Date", "", "", "", "", 2003, "en", "print", "available", 2, 2, t2))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE t.id = ANY($1::bigint[])`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(thesisCols).
			AddRow(2, "Graphes", "Amine", "Pr. K", "USTHB", "Info", 2021, "Doctorat", "fr", "print", "available", 1, 1, t3).
			AddRow(1, "Réseaux", "Lina", "Pr. B", "USTHB", "Info", 2022, "Doctorat", "fr", "print", "available", 1, 1, t1))

	items, total, err := store.Search(t.Context(), f, w)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("want 3 items total 3; got %d items total %d", len(items), total)
	}
	want := []struct {
		t  catalog.ItemType
		id int64
	}{{catalog.ItemThese, 1}, {catalog.ItemBook, 1}, {catalog.ItemThese, 2}}
	for i, w := range want {
		if items[i].Type != w.t || items[i].ID != w.id {
			t.Fatalf("item %d = %s/%d; want %s/%d", i, items[i].Type, items[i].ID, w.t, w.id)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
