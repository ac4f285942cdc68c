package catalogstore_test

import (
	"regexp"
	"testing"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
	"github.com/DATA-DOG/go-sqlmock"
)

func TestActiveLoanCounts(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM loans
WHERE document_type = $1 AND document_id = ANY($2::bigint[]) AND status IN ('active', 'overdue')`)).
		WithArgs("book", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"document_id", "count"}).AddRow(4, 2))

	got, err := store.ActiveLoanCounts(t.Context(), catalog.ItemBook, []int64{4, 5})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got[4] != 2 || got[5] != 0 || len(got) != 1 {
		t.Fatalf("unexpected counts: %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestActiveReservationCounts(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM reservations
WHERE document_type = $1 AND document_id = ANY($2::bigint[]) AND status = 'active'`)).
		WithArgs("memoire", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"document_id", "count"}).AddRow(11, 1))

	got, err := store.ActiveReservationCounts(t.Context(), catalog.ItemMemoire, []int64{11})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got[11] != 1 {
		t.Fatalf("unexpected counts: %v", got)
	}
}

func TestActivityCounts_NoIDsNoQuery(t *testing.T) {
	store, mock := newMock(t)

	got, err := store.ActiveLoanCounts(t.Context(), catalog.ItemThese, nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("want empty map; got %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
