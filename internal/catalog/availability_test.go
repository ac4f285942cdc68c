package catalog_test

import (
	"testing"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSetActivity(t *testing.T) {
	cases := []struct {
		name        string
		item        catalog.Item
		loans, resv int
		want        catalog.AvailabilityStatus
	}{
		{"book with spare copies", book(1, 2, 1), 1, 0, catalog.StatusDisponible},
		{"book fully lent", book(1, 2, 0), 2, 0, catalog.StatusIndisponible},
		{"book without copies", book(1, 0, 0), 0, 0, catalog.StatusIndisponible},
		{"thesis idle", academic(catalog.ItemThese, 1), 0, 0, catalog.StatusDisponible},
		{"thesis reserved", academic(catalog.ItemThese, 1), 0, 1, catalog.StatusIndisponible},
		{"report borrowed", academic(catalog.ItemReport, 1), 1, 0, catalog.StatusIndisponible},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			it := tc.item
			it.SetActivity(tc.loans, tc.resv)
			assert.Equal(t, tc.want, it.AvailabilityStatus)
			assert.Equal(t, tc.loans > 0, it.IsBorrowed)
			assert.Equal(t, tc.resv > 0, it.IsReserved)
		})
	}
}

func TestDeriveAvailability_FailureIsolatedPerType(t *testing.T) {
	st := newMemStore()
	st.loans[docKey{catalog.ItemBook, 1}] = 1
	st.failActivity[catalog.ItemMemoire] = true

	items := []catalog.Item{book(1, 2, 1), academic(catalog.ItemMemoire, 7), academic(catalog.ItemMemoire, 8), academic(catalog.ItemThese, 3)}
	unknown := catalog.DeriveAvailability(t.Context(), st, items)

	require.Equal(t, 2, unknown)
	assert.Equal(t, catalog.StatusDisponible, items[0].AvailabilityStatus)
	assert.True(t, items[0].IsBorrowed)
	for _, it := range items[1:3] {
		assert.Equal(t, catalog.StatusUnknown, it.AvailabilityStatus)
		assert.False(t, it.IsBorrowed)
		assert.False(t, it.IsReserved)
	}
	assert.Equal(t, catalog.StatusDisponible, items[3].AvailabilityStatus)
}

func TestDeriveAvailability_BookPartition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		st := newMemStore()
		items := make([]catalog.Item, n)
		for i := range items {
			total := rapid.IntRange(0, 4).Draw(t, "total")
			items[i] = book(int64(i+1), total, rapid.IntRange(0, total).Draw(t, "available"))
			st.loans[docKey{catalog.ItemBook, int64(i + 1)}] = rapid.IntRange(0, 2).Draw(t, "loans")
		}
		catalog.DeriveAvailability(t.Context(), st, items)
		for _, it := range items {
			require.Equal(t, it.AvailableCopies > 0, it.AvailabilityStatus == catalog.StatusDisponible)
		}
	})
}

func genItem(t *rapid.T, id int64) catalog.Item {
	it := catalog.Item{
		ID:         id,
		Type:       rapid.SampledFrom(catalog.ItemTypes).Draw(t, "type"),
		IsBorrowed: rapid.Bool().Draw(t, "borrowed"),
		IsReserved: rapid.Bool().Draw(t, "reserved"),
	}
	it.AvailabilityStatus = rapid.SampledFrom([]catalog.AvailabilityStatus{
		catalog.StatusDisponible, catalog.StatusIndisponible, catalog.StatusUnknown,
	}).Draw(t, "status")
	return it
}

func TestFilterByAvailability(t *testing.T) {
	preds := map[catalog.Availability]func(catalog.Item) bool{
		catalog.AvailabilityAvailable:   func(it catalog.Item) bool { return it.AvailabilityStatus == catalog.StatusDisponible },
		catalog.AvailabilityUnavailable: func(it catalog.Item) bool { return it.AvailabilityStatus == catalog.StatusIndisponible },
		catalog.AvailabilityBorrowed:    func(it catalog.Item) bool { return it.IsBorrowed },
		catalog.AvailabilityReserved:    func(it catalog.Item) bool { return it.IsReserved },
		catalog.AvailabilityAll:         func(catalog.Item) bool { return true },
	}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")
		items := make([]catalog.Item, n)
		for i := range items {
			items[i] = genItem(t, int64(i))
		}
		a := rapid.SampledFrom([]catalog.Availability{
			catalog.AvailabilityAll, catalog.AvailabilityAvailable, catalog.AvailabilityUnavailable,
			catalog.AvailabilityBorrowed, catalog.AvailabilityReserved,
		}).Draw(t, "availability")

		got := catalog.FilterByAvailability(items, a)
		want := 0
		for _, it := range items {
			if preds[a](it) {
				want++
			}
		}
		require.Len(t, got, want)
		for _, it := range got {
			require.True(t, preds[a](it))
		}
	})
}

func TestPaginate(t *testing.T) {
	items := make([]catalog.Item, 50)
	for i := range items {
		items[i] = book(int64(i), 1, 1)
	}
	assert.Len(t, catalog.Paginate(items, 1, 24), 24)
	assert.Len(t, catalog.Paginate(items, 3, 24), 2)
	assert.Equal(t, int64(48), catalog.Paginate(items, 3, 24)[0].ID)
	assert.NotNil(t, catalog.Paginate(items, 4, 24))
	assert.Empty(t, catalog.Paginate(items, 4, 24))
	assert.Equal(t, 3, catalog.TotalPages(50, 24))
	assert.Equal(t, 0, catalog.TotalPages(0, 24))
}
