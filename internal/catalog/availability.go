package catalog

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/5w1tchy/sigb-catalog/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// SetActivity derives the availability fields from active loan and
// reservation counts. Books stay disponible while spare copies remain; an
// academic document is indisponible as soon as it is borrowed or reserved.
func (it *Item) SetActivity(loans, reservations int) {
	it.IsBorrowed = loans > 0
	it.IsReserved = reservations > 0
	switch {
	case it.Type.MultiCopy():
		if it.AvailableCopies > 0 {
			it.AvailabilityStatus = StatusDisponible
		} else {
			it.AvailabilityStatus = StatusIndisponible
		}
	case it.IsBorrowed || it.IsReserved:
		it.AvailabilityStatus = StatusIndisponible
	default:
		it.AvailabilityStatus = StatusDisponible
	}
}

// MarkUnknown is the fallback when activity could not be looked up.
func (it *Item) MarkUnknown() {
	it.IsBorrowed = false
	it.IsReserved = false
	it.AvailabilityStatus = StatusUnknown
}

// DeriveAvailability fills the availability fields of every item in place.
// Lookups are batched per document type and run concurrently; a failed
// lookup marks only that type's items unknown. It returns the number of
// items left unknown.
func DeriveAvailability(ctx context.Context, ac ActivityCounter, items []Item) int {
	byType := make(map[ItemType][]int, len(ItemTypes))
	for i := range items {
		byType[items[i].Type] = append(byType[items[i].Type], i)
	}

	var unknown atomic.Int64
	var g errgroup.Group
	for t, idxs := range byType {
		g.Go(func() error {
			ids := make([]int64, len(idxs))
			for j, i := range idxs {
				ids[j] = items[i].ID
			}
			loans, err := ac.ActiveLoanCounts(ctx, t, ids)
			var reservations map[int64]int
			if err == nil {
				reservations, err = ac.ActiveReservationCounts(ctx, t, ids)
			}
			if err != nil {
				log.Printf("[catalog] availability lookup for %d %s rows failed: %v", len(idxs), t, err)
				for _, i := range idxs {
					items[i].MarkUnknown()
				}
				unknown.Add(int64(len(idxs)))
				return nil
			}
			for _, i := range idxs {
				items[i].SetActivity(loans[items[i].ID], reservations[items[i].ID])
			}
			return nil
		})
	}
	_ = g.Wait()

	n := int(unknown.Load())
	if n > 0 {
		metrics.AvailabilityUnknown.Add(float64(n))
	}
	return n
}

// FilterByAvailability keeps the items matching the derived predicate.
// AvailabilityAll and unrecognized values keep everything.
func FilterByAvailability(items []Item, a Availability) []Item {
	var keep func(Item) bool
	switch a {
	case AvailabilityAvailable:
		keep = func(it Item) bool { return it.AvailabilityStatus == StatusDisponible }
	case AvailabilityUnavailable:
		keep = func(it Item) bool { return it.AvailabilityStatus == StatusIndisponible }
	case AvailabilityBorrowed:
		keep = func(it Item) bool { return it.IsBorrowed }
	case AvailabilityReserved:
		keep = func(it Item) bool { return it.IsReserved }
	default:
		return items
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Paginate returns page (1-based) of size limit from items.
func Paginate(items []Item, page, limit int) []Item {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return []Item{}
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []Item{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
