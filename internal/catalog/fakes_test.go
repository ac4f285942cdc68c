package catalog_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
)

type docKey struct {
	t  catalog.ItemType
	id int64
}

// memStore is an in-memory catalog.Store. Items are kept in result order.
// Book copies left on the shelf are computed from loans and reservations the
// way the books query does.
type memStore struct {
	mu           sync.Mutex
	items        []catalog.Item
	loans        map[docKey]int
	reservations map[docKey]int
	failActivity map[catalog.ItemType]bool
	searchErr    error
	windows      []catalog.Window
}

func newMemStore(items ...catalog.Item) *memStore {
	return &memStore{
		items:        items,
		loans:        map[docKey]int{},
		reservations: map[docKey]int{},
		failActivity: map[catalog.ItemType]bool{},
	}
}

func (s *memStore) Search(_ context.Context, f catalog.Filters, w catalog.Window) ([]catalog.Item, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = append(s.windows, w)
	if s.searchErr != nil {
		return nil, 0, s.searchErr
	}
	want, typed := catalog.ItemTypeFor(f.Type)
	var matched []catalog.Item
	for _, it := range s.items {
		if typed && it.Type != want {
			continue
		}
		if f.Search != "" && !matchesSearch(it, f.Search) {
			continue
		}
		matched = append(matched, it)
	}
	total := len(matched)
	if w.Offset >= len(matched) {
		return nil, total, nil
	}
	end := min(w.Offset+w.Limit, len(matched))
	page := append([]catalog.Item(nil), matched[w.Offset:end]...)
	for i := range page {
		if page[i].Type == catalog.ItemBook {
			k := docKey{catalog.ItemBook, page[i].ID}
			page[i].AvailableCopies = max(0, page[i].TotalCopies-s.loans[k]-s.reservations[k])
		}
	}
	return page, total, nil
}

func matchesSearch(it catalog.Item, term string) bool {
	term = strings.ToLower(term)
	fields := []string{it.Title, it.Author}
	switch it.Type {
	case catalog.ItemBook:
		fields = append(fields, it.ISBN)
	case catalog.ItemReport:
		fields = append(fields, it.Company)
	default:
		fields = append(fields, it.University)
	}
	for _, v := range fields {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

func (s *memStore) CatalogStats(context.Context) ([]catalog.TypeStats, error) {
	return []catalog.TypeStats{{Type: catalog.ItemBook, Total: len(s.items), UpdatedAt: time.Now()}}, nil
}

func (s *memStore) ActiveLoanCounts(_ context.Context, t catalog.ItemType, ids []int64) (map[int64]int, error) {
	return s.counts(s.loans, t, ids)
}

func (s *memStore) ActiveReservationCounts(_ context.Context, t catalog.ItemType, ids []int64) (map[int64]int, error) {
	return s.counts(s.reservations, t, ids)
}

func (s *memStore) counts(src map[docKey]int, t catalog.ItemType, ids []int64) (map[int64]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failActivity[t] {
		return nil, errors.New("activity lookup failed")
	}
	out := map[int64]int{}
	for _, id := range ids {
		if n := src[docKey{t, id}]; n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

// memCache is an in-memory catalog.Cache that ignores ttl.
type memCache struct {
	mu      sync.Mutex
	entries map[string]catalog.CachedResult
	hits    map[string]int
	getErr  error
	putErr  error
	gets    int
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]catalog.CachedResult{}, hits: map[string]int{}}
}

func (c *memCache) Get(_ context.Context, key string) (*catalog.CachedResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	r, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	c.hits[key]++
	return &r, nil
}

func (c *memCache) Put(_ context.Context, key string, _ catalog.Filters, r catalog.CachedResult, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	if c.putErr != nil {
		return c.putErr
	}
	if _, ok := c.entries[key]; ok {
		c.hits[key]++
	}
	c.entries[key] = r
	return nil
}

func book(id int64, total, available int) catalog.Item {
	return catalog.Item{
		ID: id, Type: catalog.ItemBook, Title: "Book", Status: "available",
		TotalCopies: total, AvailableCopies: available,
	}
}

// shelf is a book whose available copies are left to the store.
func shelf(id int64, total int) catalog.Item {
	return catalog.Item{ID: id, Type: catalog.ItemBook, Title: "Book", Status: "available", TotalCopies: total}
}

func academic(t catalog.ItemType, id int64) catalog.Item {
	return catalog.Item{ID: id, Type: t, Title: "Doc", Status: "available", TotalCopies: 1, AvailableCopies: 1}
}

type recorder struct{ events []catalog.SearchEvent }

func (r *recorder) RecordSearch(ev catalog.SearchEvent) { r.events = append(r.events, ev) }
