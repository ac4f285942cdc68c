package catalogstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
	"golang.org/x/sync/errgroup"
)

// Query is one window of a catalog search: the page query and the COUNT(*)
// query sharing its predicates.
type Query struct {
	Data      string
	Args      []any
	Count     string
	CountArgs []any
}

func BooksQuery(f catalog.Filters, w catalog.Window) Query    { return singleQuery(booksSource, f, w) }
func ThesesQuery(f catalog.Filters, w catalog.Window) Query   { return singleQuery(thesesSource, f, w) }
func MemoiresQuery(f catalog.Filters, w catalog.Window) Query { return singleQuery(memoiresSource, f, w) }
func ReportsQuery(f catalog.Filters, w catalog.Window) Query  { return singleQuery(reportsSource, f, w) }

func singleQuery(s source, f catalog.Filters, w catalog.Window) Query {
	var a argList
	cond := and(s.where(f, &a))
	countArgs := a.snapshot()

	data := s.selectSQL() +
		"\nWHERE " + cond +
		"\nORDER BY " + s.col("created_at") + " DESC, " + s.col("id") + " DESC" +
		"\nLIMIT " + a.ph(w.Limit) + " OFFSET " + a.ph(w.Offset)

	return Query{
		Data:      data,
		Args:      a.vals,
		Count:     "SELECT COUNT(*) FROM " + s.table + "\nWHERE " + cond,
		CountArgs: countArgs,
	}
}

// FederatedQuery selects the page keys (doc_type, id, created_at) across all
// tables. Book-only filters are ignored by the academic tables.
func FederatedQuery(f catalog.Filters, w catalog.Window) Query {
	var a argList
	keys := make([]string, 0, len(allSources))
	ids := make([]string, 0, len(allSources))
	for _, s := range allSources {
		cond := and(s.where(f, &a))
		keys = append(keys, "SELECT '"+string(s.itemType)+"' AS doc_type, "+
			s.col("id")+" AS id, "+s.col("created_at")+" AS created_at\nFROM "+s.table+"\nWHERE "+cond)
		ids = append(ids, "SELECT "+s.col("id")+"\nFROM "+s.table+"\nWHERE "+cond)
	}
	countArgs := a.snapshot()

	data := "SELECT doc_type, id, created_at FROM (\n" +
		strings.Join(keys, "\nUNION ALL\n") +
		"\n) u\nORDER BY created_at DESC, id DESC, doc_type" +
		"\nLIMIT " + a.ph(w.Limit) + " OFFSET " + a.ph(w.Offset)

	return Query{
		Data:      data,
		Args:      a.vals,
		Count:     "SELECT COUNT(*) FROM (\n" + strings.Join(ids, "\nUNION ALL\n") + "\n) u",
		CountArgs: countArgs,
	}
}

func hydrateSQL(s source) string {
	return s.selectSQL() + "\nWHERE " + s.col("id") + " = ANY($1::bigint[])"
}

// Search implements catalog.Store. f must be normalized.
func (s *Store) Search(ctx context.Context, f catalog.Filters, w catalog.Window) ([]catalog.Item, int, error) {
	t, ok := catalog.ItemTypeFor(f.Type)
	if !ok {
		items, total, err := s.searchAll(ctx, f, w)
		if err != nil {
			return nil, 0, fmt.Errorf("search all: %w", err)
		}
		return items, total, nil
	}
	src, _ := sourceFor(t)
	items, total, err := s.searchOne(ctx, src, f, w)
	if err != nil {
		return nil, 0, fmt.Errorf("search %s: %w", t, err)
	}
	return items, total, nil
}

func (s *Store) searchOne(ctx context.Context, src source, f catalog.Filters, w catalog.Window) ([]catalog.Item, int, error) {
	q := singleQuery(src, f, w)

	var (
		items []catalog.Item
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.QueryRowContext(gctx, q.Count, q.CountArgs...).Scan(&total)
	})
	g.Go(func() error {
		rows, err := s.db.QueryContext(gctx, q.Data, q.Args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			it, err := src.scan(rows)
			if err != nil {
				return err
			}
			items = append(items, it)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

type itemKey struct {
	t  catalog.ItemType
	id int64
}

func (s *Store) searchAll(ctx context.Context, f catalog.Filters, w catalog.Window) ([]catalog.Item, int, error) {
	q := FederatedQuery(f, w)

	var (
		keys  []itemKey
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.QueryRowContext(gctx, q.Count, q.CountArgs...).Scan(&total)
	})
	g.Go(func() error {
		rows, err := s.db.QueryContext(gctx, q.Data, q.Args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				k       itemKey
				docType string
				created time.Time
			)
			if err := rows.Scan(&docType, &k.id, &created); err != nil {
				return err
			}
			k.t = catalog.ItemType(docType)
			keys = append(keys, k)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	found, err := s.hydrate(ctx, keys)
	if err != nil {
		return nil, 0, err
	}
	items := make([]catalog.Item, 0, len(keys))
	for _, k := range keys {
		// a row deleted between the key query and hydration drops out of the page
		if it, ok := found[k]; ok {
			items = append(items, it)
		}
	}
	return items, total, nil
}

// hydrate loads full rows for the page keys, one query per document type.
func (s *Store) hydrate(ctx context.Context, keys []itemKey) (map[itemKey]catalog.Item, error) {
	idsByType := make(map[catalog.ItemType][]int64)
	for _, k := range keys {
		idsByType[k.t] = append(idsByType[k.t], k.id)
	}

	found := make(map[itemKey]catalog.Item, len(keys))
	results := make([][]catalog.Item, len(catalog.ItemTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range catalog.ItemTypes {
		ids := idsByType[t]
		if len(ids) == 0 {
			continue
		}
		src, _ := sourceFor(t)
		g.Go(func() error {
			rows, err := s.db.QueryContext(gctx, hydrateSQL(src), ids)
			if err != nil {
				return fmt.Errorf("hydrate %s: %w", t, err)
			}
			defer rows.Close()
			for rows.Next() {
				it, err := src.scan(rows)
				if err != nil {
					return fmt.Errorf("hydrate %s: %w", t, err)
				}
				results[i] = append(results[i], it)
			}
			return rows.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, batch := range results {
		for _, it := range batch {
			found[itemKey{it.Type, it.ID}] = it
		}
	}
	return found, nil
}
