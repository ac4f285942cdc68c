package catalogstore

import (
	"context"
	"fmt"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
)

const loanCountsSQL = `SELECT document_id, COUNT(*)
FROM loans
WHERE document_type = $1 AND document_id = ANY($2::bigint[]) AND status IN ` + activeLoans + `
GROUP BY document_id`

const reservationCountsSQL = `SELECT document_id, COUNT(*)
FROM reservations
WHERE document_type = $1 AND document_id = ANY($2::bigint[]) AND status = 'active'
GROUP BY document_id`

func (s *Store) ActiveLoanCounts(ctx context.Context, t catalog.ItemType, ids []int64) (map[int64]int, error) {
	m, err := s.countByDocument(ctx, loanCountsSQL, t, ids)
	if err != nil {
		return nil, fmt.Errorf("loan counts %s: %w", t, err)
	}
	return m, nil
}

func (s *Store) ActiveReservationCounts(ctx context.Context, t catalog.ItemType, ids []int64) (map[int64]int, error) {
	m, err := s.countByDocument(ctx, reservationCountsSQL, t, ids)
	if err != nil {
		return nil, fmt.Errorf("reservation counts %s: %w", t, err)
	}
	return m, nil
}

func (s *Store) countByDocument(ctx context.Context, query string, t catalog.ItemType, ids []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx, query, string(t), ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id int64
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}
