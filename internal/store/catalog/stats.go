package catalogstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
)

const statsSQL = `SELECT document_type, total_count, available_count, updated_at
FROM catalog_stats
ORDER BY document_type`

func (s *Store) CatalogStats(ctx context.Context) ([]catalog.TypeStats, error) {
	rows, err := s.db.QueryContext(ctx, statsSQL)
	if err != nil {
		return nil, fmt.Errorf("query catalog_stats: %w", err)
	}
	defer rows.Close()

	out := []catalog.TypeStats{}
	for rows.Next() {
		var (
			st      catalog.TypeStats
			docType string
		)
		if err := rows.Scan(&docType, &st.Total, &st.Available, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan catalog_stats: %w", err)
		}
		st.Type = catalog.ItemType(docType)
		out = append(out, st)
	}
	return out, rows.Err()
}

// RefreshStatsSQL recomputes every catalog_stats row from the source tables,
// counting only publicly visible documents.
func RefreshStatsSQL() string {
	parts := make([]string, 0, len(allSources))
	for _, s := range allSources {
		var a argList // empty filters bind no arguments
		parts = append(parts, "SELECT '"+string(s.itemType)+"', COUNT(*), COUNT(*) FILTER (WHERE "+
			s.availableExpr+"), NOW()\nFROM "+s.from+"\nWHERE "+and(s.where(catalog.Filters{}, &a)))
	}
	return "INSERT INTO catalog_stats (document_type, total_count, available_count, updated_at)\n" +
		strings.Join(parts, "\nUNION ALL\n") +
		"\nON CONFLICT (document_type) DO UPDATE\n" +
		"SET total_count = EXCLUDED.total_count,\n" +
		"    available_count = EXCLUDED.available_count,\n" +
		"    updated_at = EXCLUDED.updated_at"
}

// RefreshStats rewrites catalog_stats and returns the number of rows touched.
func (s *Store) RefreshStats(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, RefreshStatsSQL())
	if err != nil {
		return 0, fmt.Errorf("refresh catalog_stats: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
