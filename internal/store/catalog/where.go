package catalogstore

import (
	"strconv"
	"strings"
)

// argList hands out positional placeholders in the order values are added.
type argList struct{ vals []any }

func (a *argList) ph(v any) string {
	a.vals = append(a.vals, v)
	return "$" + strconv.Itoa(len(a.vals))
}

func (a *argList) snapshot() []any {
	return append([]any(nil), a.vals...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// contains builds an ILIKE pattern matching s anywhere, with LIKE
// metacharacters in s taken literally.
func contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// anyILike ORs "col ILIKE p" over cols, reusing one placeholder.
func anyILike(p string, cols ...string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + " ILIKE " + p
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func and(conds []string) string {
	return strings.Join(conds, "\n  AND ")
}

const (
	publicStatuses = "('available', 'active')"
	activeLoans    = "('active', 'overdue')"
)
