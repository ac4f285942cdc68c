// Package catalogstore is the Postgres read side of the catalog: per-type and
// federated searches, loan/reservation activity counts and catalog stats.
package catalogstore

import (
	"database/sql"

	"github.com/5w1tchy/sigb-catalog/internal/catalog"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ catalog.Store = (*Store)(nil)
