package data

import (
	"context"
	"database/sql"

	"github.com/rentwatch/ractl/pkg/audit"
)

// CatalogStore adapts the question tables to audit.CatalogReader so the
// scoring core stays free of database concerns.
type CatalogStore struct {
	DB *sql.DB
}

func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{DB: db}
}

func (s *CatalogStore) ListQuestions(ctx context.Context, tier string) ([]audit.QuestionDefinition, error) {
	return ListQuestions(ctx, s.DB, tier)
}

func (s *CatalogStore) LookupQuestions(ctx context.Context, ids []string) (map[string]audit.QuestionDefinition, error) {
	return LookupQuestions(ctx, s.DB, ids)
}
