package repository

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate applies the schema owned by this service. On PostgreSQL that is only
// the uniqueness indexes and cascade bookkeeping on quest_instances; the rest
// of the schema belongs to the main application. On SQLite the full schema is
// created for local runs and tests.
func (r *Repository) Migrate(ctx context.Context) error {
	name := "schema/postgres.sql"
	if r.dialect == DialectSQLite {
		name = "schema/sqlite.sql"
	}

	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range splitStatements(string(raw)) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply migration statement %q: %w", firstLine(stmt), err)
			}
		}
		return nil
	})
}

func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}
