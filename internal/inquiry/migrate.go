package inquiry

import (
	"context"
	"database/sql"
	_ "embed"

	"portfolio-api/internal/audit"
	"portfolio-api/pkg/utils"
)

//go:embed schema.sql
var schema string

// Migrate creates the inquiry and audit tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	return utils.ApplySchema(ctx, db, schema, audit.Schema)
}
