package reporting

import (
	"context"
	"database/sql"
	"time"

	"portfolio-api/internal/audit"
	"portfolio-api/internal/inquiry"
)

// PostgresRepo reads the inquiry and audit tables directly.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) ListInquiries(ctx context.Context, from, to time.Time) ([]InquiryRow, error) {
	const q = `
SELECT id, status, email IS NOT NULL, phone_number IS NOT NULL, created_at
FROM inquiries
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]InquiryRow, 0)
	for rows.Next() {
		var (
			row    InquiryRow
			status string
		)
		if err := rows.Scan(&row.ID, &status, &row.HasEmail, &row.HasPhone, &row.CreatedAt); err != nil {
			return nil, err
		}
		row.Status = inquiry.Status(status)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountAuditEvents(ctx context.Context, typ audit.EventType, from, to time.Time) (int, error) {
	const q = `
SELECT count(*)
FROM audit_events
WHERE type = $1 AND created_at >= $2 AND created_at < $3
`
	var n int
	if err := r.db.QueryRowContext(ctx, q, string(typ), from, to).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
