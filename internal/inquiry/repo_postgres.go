package inquiry

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo stores inquiries through database/sql (pgx stdlib driver).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const selectColumns = `id, user_id, visitor_name, email, phone_number, purpose, summary, COALESCE(source_session_id, ''), status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInquiry(row rowScanner) (Inquiry, error) {
	var (
		rec    Inquiry
		email  sql.NullString
		phone  sql.NullString
		status string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.VisitorName,
		&email,
		&phone,
		&rec.Purpose,
		&rec.Summary,
		&rec.SourceSessionID,
		&status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return Inquiry{}, err
	}
	rec.Email = fromNull(email)
	rec.PhoneNumber = fromNull(phone)
	rec.Status = Status(status)
	return rec, nil
}

func (r *PostgresRepo) Insert(ctx context.Context, rec Inquiry) (bool, error) {
	const q = `
INSERT INTO inquiries (id, user_id, visitor_name, email, phone_number, purpose, summary, source_session_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $10)
ON CONFLICT (id) DO NOTHING
`
	res, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.UserID,
		rec.VisitorName,
		toNull(rec.Email),
		toNull(rec.PhoneNumber),
		rec.Purpose,
		rec.Summary,
		rec.SourceSessionID,
		string(rec.Status),
		rec.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepo) Upsert(ctx context.Context, rec Inquiry) (Inquiry, error) {
	const q = `
INSERT INTO inquiries (id, user_id, visitor_name, email, phone_number, purpose, summary, source_session_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $10)
ON CONFLICT (id) DO UPDATE SET
    visitor_name = EXCLUDED.visitor_name,
    email        = EXCLUDED.email,
    phone_number = EXCLUDED.phone_number,
    purpose      = EXCLUDED.purpose,
    summary      = EXCLUDED.summary,
    status       = EXCLUDED.status,
    source_session_id = COALESCE(inquiries.source_session_id, EXCLUDED.source_session_id),
    updated_at   = EXCLUDED.updated_at
WHERE inquiries.user_id = EXCLUDED.user_id
RETURNING ` + selectColumns

	out, err := scanInquiry(r.db.QueryRowContext(ctx, q,
		rec.ID,
		rec.UserID,
		rec.VisitorName,
		toNull(rec.Email),
		toNull(rec.PhoneNumber),
		rec.Purpose,
		rec.Summary,
		rec.SourceSessionID,
		string(rec.Status),
		rec.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Inquiry{}, ErrNotFound
		}
		return Inquiry{}, err
	}
	return out, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Inquiry, error) {
	q := `SELECT ` + selectColumns + ` FROM inquiries WHERE id = $1`
	rec, err := scanInquiry(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Inquiry{}, ErrNotFound
		}
		return Inquiry{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Inquiry, error) {
	f = f.withDefaults()
	q := `
SELECT ` + selectColumns + `
FROM inquiries
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3
`
	rows, err := r.db.QueryContext(ctx, q, string(f.Status), f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Inquiry, 0, f.Limit)
	for rows.Next() {
		rec, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM inquiries WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
