package discipline

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists deduction requests in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// StoreOption configures PostgresStore.
type StoreOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the DB schema used by the store (default: "crewdeck").
func WithSchema(schema string) StoreOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !pgIdentRe.MatchString(schema) {
			return ErrInvalidInput
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...StoreOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "crewdeck"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, ErrInvalidInput
	}
	return st, nil
}

func pgIdent(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}

const requestColumns = `id, target_id, requested_by, points, reason, created_at, status, reviewed_by, reviewed_at, review_note`

// Create inserts a new request row.
func (s *PostgresStore) Create(ctx context.Context, req Request) (Request, error) {
	if s == nil || s.pool == nil {
		return Request{}, ErrInvalidInput
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.TargetID) == "" {
		return Request{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	requests := pgIdent(s.schema, "deduction_requests")

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+requests+` (`+requestColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID, req.TargetID, req.RequestedBy, req.Points, req.Reason,
		req.CreatedAt, string(req.Status), req.ReviewedBy, req.ReviewedAt, req.ReviewNote,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Request{}, ErrConflict
		}
		return Request{}, err
	}
	return req, nil
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var status string
	if err := row.Scan(
		&req.ID, &req.TargetID, &req.RequestedBy, &req.Points, &req.Reason,
		&req.CreatedAt, &status, &req.ReviewedBy, &req.ReviewedAt, &req.ReviewNote,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, err
	}
	req.Status = Status(status)
	return req, nil
}

// Get returns a request by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (Request, error) {
	if s == nil || s.pool == nil {
		return Request{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	requests := pgIdent(s.schema, "deduction_requests")
	return scanRequest(s.pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM `+requests+` WHERE id = $1`, id))
}

// Update replaces the stored record for req.ID.
func (s *PostgresStore) Update(ctx context.Context, req Request) (Request, error) {
	if s == nil || s.pool == nil {
		return Request{}, ErrInvalidInput
	}
	if strings.TrimSpace(req.ID) == "" {
		return Request{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	requests := pgIdent(s.schema, "deduction_requests")

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+requests+`
		    SET status = $2, reviewed_by = $3, reviewed_at = $4, review_note = $5
		  WHERE id = $1`,
		req.ID, string(req.Status), req.ReviewedBy, req.ReviewedAt, req.ReviewNote,
	)
	if err != nil {
		return Request{}, err
	}
	if tag.RowsAffected() == 0 {
		return Request{}, ErrNotFound
	}
	return req, nil
}

// ListByStatus returns requests in the given state, oldest first.
func (s *PostgresStore) ListByStatus(ctx context.Context, status Status) ([]Request, error) {
	if s == nil || s.pool == nil {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	requests := pgIdent(s.schema, "deduction_requests")

	rows, err := s.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM `+requests+`
		  WHERE status = $1
		  ORDER BY created_at, id`,
		string(status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
