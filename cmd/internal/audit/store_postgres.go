package audit

import (
	"context"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink persists activity entries in PostgreSQL.
type PostgresSink struct {
	pool   *pgxpool.Pool
	schema string
}

// SinkOption configures PostgresSink.
type SinkOption func(*PostgresSink) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the DB schema used by the sink (default: "crewdeck").
func WithSchema(schema string) SinkOption {
	return func(s *PostgresSink) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !pgIdentRe.MatchString(schema) {
			return ErrInvalidInput
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresSink constructs a PostgresSink.
func NewPostgresSink(pool *pgxpool.Pool, opts ...SinkOption) (*PostgresSink, error) {
	s := &PostgresSink{pool: pool, schema: "crewdeck"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.pool == nil {
		return nil, ErrInvalidInput
	}
	return s, nil
}

func pgIdent(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}

// Append stores one entry.
func (s *PostgresSink) Append(ctx context.Context, e Entry) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}
	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Action) == "" {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	activity := pgIdent(s.schema, "activity_log")

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+activity+` (id, actor_id, target_id, action, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.ActorID, e.TargetID, e.Action, e.Detail, e.CreatedAt,
	)
	return err
}

// ListByTarget returns the newest entries for a target, newest first.
func (s *PostgresSink) ListByTarget(ctx context.Context, targetID string, limit int) ([]Entry, error) {
	if s == nil || s.pool == nil {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListSize
	}
	activity := pgIdent(s.schema, "activity_log")

	rows, err := s.pool.Query(ctx,
		`SELECT id, actor_id, target_id, action, detail, created_at
		   FROM `+activity+`
		  WHERE target_id = $1
		  ORDER BY created_at DESC, id DESC
		  LIMIT $2`,
		targetID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.TargetID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
