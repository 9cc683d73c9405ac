package roster

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"crewdeck/cmd/points"
)

// PostgresStore persists member records in PostgreSQL.
//
// History is stored as a JSONB column; a member row is replaced wholesale on
// Update, so row-level locking in Postgres provides the per-member
// serialization the engine requires from its callers.
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

type historyRow struct {
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	AwardedBy string    `json:"awarded_by"`
	At        time.Time `json:"at"`
}

func marshalHistory(h []points.HistoryEntry) ([]byte, error) {
	rows := make([]historyRow, 0, len(h))
	for _, e := range h {
		rows = append(rows, historyRow(e))
	}
	return json.Marshal(rows)
}

func unmarshalHistory(raw []byte) ([]points.HistoryEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rows []historyRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	out := make([]points.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, points.HistoryEntry(r))
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts a new member row.
func (s *PostgresStore) Create(ctx context.Context, m points.Member) (points.Member, error) {
	if s == nil || s.pool == nil {
		return points.Member{}, ErrInvalidInput
	}
	if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.Username) == "" {
		return points.Member{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return points.Member{}, err
	}

	history, err := marshalHistory(m.History)
	if err != nil {
		return points.Member{}, err
	}
	members := pgIdent(s.schema, "members")

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+members+` (id, username, username_norm, rank, points, last_active_at, history)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Username, normalizeUsername(m.Username), string(m.Rank), m.Points, m.LastActiveAt, history,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return points.Member{}, ErrConflict
		}
		return points.Member{}, err
	}
	return m, nil
}

func (s *PostgresStore) scanMember(row pgx.Row) (points.Member, error) {
	var m points.Member
	var rank string
	var rawHistory []byte
	if err := row.Scan(&m.ID, &m.Username, &rank, &m.Points, &m.LastActiveAt, &rawHistory); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return points.Member{}, ErrNotFound
		}
		return points.Member{}, err
	}
	m.Rank = points.Rank(rank)
	history, err := unmarshalHistory(rawHistory)
	if err != nil {
		return points.Member{}, err
	}
	m.History = history
	return m, nil
}

const memberColumns = `id, username, rank, points, last_active_at, history`

// Get returns a member by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (points.Member, error) {
	if s == nil || s.pool == nil {
		return points.Member{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return points.Member{}, err
	}
	members := pgIdent(s.schema, "members")
	return s.scanMember(s.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM `+members+` WHERE id = $1`, id))
}

// GetByUsername returns a member by exact username.
func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (points.Member, error) {
	if s == nil || s.pool == nil {
		return points.Member{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return points.Member{}, err
	}
	members := pgIdent(s.schema, "members")
	return s.scanMember(s.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM `+members+` WHERE username_norm = $1`,
		normalizeUsername(username)))
}

// Update replaces the stored record for m.ID.
func (s *PostgresStore) Update(ctx context.Context, m points.Member) (points.Member, error) {
	if s == nil || s.pool == nil {
		return points.Member{}, ErrInvalidInput
	}
	if strings.TrimSpace(m.ID) == "" {
		return points.Member{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return points.Member{}, err
	}

	history, err := marshalHistory(m.History)
	if err != nil {
		return points.Member{}, err
	}
	members := pgIdent(s.schema, "members")

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+members+`
		    SET username = $2, username_norm = $3, rank = $4, points = $5, last_active_at = $6, history = $7
		  WHERE id = $1`,
		m.ID, m.Username, normalizeUsername(m.Username), string(m.Rank), m.Points, m.LastActiveAt, history,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return points.Member{}, ErrConflict
		}
		return points.Member{}, err
	}
	if tag.RowsAffected() == 0 {
		return points.Member{}, ErrNotFound
	}
	return m, nil
}

// Touch records activity for a member at now.
func (s *PostgresStore) Touch(ctx context.Context, id string, now time.Time) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	members := pgIdent(s.schema, "members")

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+members+` SET last_active_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all members ordered by id.
func (s *PostgresStore) List(ctx context.Context) ([]points.Member, error) {
	if s == nil || s.pool == nil {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	members := pgIdent(s.schema, "members")

	rows, err := s.pool.Query(ctx,
		`SELECT `+memberColumns+` FROM `+members+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []points.Member
	for rows.Next() {
		m, err := s.scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
