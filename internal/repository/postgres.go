package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/quizflow/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	code        TEXT NOT NULL,
	body        JSONB NOT NULL,
	create_time TIMESTAMPTZ NOT NULL,
	update_time TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_code_idx ON sessions (code, create_time DESC);`

type PostgresConfig struct {
	DB *pgxpool.Pool
}

// Postgres stores each session as a JSONB document in the sessions table.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(c PostgresConfig) *Postgres {
	return &Postgres{db: c.DB}
}

// Migrate creates the sessions table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate sessions: %w", err)
	}

	return nil
}

func (p *Postgres) Create(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	const stmt = `
INSERT INTO sessions (session_id, code, body, create_time, update_time)
VALUES ($1, $2, $3, $4, $5);`

	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session %s: %w", s.ID, err)
	}

	if _, err := p.db.Exec(ctx, stmt, s.ID, normalizeCode(s.Code), b, s.CreatedAt, s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return s.Clone(), nil
}

func (p *Postgres) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	const stmt = `SELECT body FROM sessions WHERE session_id = $1;`
	return p.findOne(ctx, stmt, id)
}

func (p *Postgres) FindByCode(ctx context.Context, code string) (*domain.Session, error) {
	const stmt = `SELECT body FROM sessions WHERE code = $1 ORDER BY create_time DESC LIMIT 1;`
	return p.findOne(ctx, stmt, normalizeCode(code))
}

func (p *Postgres) Update(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	const stmt = `
INSERT INTO sessions (session_id, code, body, create_time, update_time)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (session_id) DO UPDATE
SET code = EXCLUDED.code, body = EXCLUDED.body, update_time = EXCLUDED.update_time;`

	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session %s: %w", s.ID, err)
	}

	if _, err := p.db.Exec(ctx, stmt, s.ID, normalizeCode(s.Code), b, s.CreatedAt, s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	return s.Clone(), nil
}

func (p *Postgres) findOne(ctx context.Context, stmt string, arg string) (*domain.Session, error) {
	var b []byte
	err := p.db.QueryRow(ctx, stmt, arg).Scan(&b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &s, nil
}
