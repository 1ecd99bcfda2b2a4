package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/househunt/internal/domain/types"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	email      TEXT NOT NULL,
	body       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS projects_owner_idx ON projects (owner_id, created_at);
`

// PostgresStore keeps each project as a JSONB document.
type PostgresStore struct {
	db   *sql.DB
	opts options
}

// OpenPostgres connects to databaseURL and ensures the table exists.
func OpenPostgres(ctx context.Context, databaseURL string, opts ...Option) (*PostgresStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	s := NewPostgresStore(db, opts...)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB, opts ...Option) *PostgresStore {
	return &PostgresStore{db: db, opts: newOptions(opts)}
}

// Migrate creates the projects table if needed.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ListProjects implements Store.
func (s *PostgresStore) ListProjects(ctx context.Context, ownerID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, email, body, created_at, updated_at
		FROM projects WHERE owner_id = $1
		ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

// GetProject implements Store.
func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, email, body, created_at, updated_at
		FROM projects WHERE id = $1`, projectID)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get %s: %w", projectID, ErrNotFound)
	}
	return r, err
}

// PutProject implements Store. Overwrites keep the original creation time.
func (s *PostgresStore) PutProject(ctx context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}
	body, err := json.Marshal(rec.Project)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	now := s.opts.now()
	created := rec.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, owner_id, email, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET owner_id = EXCLUDED.owner_id, email = EXCLUDED.email,
		    body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.OwnerID, rec.Email, body, created, now)
	if err != nil {
		return fmt.Errorf("put project: %w", err)
	}
	return nil
}

// AppendEntry implements Store with a single jsonb update.
func (s *PostgresStore) AppendEntry(ctx context.Context, projectID string, entry types.HouseEntry) error {
	b, err := json.Marshal([]types.HouseEntry{entry})
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET body = jsonb_set(body, '{houseEntries}', COALESCE(body->'houseEntries', '[]'::jsonb) || $2::jsonb),
		    updated_at = $3
		WHERE id = $1`, projectID, b, s.opts.now())
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("append to %s: %w", projectID, ErrNotFound)
	}
	return nil
}

// DB exposes the underlying handle.
func (s *PostgresStore) DB() *sql.DB { return s.db }

// Ping checks if the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *PostgresStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		r    Record
		body []byte
	)
	if err := sc.Scan(&r.ID, &r.OwnerID, &r.Email, &body, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan project: %w", err)
	}
	if err := json.Unmarshal(body, &r.Project); err != nil {
		return Record{}, fmt.Errorf("decode project %s: %w", r.ID, err)
	}
	return r, nil
}
