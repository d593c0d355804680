package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const createUsersTableSQL = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT 'member',
    password_hash TEXT NOT NULL DEFAULT '',
    state JSONB,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (LOWER(email));
`

// uniqueViolation is the Postgres error code for a unique index hit.
const uniqueViolation = "23505"

// Postgres persists users over database/sql with the lib/pq driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) (*Postgres, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	s := &Postgres{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *Postgres) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, createUsersTableSQL); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, role, password_hash, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.Role, u.PasswordHash, nullableState(u.State), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, password_hash, state, created_at, updated_at
		 FROM users WHERE id = $1`, id))
}

func (s *Postgres) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, password_hash, state, created_at, updated_at
		 FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

func (s *Postgres) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, name, role, password_hash, state, created_at, updated_at
		 FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var state []byte
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &state, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.State = state
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET email = $2, name = $3, role = $4, password_hash = $5, updated_at = $6
		 WHERE id = $1`,
		u.ID, u.Email, u.Name, u.Role, u.PasswordHash, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) GetState(ctx context.Context, id uuid.UUID) (json.RawMessage, error) {
	var state []byte
	err := s.db.QueryRowContext(ctx, `SELECT state FROM users WHERE id = $1`, id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	if state == nil {
		return json.RawMessage("{}"), nil
	}
	return state, nil
}

func (s *Postgres) PutState(ctx context.Context, id uuid.UUID, state json.RawMessage) error {
	if len(state) > MaxStateBytes {
		return ErrStateTooLarge
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET state = $2, updated_at = $3 WHERE id = $1`,
		id, []byte(state), time.Now())
	if err != nil {
		return fmt.Errorf("put state: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

func (s *Postgres) scanOne(row *sql.Row) (*User, error) {
	var u User
	var state []byte
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &state, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.State = state
	return &u, nil
}

func nullableState(state json.RawMessage) interface{} {
	if state == nil {
		return nil
	}
	return []byte(state)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
