// Package store persists user records and the per-user sync blob: an
// opaque JSON document the client uses to keep chat history and
// gamification stats across devices.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// MaxStateBytes caps the sync blob size per user.
const MaxStateBytes = 64 << 10

type User struct {
	ID           uuid.UUID       `json:"id"`
	Email        string          `json:"email"`
	Name         string          `json:"name"`
	Role         string          `json:"role"`
	PasswordHash string          `json:"-"`
	State        json.RawMessage `json:"state,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrStateTooLarge = errors.New("state blob too large")
)

type Store interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetState(ctx context.Context, id uuid.UUID) (json.RawMessage, error)
	PutState(ctx context.Context, id uuid.UUID, state json.RawMessage) error

	Close() error
}
