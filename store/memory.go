package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory keeps users in process memory. Suitable for tests and
// single-instance development runs; state is lost on restart.
type Memory struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]User
	byEmail map[string]uuid.UUID
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[uuid.UUID]User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *Memory) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, taken := s.byEmail[email]; taken {
		return ErrEmailTaken
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = *u
	s.byEmail[email] = u.ID
	return nil
}

func (s *Memory) Get(_ context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *Memory) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Memory) List(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Memory) Update(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[u.ID]
	if !ok {
		return ErrNotFound
	}

	email := strings.ToLower(u.Email)
	if id, taken := s.byEmail[email]; taken && id != u.ID {
		return ErrEmailTaken
	}

	delete(s.byEmail, strings.ToLower(current.Email))
	u.CreatedAt = current.CreatedAt
	u.UpdatedAt = time.Now()
	s.users[u.ID] = *u
	s.byEmail[email] = u.ID
	return nil
}

func (s *Memory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(u.Email))
	delete(s.users, id)
	return nil
}

func (s *Memory) GetState(_ context.Context, id uuid.UUID) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if u.State == nil {
		return json.RawMessage("{}"), nil
	}
	return u.State, nil
}

func (s *Memory) PutState(_ context.Context, id uuid.UUID, state json.RawMessage) error {
	if len(state) > MaxStateBytes {
		return ErrStateTooLarge
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.State = state
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

func (s *Memory) Close() error {
	return nil
}
