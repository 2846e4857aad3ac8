package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type memoryEntry struct {
	rec  *Record
	hash []byte
}

// MemoryStore keeps records in process memory with unique indexes on
// username, email and advisor ID.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]*memoryEntry
	byUsername map[string]string
	byEmail    map[string]string
	byAdvisor  map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]*memoryEntry),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		byAdvisor:  make(map[string]string),
	}
}

// Create stores a new record after checking the unique indexes.
func (m *MemoryStore) Create(_ context.Context, n NewRecord) (*Record, error) {
	n = n.Normalize()
	if err := n.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byUsername[n.Username]; ok {
		return nil, fmt.Errorf("username %q: %w", n.Username, ErrConstraintViolation)
	}
	if _, ok := m.byEmail[n.Email]; ok {
		return nil, fmt.Errorf("email %q: %w", n.Email, ErrConstraintViolation)
	}
	if n.AdvisorID != nil {
		if _, ok := m.byAdvisor[*n.AdvisorID]; ok {
			return nil, fmt.Errorf("advisor_id %q: %w", *n.AdvisorID, ErrConstraintViolation)
		}
	}

	rec := n.Record(uuid.NewString(), now())
	m.byID[rec.ID] = &memoryEntry{rec: rec, hash: append([]byte(nil), n.PasswordHash...)}
	m.byUsername[rec.Username] = rec.ID
	m.byEmail[rec.Email] = rec.ID
	if rec.AdvisorID != nil {
		m.byAdvisor[*rec.AdvisorID] = rec.ID
	}
	return rec.Clone(), nil
}

// Get returns a copy of the record for id.
func (m *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e.rec.Clone(), nil
}

// Update applies the non-nil delta fields in place.
func (m *MemoryStore) Update(_ context.Context, id string, d Delta) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	d.Apply(e.rec)
	return e.rec.Clone(), nil
}

// Credentials looks up the login id and password hash for username.
func (m *MemoryStore) Credentials(_ context.Context, username string) (Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byUsername[username]
	if !ok {
		return Credentials{}, ErrNotFound
	}
	e := m.byID[id]
	return Credentials{ID: id, Username: username, PasswordHash: append([]byte(nil), e.hash...)}, nil
}

var _ Repository = (*MemoryStore)(nil)
