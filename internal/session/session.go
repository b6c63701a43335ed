// Package session holds the per-visitor state kept between requests: the
// last checked location and the notification contact points.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// ErrNotFound is returned by Load when no live session exists for an ID.
var ErrNotFound = errors.New("session not found")

// State is the session-scoped data. The zero value is an empty session.
type State struct {
	MonitoredLocation string `json:"monitored_location,omitempty"`
	MonitoredInput    string `json:"monitored_input,omitempty"`
	NotificationEmail string `json:"notification_email,omitempty"`
	NotificationPhone string `json:"notification_phone,omitempty"`
}

// Preference returns the saved contact points.
func (s State) Preference() domain.NotificationPreference {
	return domain.NotificationPreference{Email: s.NotificationEmail, Phone: s.NotificationPhone}
}

// Store persists session state by ID.
type Store interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, state State) error
	Ping(ctx context.Context) error
}

// MemoryStore is an in-process Store. Entries expire ttl after their last save.
type MemoryStore struct {
	ttl   time.Duration
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// NewMemoryStore creates a MemoryStore. A nil clock uses real time.
func NewMemoryStore(ttl time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return State{}, ErrNotFound
	}
	if !s.clock.Now().Before(e.expiresAt) {
		delete(s.entries, id)
		return State{}, ErrNotFound
	}
	return e.state, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.entries[id] = memoryEntry{state: state, expiresAt: now.Add(s.ttl)}
	s.sweep(now)
	return nil
}

// Ping always succeeds; it satisfies the readiness contract shared with
// networked stores.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// CheckReadiness implements the shared readiness checker.
func (s *MemoryStore) CheckReadiness(ctx context.Context) error { return s.Ping(ctx) }

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// sweep drops expired entries. Caller holds mu.
func (s *MemoryStore) sweep(now time.Time) {
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}
