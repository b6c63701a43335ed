package valkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/session"
	"github.com/valkey-io/valkey-go"
)

const keyPrefix = "safety:session:"

// SessionStore implements session.Store using Valkey (Redis-compatible).
// Each session is a JSON string whose TTL is refreshed on every save.
type SessionStore struct {
	client valkey.Client
	ttl    time.Duration
}

// New creates a Valkey-backed session store.
func New(addr string, ttl time.Duration) (*SessionStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &SessionStore{client: client, ttl: ttl}, nil
}

// Load retrieves a session by ID.
func (s *SessionStore) Load(ctx context.Context, id string) (session.State, error) {
	b, err := s.client.Do(ctx, s.client.B().Get().Key(keyPrefix+id).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return session.State{}, session.ErrNotFound
	}
	if err != nil {
		return session.State{}, fmt.Errorf("valkey get session: %w", err)
	}
	return decodeState(b)
}

// Save stores a session and resets its TTL.
func (s *SessionStore) Save(ctx context.Context, id string, state session.State) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	cmd := s.client.Do(ctx,
		s.client.B().Set().Key(keyPrefix+id).Value(string(b)).Ex(s.ttl).Build(),
	)
	if err := cmd.Error(); err != nil {
		return fmt.Errorf("valkey set session: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// CheckReadiness implements the shared readiness checker.
func (s *SessionStore) CheckReadiness(ctx context.Context) error {
	if err := s.Ping(ctx); err != nil {
		return fmt.Errorf("valkey not ready: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *SessionStore) Close() {
	s.client.Close()
}

func decodeState(b []byte) (session.State, error) {
	var st session.State
	if err := json.Unmarshal(b, &st); err != nil {
		return session.State{}, errors.Join(session.ErrNotFound, fmt.Errorf("decode session: %w", err))
	}
	return st, nil
}
