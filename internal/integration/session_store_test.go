//go:build integration

package integration_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/adapter/valkey"
	"github.com/couchcryptid/safety-check-service/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	valkeygo "github.com/valkey-io/valkey-go"
)

const sessionKeyPrefix = "safety:session:"

// TestValkeySessionStore exercises the Valkey session backend against a real
// server: round trip, missing keys, TTL and readiness.
func TestValkeySessionStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	addr := startValkey(ctx, t)

	store, err := valkey.New(addr, time.Hour)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	raw, err := valkeygo.NewClient(valkeygo.ClientOption{InitAddress: []string{addr}})
	require.NoError(t, err)
	t.Cleanup(raw.Close)

	t.Run("ready", func(t *testing.T) {
		require.NoError(t, store.Ping(ctx))
		require.NoError(t, store.CheckReadiness(ctx))
	})

	t.Run("save then load", func(t *testing.T) {
		id := uuid.NewString()
		want := session.State{
			MonitoredLocation: "Tulsa, OK",
			MonitoredInput:    "74103",
			NotificationEmail: "user@example.com",
			NotificationPhone: "+15551234567",
		}
		require.NoError(t, store.Save(ctx, id, want))

		got, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("missing key is not found", func(t *testing.T) {
		_, err := store.Load(ctx, uuid.NewString())
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("save sets ttl", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, store.Save(ctx, id, session.State{MonitoredLocation: "Boise, ID"}))

		ttl, err := raw.Do(ctx, raw.B().Ttl().Key(sessionKeyPrefix+id).Build()).AsInt64()
		require.NoError(t, err)
		assert.Greater(t, ttl, int64(3500))
		assert.LessOrEqual(t, ttl, int64(3600))
	})

	t.Run("corrupt value is not found", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, raw.Do(ctx, raw.B().Set().Key(sessionKeyPrefix+id).Value("{not json").Build()).Error())

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("expired session is not found", func(t *testing.T) {
		short, err := valkey.New(addr, time.Second)
		require.NoError(t, err)
		defer short.Close()

		id := uuid.NewString()
		require.NoError(t, short.Save(ctx, id, session.State{MonitoredLocation: "Memphis, TN"}))

		require.Eventually(t, func() bool {
			_, err := short.Load(ctx, id)
			return errors.Is(err, session.ErrNotFound)
		}, 5*time.Second, 200*time.Millisecond)
	})
}
