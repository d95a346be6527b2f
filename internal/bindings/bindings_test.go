package bindings

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client), mr
}

func TestLatest(t *testing.T) {
	store, mr := newTestStore(t)
	mr.HSet("device:dev-1:binding",
		"transport", "mqtt",
		"broker", "tcp://broker:1883",
		"last_seen", "1777723200")

	b, err := store.Latest(context.Background(), "dev-1")

	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "dev-1", b.DeviceID)
	assert.Equal(t, "mqtt", b.Transport)
	assert.Equal(t, "tcp://broker:1883", b.Broker)
	assert.Equal(t, int64(1777723200), b.LastSeen.Unix())
}

func TestLatest_NeverConnected(t *testing.T) {
	store, _ := newTestStore(t)

	b, err := store.Latest(context.Background(), "dev-unknown")

	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestLatest_MissingLastSeen(t *testing.T) {
	store, mr := newTestStore(t)
	mr.HSet("device:dev-2:binding", "transport", "ws")

	b, err := store.Latest(context.Background(), "dev-2")

	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "ws", b.Transport)
	assert.True(t, b.LastSeen.IsZero())
}
