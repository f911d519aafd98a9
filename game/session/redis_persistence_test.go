package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, opts RedisOptions) (*RedisPersistence, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rp, err := NewRedisPersistence(context.Background(), "redis://"+mr.Addr(), nil, opts)
	require.NoError(t, err)
	t.Cleanup(func() { rp.Close() })
	return rp, mr
}

func TestRedisPersistence(t *testing.T) {
	rp, _ := newTestRedis(t, RedisOptions{})
	testPersistenceContract(t, rp)
}

func TestRedisPersistence_KeysAndTTL(t *testing.T) {
	rp, mr := newTestRedis(t, RedisOptions{TTL: time.Hour})

	require.NoError(t, rp.Save(newTestSession(t, "ttl-check")))

	assert.True(t, mr.Exists("session:ttl-check"))
	assert.Equal(t, time.Hour, mr.TTL("session:ttl-check"))

	members, err := mr.Members("sessions")
	require.NoError(t, err)
	assert.Equal(t, []string{"ttl-check"}, members)
}

func TestRedisPersistence_ExpiredSessionsArePruned(t *testing.T) {
	rp, mr := newTestRedis(t, RedisOptions{TTL: time.Minute})

	require.NoError(t, rp.Save(newTestSession(t, "short-lived")))
	mr.FastForward(2 * time.Minute)

	assert.False(t, rp.Exists("short-lived"))
	_, err := rp.Load("short-lived")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	ids, err := rp.ListAll()
	require.NoError(t, err)
	assert.Empty(t, ids)

	members, _ := mr.Members("sessions")
	assert.Empty(t, members)
}

func TestRedisPersistence_BadURL(t *testing.T) {
	_, err := NewRedisPersistence(context.Background(), "not-a-url", nil, RedisOptions{})
	assert.ErrorContains(t, err, "invalid redis url")
}

func TestRedisPersistence_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisPersistence(context.Background(), "redis://"+addr, nil, RedisOptions{Timeout: 100 * time.Millisecond})
	assert.ErrorContains(t, err, "redis ping failed")
}

func TestManagerWithRedisPersistence(t *testing.T) {
	rp, _ := newTestRedis(t, RedisOptions{})
	manager := NewManagerWithPersistence(rp)

	created, err := manager.Create("shared", createTestConfig())
	require.NoError(t, err)
	created.Engine.Move("down")
	require.NoError(t, manager.Save("shared"))

	other := NewManagerWithPersistence(rp)
	loaded, err := other.Get("SHARED")
	require.NoError(t, err)
	assert.Equal(t, created.Engine.GetPlayerPosition(), loaded.Engine.GetPlayerPosition())
}

func TestRedisPersistence_CheckExistsReportsErrors(t *testing.T) {
	rp, mr := newTestRedis(t, RedisOptions{Timeout: 100 * time.Millisecond})
	require.NoError(t, rp.Save(newTestSession(t, "alive")))

	ok, err := rp.CheckExists("alive")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rp.CheckExists("absent")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.Close()

	_, err = rp.CheckExists("alive")
	assert.Error(t, err)
	_, err = ExistsInStore(rp, "alive")
	assert.Error(t, err, "ExistsInStore must surface the store error")
}

func TestRedisPersistence_Touch(t *testing.T) {
	rp, mr := newTestRedis(t, RedisOptions{TTL: time.Hour})
	require.NoError(t, rp.Save(newTestSession(t, "touched")))

	mr.FastForward(40 * time.Minute)
	require.NoError(t, rp.Touch("touched"))
	assert.Equal(t, time.Hour, mr.TTL("session:touched"))

	assert.ErrorIs(t, rp.Touch("missing"), ErrSessionNotFound)
}

func TestManager_UpdateLastAccessedRefreshesRedisTTL(t *testing.T) {
	rp, mr := newTestRedis(t, RedisOptions{TTL: time.Hour})
	manager := NewManagerWithPersistence(rp)

	_, err := manager.Create("reader", createTestConfig())
	require.NoError(t, err)

	// Reads only, no saves: the key must still outlive the original TTL
	for i := 0; i < 3; i++ {
		mr.FastForward(40 * time.Minute)
		require.NoError(t, manager.UpdateLastAccessed("reader"))
	}

	assert.True(t, mr.Exists("session:reader"))
	assert.Equal(t, time.Hour, mr.TTL("session:reader"))
}
