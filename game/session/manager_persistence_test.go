package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerWithPersistence(t *testing.T) {
	persistence, err := NewFilePersistence(t.TempDir(), nil)
	require.NoError(t, err)
	manager := NewManagerWithPersistence(persistence)
	config := createTestConfig()

	t.Run("Create Session Auto-Saves", func(t *testing.T) {
		session, err := manager.Create("auto1", config)
		require.NoError(t, err)
		assert.True(t, persistence.Exists(session.ID), "session should be saved on creation")

		loaded, err := persistence.Load(session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, loaded.ID)
	})

	t.Run("Get Session Loads from Persistence", func(t *testing.T) {
		fresh := NewManagerWithPersistence(persistence)
		assert.Equal(t, 0, fresh.Count())

		session, err := fresh.Get("auto1")
		require.NoError(t, err)
		assert.Equal(t, "auto1", session.ID)
		assert.Equal(t, 1, fresh.Count(), "loaded session should be cached")
	})

	t.Run("Save Method Persists Changes", func(t *testing.T) {
		session, err := manager.Get("auto1")
		require.NoError(t, err)

		report := session.Engine.Move("right")
		require.True(t, report.Success())
		require.NoError(t, manager.Save("auto1"))

		loaded, err := NewManagerWithPersistence(persistence).Get("auto1")
		require.NoError(t, err)
		assert.Equal(t, session.Engine.GetPlayerPosition(), loaded.Engine.GetPlayerPosition())
		assert.NotEmpty(t, loaded.Engine.GetMoveHistory())
	})

	t.Run("Delete Removes from Persistence", func(t *testing.T) {
		session, err := manager.Create("delete_test", config)
		require.NoError(t, err)
		require.True(t, persistence.Exists(session.ID))

		require.NoError(t, manager.Delete(session.ID))
		assert.False(t, persistence.Exists(session.ID))

		_, err = manager.Get(session.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Delete Of Persisted-Only Session", func(t *testing.T) {
		_, err := manager.Create("disk_only", config)
		require.NoError(t, err)
		require.NoError(t, manager.DeleteFromMemory("disk_only"))

		require.NoError(t, manager.Delete("disk_only"))
		assert.False(t, persistence.Exists("disk_only"))
	})

	t.Run("Load Persisted Sessions on Startup", func(t *testing.T) {
		ids := []string{"startup1", "startup2", "startup3"}
		for _, id := range ids {
			_, err := manager.Create(id, config)
			require.NoError(t, err)
		}

		restarted := NewManagerWithPersistence(persistence)
		require.NoError(t, restarted.LoadPersistedSessions())

		for _, id := range ids {
			session, err := restarted.Get(id)
			require.NoError(t, err)
			assert.Equal(t, id, session.ID)
		}
		assert.GreaterOrEqual(t, len(restarted.List()), len(ids))
	})

	t.Run("Last Accessed Persists On Save", func(t *testing.T) {
		session, err := manager.Get("startup1")
		require.NoError(t, err)
		original := session.LastAccessedAt

		time.Sleep(10 * time.Millisecond)
		require.NoError(t, manager.UpdateLastAccessed("startup1"))
		require.NoError(t, manager.SaveAllSessions())

		loaded, err := persistence.Load("startup1")
		require.NoError(t, err)
		assert.True(t, loaded.LastAccessedAt.After(original))
	})

	t.Run("Memory Cleanup Keeps Storage", func(t *testing.T) {
		session, err := manager.Get("startup2")
		require.NoError(t, err)
		session.LastAccessedAt = time.Now().Add(-2 * time.Hour)

		assert.GreaterOrEqual(t, manager.CleanupExpiredSessions(time.Hour), 1)
		assert.True(t, persistence.Exists("startup2"))

		reloaded, err := manager.Get("startup2")
		require.NoError(t, err)
		assert.Equal(t, "startup2", reloaded.ID)
	})
}

func TestManager_NoPersistence(t *testing.T) {
	manager := NewManager()
	assert.NoError(t, manager.LoadPersistedSessions())
	assert.NoError(t, manager.SaveAllSessions())
	assert.NoError(t, manager.Save("anything"))
}
