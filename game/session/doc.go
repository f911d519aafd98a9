// Package session provides session management for the Sokoban game server.
//
// Manager keeps live sessions in memory behind a RWMutex, each with its own
// engine instance. Sessions use 4-character hex IDs generated from crypto/rand;
// callers may also pick their own ID. IDs are case-insensitive and limited to
// lowercase letters, digits, '-' and '_' so they are safe as file names and
// Redis keys.
//
// Persistence:
//
// A Manager built with NewManagerWithPersistence saves every new session and
// falls back to storage on a cache miss. Three SessionPersistence backends
// share one JSON document format (PersistedSessionData):
//
//   - FilePersistence: one <id>.json file per session
//   - RedisPersistence: session:<id> strings with a TTL, indexed by the sessions set
//   - PostgresPersistence: a game_sessions table with a JSONB column
//
// The stored document embeds the level config, so a session can be restored
// even after its config file is removed.
//
// Usage:
//
//	store, err := session.NewFilePersistence("./sessions", configManager)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Printf("failed to load sessions: %v", err)
//	}
//
//	sess, err := manager.Create("", config)
package session
