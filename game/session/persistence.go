package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// ExistenceChecker is implemented by stores whose existence check can fail
// for reasons other than absence. Callers that act on a missing session
// should prefer it over Exists.
type ExistenceChecker interface {
	CheckExists(id string) (bool, error)
}

// Toucher is implemented by stores that expire sessions. Touch resets the
// expiry without rewriting the session.
type Toucher interface {
	Touch(id string) error
}

// ExistsInStore reports whether id is present in store. Only stores that
// implement ExistenceChecker can report an error.
func ExistsInStore(store SessionPersistence, id string) (bool, error) {
	if checker, ok := store.(ExistenceChecker); ok {
		return checker.CheckExists(id)
	}
	return store.Exists(id), nil
}

// PersistedSessionData is the JSON document stored for a session. The level
// is kept alongside the state so a session survives its config file being
// edited or removed.
type PersistedSessionData struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Config         *engine.GameConfig `json:"config,omitempty"`
	GameState      *engine.GameState  `json:"game_state"`
}

// codec converts sessions to and from their stored form. Every backend
// shares it so the stored documents are interchangeable.
type codec struct {
	configs service.ConfigManager
}

// encode builds the stored document for a session.
func (c codec) encode(session *service.Session) ([]byte, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}

	data := PersistedSessionData{
		ID:             session.ID,
		ConfigName:     c.configID(session.Config.Name),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Config:         session.Config,
		GameState:      session.Engine.GetState(),
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}
	return jsonData, nil
}

// decode rebuilds a live session with its engine restored to the stored state.
func (c codec) decode(raw []byte) (*service.Session, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if data.GameState == nil {
		return nil, fmt.Errorf("session %s has no game state", data.ID)
	}

	gameConfig := data.Config
	if gameConfig == nil {
		if c.configs == nil {
			return nil, fmt.Errorf("session %s has no embedded config", data.ID)
		}
		loaded, err := c.configs.LoadConfig(data.ConfigName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
		}
		gameConfig = loaded
	}

	gameEngine, err := engine.NewEngine(gameConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}
	if err := gameEngine.SetState(data.GameState); err != nil {
		return nil, fmt.Errorf("failed to set game state: %w", err)
	}

	return &service.Session{
		ID:             data.ID,
		Engine:         gameEngine,
		Config:         gameConfig,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// configID returns the config ID (filename without extension) for a display name
func (c codec) configID(displayName string) string {
	if c.configs != nil {
		if configs, err := c.configs.ListConfigs(); err == nil {
			for _, config := range configs {
				if config.Name == displayName {
					return config.ConfigID
				}
			}
		}
	}
	// Assume the display name is already the config ID
	return displayName
}
