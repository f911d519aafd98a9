package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

// SessionOps manages the lifecycle of game sessions
type SessionOps interface {
	CreateSession(ctx context.Context, level string) (*SessionInfo, error)
	GetSession(ctx context.Context, id string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, id string) error
}

// PlayOps acts on the board of one session. reset=true restarts the level
// before the moves are applied.
type PlayOps interface {
	Move(ctx context.Context, id, direction string, reset bool) (*MoveResult, error)
	BulkMove(ctx context.Context, id string, moves []string, reset bool) (*BulkMoveResult, error)
	Reset(ctx context.Context, id string) (*engine.GameState, error)
	GetGameState(ctx context.Context, id string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, id string, opts HistoryOptions) (*HistoryResponse, error)
}

// ShopOps trades money for potions
type ShopOps interface {
	Purchase(ctx context.Context, id, item string) (*PurchaseResult, error)
	GetShop(ctx context.Context, id string) (*ShopInfo, error)
}

// LevelOps reads and writes level configurations
type LevelOps interface {
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, name string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, name string, config *engine.GameConfig) error
}

// GameService is the full set of operations the transports expose
type GameService interface {
	SessionOps
	PlayOps
	ShopOps
	LevelOps
}

// SessionManager stores live sessions
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager resolves level names to configurations
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session is one player's game. Engine is not safe for concurrent use; the
// service serializes access to it.
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
