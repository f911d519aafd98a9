package service

import (
	"time"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool               `json:"success"`
	Outcome     engine.MoveOutcome `json:"outcome"`
	GameState   *engine.GameState  `json:"game_state"`
	Message     string             `json:"message"`
	Events      []GameEvent        `json:"events,omitempty"`
	Step        *StepInfo          `json:"step,omitempty"`
	AttemptedTo *AttemptInfo       `json:"attempted_to,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // blocked_wall|blocked_crate|too_weak|invalid_direction|game_over|victory|out_of_moves
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos    engine.Position    `json:"start_pos"`
	EndPos      engine.Position    `json:"end_pos"`
	StartStats  engine.PlayerStats `json:"start_stats"`
	EndStats    engine.PlayerStats `json:"end_stats"`
	GoalsFilled int                `json:"goals_filled"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Failure diagnostics
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	// Final status aids
	GameOver      bool          `json:"game_over"`
	Status        engine.Status `json:"status"`
	Message       string        `json:"message,omitempty"`
	PossibleMoves []string      `json:"possible_moves,omitempty"`
	LocalView3x3  []string      `json:"local_view_3x3,omitempty"`
	MoveBudget    string        `json:"move_budget,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx         int                `json:"idx"`
	Dir         string             `json:"dir"`
	From        engine.Position    `json:"from"`
	To          engine.Position    `json:"to"`
	Outcome     engine.MoveOutcome `json:"outcome"`
	MovesBefore int                `json:"moves_before"`
	MovesAfter  int                `json:"moves_after"`
	Success     bool               `json:"success"`
	Pushed      bool               `json:"pushed,omitempty"`
	GoalFilled  bool               `json:"goal_filled,omitempty"`
	Pickup      engine.EntityKind  `json:"pickup,omitempty"`
	Victory     bool               `json:"victory,omitempty"`
}

// AttemptInfo details the target cell of a rejected move
type AttemptInfo struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	TileChar string `json:"tile_char"`
	TileType string `json:"tile_type"`
	Occupant string `json:"occupant,omitempty"`
	Passable bool   `json:"passable"`
}

// Event types
const (
	EventMove       = "move"
	EventPush       = "push"
	EventGoalFilled = "goal_filled"
	EventPickup     = "pickup"
	EventCoin       = "coin"
	EventPurchase   = "purchase"
	EventVictory    = "victory"
	EventGameOver   = "game_over"
	EventReset      = "reset"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// PurchaseResult contains the result of a shop purchase
type PurchaseResult struct {
	Success    bool              `json:"success"`
	Item       engine.Item       `json:"item"`
	Price      int               `json:"price"`
	Effect     engine.Effect     `json:"effect"`
	ReasonCode string            `json:"reason_code,omitempty"` // insufficient_funds|game_over
	Message    string            `json:"message"`
	GameState  *engine.GameState `json:"game_state"`
	Events     []GameEvent       `json:"events,omitempty"`
}

// ShopItem is a catalog entry annotated for the current player
type ShopItem struct {
	Item       engine.Item   `json:"item"`
	Price      int           `json:"price"`
	Effect     engine.Effect `json:"effect"`
	Affordable bool          `json:"affordable"`
}

// ShopInfo describes the shop as seen by a session
type ShopInfo struct {
	Items []ShopItem `json:"items"`
	Money int        `json:"money"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a level configuration
type ConfigInfo struct {
	Filename      string `json:"filename"`
	ConfigID      string `json:"config_id"` // The identifier to use for session creation
	Name          string `json:"name"`      // Display name
	Description   string `json:"description"`
	Rows          int    `json:"rows"`
	Cols          int    `json:"cols"`
	Goals         int    `json:"goals"`
	Crates        int    `json:"crates"`
	StartingMoves int    `json:"starting_moves"`
}
