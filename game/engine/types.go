package engine

import "fmt"

// Tile is the static terrain of a cell. It never changes after a maze is loaded.
type Tile string

const (
	Floor Tile = "floor"
	Wall  Tile = "wall"
	Goal  Tile = "goal"

	// FilledGoal is a display-only tile. It is derived from a Goal cell holding a
	// crate and is never stored in a Board.
	FilledGoal Tile = "filled_goal"
)

// EntityKind identifies the occupant of a cell other than the player.
type EntityKind string

const (
	Crate          EntityKind = "crate"
	MovePotion     EntityKind = "move_potion"
	StrengthPotion EntityKind = "strength_potion"
	FancyPotion    EntityKind = "fancy_potion"
	Coin           EntityKind = "coin"
)

// Validation and gameplay constants
const (
	DefaultCrateStrength = 1
	MinStrength          = 1
	MinMoves             = 1
	MaxMoves             = 10000
	MaxGridSize          = 64
	MaxBulkMoves         = 50
	WebSocketBufferSize  = 256
)

// Entity is a crate or a pickup. Strength is only meaningful for crates.
type Entity struct {
	Kind     EntityKind `json:"kind"`
	Strength int        `json:"strength,omitempty"`
}

// IsPickup reports whether the entity is consumed when the player steps on it.
func (e Entity) IsPickup() bool {
	switch e.Kind {
	case MovePotion, StrengthPotion, FancyPotion, Coin:
		return true
	}
	return false
}

// IsCrate reports whether the entity is a pushable crate.
func (e Entity) IsCrate() bool {
	return e.Kind == Crate
}

// Position is a (row, column) coordinate into the grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add returns the position offset by the direction's delta.
func (p Position) Add(d Direction) Position {
	dr, dc := d.Delta()
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// PlayerStats is the mutable aggregate of player resources.
type PlayerStats struct {
	MovesRemaining int `json:"moves_remaining"`
	Strength       int `json:"strength"`
	Money          int `json:"money"`
}

// Apply adds an effect to the stats.
func (s *PlayerStats) Apply(e Effect) {
	s.MovesRemaining += e.Moves
	s.Strength += e.Strength
	s.Money += e.Money
}

// Effect is the stat change caused by a pickup or a shop purchase.
type Effect struct {
	Moves    int `json:"moves,omitempty"`
	Strength int `json:"strength,omitempty"`
	Money    int `json:"money,omitempty"`
}

// IsZero reports whether the effect changes nothing.
func (e Effect) IsZero() bool {
	return e == Effect{}
}

// Rules holds the magnitudes of pickup and potion effects.
type Rules struct {
	MovePotionMoves        int `json:"move_potion_moves" yaml:"move_potion_moves"`
	StrengthPotionStrength int `json:"strength_potion_strength" yaml:"strength_potion_strength"`
	FancyPotionMoves       int `json:"fancy_potion_moves" yaml:"fancy_potion_moves"`
	FancyPotionStrength    int `json:"fancy_potion_strength" yaml:"fancy_potion_strength"`
	CoinValue              int `json:"coin_value" yaml:"coin_value"`
}

// DefaultRules returns the stock effect magnitudes.
func DefaultRules() Rules {
	return Rules{
		MovePotionMoves:        5,
		StrengthPotionStrength: 2,
		FancyPotionMoves:       2,
		FancyPotionStrength:    2,
		CoinValue:              5,
	}
}

// Effect returns the stat change applied when the player collects kind.
func (r Rules) Effect(kind EntityKind) Effect {
	switch kind {
	case MovePotion:
		return Effect{Moves: r.MovePotionMoves}
	case StrengthPotion:
		return Effect{Strength: r.StrengthPotionStrength}
	case FancyPotion:
		return Effect{Moves: r.FancyPotionMoves, Strength: r.FancyPotionStrength}
	case Coin:
		return Effect{Money: r.CoinValue}
	default:
		return Effect{}
	}
}

// Status is the session state machine position.
type Status string

const (
	Playing Status = "playing"
	Won     Status = "won"
	Lost    Status = "lost"
)

// Messages are the player-facing texts of a level.
type Messages struct {
	Welcome           string `json:"welcome" yaml:"welcome"`
	Victory           string `json:"victory" yaml:"victory"`
	OutOfMoves        string `json:"out_of_moves" yaml:"out_of_moves"`
	CantMove          string `json:"cant_move" yaml:"cant_move"`
	TooWeak           string `json:"too_weak" yaml:"too_weak"`
	GoalFilled        string `json:"goal_filled" yaml:"goal_filled"`
	Pickup            string `json:"pickup" yaml:"pickup"`
	Purchase          string `json:"purchase" yaml:"purchase"`
	InsufficientFunds string `json:"insufficient_funds" yaml:"insufficient_funds"`
}

// GameConfig is a level definition as stored in the configs directory.
type GameConfig struct {
	Name             string       `json:"name" yaml:"name"`
	Description      string       `json:"description" yaml:"description"`
	Layout           []string     `json:"layout" yaml:"layout"`
	StartingMoves    int          `json:"starting_moves" yaml:"starting_moves"`
	StartingStrength int          `json:"starting_strength" yaml:"starting_strength"`
	StartingMoney    int          `json:"starting_money" yaml:"starting_money"`
	Shop             map[Item]int `json:"shop,omitempty" yaml:"shop,omitempty"`
	Effects          *Rules       `json:"effects,omitempty" yaml:"effects,omitempty"`
	Messages         Messages     `json:"messages" yaml:"messages"`
}

// PlacedEntity is an entity together with its cell, as exposed in snapshots.
type PlacedEntity struct {
	Pos      Position   `json:"pos"`
	Kind     EntityKind `json:"kind"`
	Strength int        `json:"strength,omitempty"`
}

// GameState is a read-only snapshot of a game session.
type GameState struct {
	Rows        int              `json:"rows"`
	Cols        int              `json:"cols"`
	Grid        []string         `json:"grid"`
	Tiles       [][]Tile         `json:"tiles"`
	Entities    []PlacedEntity   `json:"entities"`
	PlayerPos   Position         `json:"player_pos"`
	Stats       PlayerStats      `json:"stats"`
	Shop        map[Item]int     `json:"shop"`
	Status      Status           `json:"status"`
	GoalsTotal  int              `json:"goals_total"`
	GoalsFilled int              `json:"goals_filled"`
	Message     string           `json:"message"`
	ConfigName  string           `json:"config_name"`
	Purchases   []PurchaseRecord `json:"purchases"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset. MoveHistory is cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	// Computed helper views
	LocalView3x3 []string `json:"local_view_3x3,omitempty"`
}

// GameOver reports whether the snapshot is in a terminal state.
func (s *GameState) GameOver() bool {
	return s.Status == Won || s.Status == Lost
}

// MoveHistoryEntry represents a single move attempt in the game history
type MoveHistoryEntry struct {
	Action         string      `json:"action"`
	FromPosition   Position    `json:"from_position"`
	ToPosition     Position    `json:"to_position"`
	Outcome        MoveOutcome `json:"outcome"`
	MovesRemaining int         `json:"moves_remaining"`
	Timestamp      int64       `json:"timestamp"`
	Success        bool        `json:"success"`
	MoveNumber     int         `json:"move_number"`
}

// PurchaseRecord is a completed shop purchase.
type PurchaseRecord struct {
	Item      Item  `json:"item"`
	Price     int   `json:"price"`
	Timestamp int64 `json:"timestamp"`
}
