package engine

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	Status() Status
	HasWon() bool
	HasLost() bool
	IsGameOver() bool
	Stats() PlayerStats
	GetPlayerPosition() Position

	// Grid queries
	Dimensions() (int, int)
	Tiles() [][]Tile
	Entities() map[Position]Entity

	// Movement operations
	Move(direction string) MoveReport
	CanMove(direction string) bool
	GetPossibleMoves() []string

	// Shop
	Catalog() Catalog
	Purchase(item Item) (Effect, error)

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface. It is the sole owner of the
// board and stats of one session and is not safe for concurrent use.
type GameEngine struct {
	config  *GameConfig
	maze    *Maze
	rules   Rules
	catalog Catalog
	start   PlayerStats

	board     *Board
	stats     PlayerStats
	message   string
	purchases []PurchaseRecord

	moveHistory  []MoveHistoryEntry
	totalMoves   int
	currentMoves []MoveHistoryEntry
}

var _ Engine = (*GameEngine)(nil)

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	e := &GameEngine{}
	if err := e.SetConfig(config); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineFromMaze builds a game straight from a maze source, using the
// default shop, effects and messages.
func NewEngineFromMaze(name string, source io.Reader, startingMoves int) (*GameEngine, error) {
	layout, err := ReadLayout(source)
	if err != nil {
		return nil, err
	}
	return NewEngine(&GameConfig{
		Name:          name,
		Layout:        layout,
		StartingMoves: startingMoves,
	})
}

// NewEngineWithDefaults creates a new game engine with the built-in level
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(DefaultGameConfig())
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return e
}

// SetConfig sets a new game configuration and starts it from scratch
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}
	maze, err := ParseMaze(config.Layout)
	if err != nil {
		return err
	}

	cfg := *config
	cfg.Messages = config.Messages.withDefaults()

	e.config = &cfg
	e.maze = maze
	e.rules = cfg.rules()
	e.catalog = cfg.catalog()
	e.start = cfg.startingStats()

	e.moveHistory = []MoveHistoryEntry{}
	e.totalMoves = 0
	e.restart()
	return nil
}

// restart rebuilds board and stats from the retained maze.
func (e *GameEngine) restart() {
	e.board = e.maze.Board()
	e.stats = e.start
	e.purchases = []PurchaseRecord{}
	e.currentMoves = []MoveHistoryEntry{}
	e.message = e.config.Messages.Welcome
	e.updateTerminalMessage()
}

// GetState returns a snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	rows, cols := e.board.Dimensions()
	total, filled := e.board.GoalCounts()
	return &GameState{
		Rows:              rows,
		Cols:              cols,
		Grid:              e.board.Render(),
		Tiles:             e.maze.Tiles(),
		Entities:          e.board.PlacedEntities(),
		PlayerPos:         e.board.PlayerPosition(),
		Stats:             e.stats,
		Shop:              e.catalog.Copy(),
		Status:            e.Status(),
		GoalsTotal:        total,
		GoalsFilled:       filled,
		Message:           e.message,
		ConfigName:        e.config.Name,
		Purchases:         append([]PurchaseRecord{}, e.purchases...),
		MoveHistory:       append([]MoveHistoryEntry{}, e.moveHistory...),
		TotalMoves:        e.totalMoves,
		CurrentMoves:      append([]MoveHistoryEntry{}, e.currentMoves...),
		CurrentMovesCount: len(e.currentMoves),
		LocalView3x3:      e.board.GenerateLocalView(),
	}
}

// SetState restores a snapshot (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	rows, cols := e.maze.Dimensions()
	if state.Rows != rows || state.Cols != cols {
		return fmt.Errorf("state dimensions %dx%d do not match maze %dx%d", state.Rows, state.Cols, rows, cols)
	}

	board := e.maze.Board()
	board.entities = make(map[Position]Entity, len(state.Entities))
	for _, pe := range state.Entities {
		if board.TileAt(pe.Pos) == Wall {
			return fmt.Errorf("entity %s at %s is inside a wall", pe.Kind, pe.Pos)
		}
		if _, dup := board.entities[pe.Pos]; dup {
			return fmt.Errorf("two entities at %s", pe.Pos)
		}
		board.entities[pe.Pos] = Entity{Kind: pe.Kind, Strength: pe.Strength}
	}
	if board.TileAt(state.PlayerPos) == Wall {
		return fmt.Errorf("player at %s is inside a wall", state.PlayerPos)
	}
	if occupant, ok := board.entities[state.PlayerPos]; ok {
		return fmt.Errorf("player at %s shares a cell with a %s", state.PlayerPos, occupant.Kind)
	}
	board.player = state.PlayerPos

	e.board = board
	e.stats = state.Stats
	e.message = state.Message
	e.purchases = append([]PurchaseRecord{}, state.Purchases...)
	e.moveHistory = append([]MoveHistoryEntry{}, state.MoveHistory...)
	e.totalMoves = state.TotalMoves
	e.currentMoves = append([]MoveHistoryEntry{}, state.CurrentMoves...)
	return nil
}

// Reset restores the initial board and stats. Cumulative history is kept;
// only the current segment is cleared.
func (e *GameEngine) Reset() *GameState {
	e.restart()
	return e.GetState()
}

// Status returns the state machine position
func (e *GameEngine) Status() Status {
	switch {
	case e.HasWon():
		return Won
	case e.HasLost():
		return Lost
	default:
		return Playing
	}
}

// HasWon reports whether every goal holds a crate
func (e *GameEngine) HasWon() bool {
	return e.board.AllGoalsFilled()
}

// HasLost reports whether the move budget ran out without winning
func (e *GameEngine) HasLost() bool {
	return e.stats.MovesRemaining <= 0 && !e.HasWon()
}

// IsGameOver returns whether the game reached a terminal state
func (e *GameEngine) IsGameOver() bool {
	return e.Status() != Playing
}

// Stats returns the current player stats
func (e *GameEngine) Stats() PlayerStats {
	return e.stats
}

// GetPlayerPosition returns the current player position
func (e *GameEngine) GetPlayerPosition() Position {
	return e.board.PlayerPosition()
}

// Dimensions returns the grid size as rows, cols
func (e *GameEngine) Dimensions() (int, int) {
	return e.maze.Dimensions()
}

// Tiles returns a copy of the static tile grid
func (e *GameEngine) Tiles() [][]Tile {
	return e.maze.Tiles()
}

// Entities returns a copy of the current entity map
func (e *GameEngine) Entities() map[Position]Entity {
	return e.board.Entities()
}

// Board returns a copy of the current board
func (e *GameEngine) Board() *Board {
	return e.board.Clone()
}

// Rules returns the effect magnitudes in use
func (e *GameEngine) Rules() Rules {
	return e.rules
}

// Move attempts to move the player in the specified direction
func (e *GameEngine) Move(direction string) MoveReport {
	pos := e.board.PlayerPosition()
	report := MoveReport{From: pos, To: pos, Target: pos}

	dir, err := ParseDirection(direction)
	switch {
	case err != nil:
		report.Outcome = OutcomeInvalidDirection
		e.message = fmt.Sprintf("Unknown direction %q", direction)
	case e.IsGameOver():
		report.Direction = dir
		report.Target = pos.Add(dir)
		report.Outcome = OutcomeGameOver
	default:
		report = e.board.Resolve(dir, &e.stats, e.rules)
		e.message = e.describe(report)
		e.updateTerminalMessage()
	}

	e.addMoveToHistory(report, direction)
	return report
}

// describe builds the player-facing message for a resolved move.
func (e *GameEngine) describe(report MoveReport) string {
	msgs := e.config.Messages
	switch report.Outcome {
	case OutcomeBlockedWall:
		return msgs.CantMove + fmt.Sprintf(" [Blocked by: wall at %s]", report.Target)
	case OutcomeBlockedCrate:
		return msgs.CantMove + fmt.Sprintf(" [Crate at %s cannot move]", report.Target)
	case OutcomeTooWeak:
		crate, _ := e.board.EntityAt(report.Target)
		return msgs.TooWeak + fmt.Sprintf(" [Needs strength %d, have %d]", crate.Strength, e.stats.Strength)
	case OutcomePushed:
		if report.Crate != nil && report.Crate.OnGoal {
			total, filled := e.board.GoalCounts()
			return formatMessage(msgs.GoalFilled, filled, total)
		}
		return fmt.Sprintf("Pushed crate to %s. Moves left: %d", report.Crate.To, e.stats.MovesRemaining)
	case OutcomeCollected:
		return formatMessage(msgs.Pickup, report.Pickup)
	default:
		return fmt.Sprintf("Moves left: %d", e.stats.MovesRemaining)
	}
}

// updateTerminalMessage overrides the message once the game has ended.
func (e *GameEngine) updateTerminalMessage() {
	switch e.Status() {
	case Won:
		total, _ := e.board.GoalCounts()
		e.message = formatMessage(e.config.Messages.Victory, total)
	case Lost:
		e.message = e.config.Messages.OutOfMoves
	}
}

// CanMove checks if a move in the direction would be applied
func (e *GameEngine) CanMove(direction string) bool {
	if e.IsGameOver() {
		return false
	}
	dir, err := ParseDirection(direction)
	if err != nil {
		return false
	}
	stats := e.stats
	return e.board.Clone().Resolve(dir, &stats, e.rules).Success()
}

// GetPossibleMoves returns all directions the player can move
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, dir := range Directions {
		if e.CanMove(string(dir)) {
			possible = append(possible, string(dir))
		}
	}
	return possible
}

// Catalog returns a copy of the shop prices
func (e *GameEngine) Catalog() Catalog {
	return e.catalog.Copy()
}

// Purchase buys an item from the shop and applies its effect immediately
func (e *GameEngine) Purchase(item Item) (Effect, error) {
	if e.IsGameOver() {
		return Effect{}, ErrGameOver
	}
	effect, err := Purchase(item, &e.stats, e.catalog, e.rules)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			e.message = e.config.Messages.InsufficientFunds
		}
		return Effect{}, err
	}
	price, _ := e.catalog.Price(item)
	e.purchases = append(e.purchases, PurchaseRecord{Item: item, Price: price, Timestamp: time.Now().Unix()})
	e.message = formatMessage(e.config.Messages.Purchase, item, price)
	return effect, nil
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.moveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.moveHistory) == 0 {
		return nil
	}
	return &e.moveHistory[len(e.moveHistory)-1]
}

// BulkMove executes multiple moves in sequence, stopping once the game is over
func (e *GameEngine) BulkMove(moves []string) []MoveReport {
	reports := make([]MoveReport, 0, len(moves))
	for _, direction := range moves {
		if e.IsGameOver() {
			break
		}
		reports = append(reports, e.Move(direction))
	}
	return reports
}

// addMoveToHistory appends an attempt to the cumulative and current histories
func (e *GameEngine) addMoveToHistory(report MoveReport, action string) {
	entry := newHistoryEntry(report, action, e.stats, e.totalMoves+1)
	e.moveHistory = append(e.moveHistory, entry)
	e.totalMoves++
	e.currentMoves = append(e.currentMoves, entry)
}

// formatMessage applies args only when the template has verbs for them.
func formatMessage(template string, args ...any) string {
	if !containsVerb(template) {
		return template
	}
	return fmt.Sprintf(template, args...)
}

func containsVerb(s string) bool {
	for i := 0; i < len(s)-1; i++ {
		if s[i] == '%' && s[i+1] != '%' {
			return true
		}
	}
	return false
}
