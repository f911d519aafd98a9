package engine

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func createTestConfig() *GameConfig {
	return &GameConfig{
		Name:        "Engine Test Config",
		Description: "Configuration for engine integration tests",
		Layout: []string{
			"WWWWWW",
			"WP1 GW",
			"W $  W",
			"WWWWWW",
		},
		StartingMoves:    6,
		StartingStrength: 1,
		StartingMoney:    5,
		Messages: Messages{
			Welcome: "Welcome to engine test!",
		},
	}
}

func mustEngine(t *testing.T, config *GameConfig) *GameEngine {
	t.Helper()
	e, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}

func TestNewEngine(t *testing.T) {
	config := createTestConfig()
	engine := mustEngine(t, config)

	stats := engine.Stats()
	if stats.MovesRemaining != 6 || stats.Strength != 1 || stats.Money != 5 {
		t.Errorf("Unexpected starting stats: %+v", stats)
	}
	if engine.Status() != Playing {
		t.Errorf("Expected playing, got %s", engine.Status())
	}
	if engine.GetPlayerPosition() != (Position{1, 1}) {
		t.Errorf("Expected player at (1,1), got %s", engine.GetPlayerPosition())
	}
	rows, cols := engine.Dimensions()
	if rows != 4 || cols != 6 {
		t.Errorf("Expected 4x6, got %dx%d", rows, cols)
	}

	state := engine.GetState()
	if state.Message != "Welcome to engine test!" {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	if state.GoalsTotal != 1 || state.GoalsFilled != 0 {
		t.Errorf("Expected 0/1 goals, got %d/%d", state.GoalsFilled, state.GoalsTotal)
	}
	if len(state.Shop) != 3 {
		t.Errorf("Expected default shop with 3 items, got %v", state.Shop)
	}
	if len(state.LocalView3x3) != 3 {
		t.Errorf("Expected 3x3 local view, got %v", state.LocalView3x3)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.Layout = []string{"WWW", "W?W", "WWW"}

	_, err := NewEngine(config)
	if err == nil {
		t.Fatal("Expected error for bad layout")
	}
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Errorf("Expected a FormatError in the chain, got %v", err)
	}
}

func TestNewEngineFromMaze(t *testing.T) {
	engine, err := NewEngineFromMaze("inline", strings.NewReader("WWWWW\nWP1GW\nWWWWW\n"), 10)
	if err != nil {
		t.Fatalf("NewEngineFromMaze failed: %v", err)
	}
	if engine.Stats().Strength != MinStrength {
		t.Errorf("Expected default strength %d, got %d", MinStrength, engine.Stats().Strength)
	}

	_, err = NewEngineFromMaze("ragged", strings.NewReader("WWW\nWP\n"), 10)
	if !errors.Is(err, ErrFormat) {
		t.Errorf("Expected ErrFormat, got %v", err)
	}
}

func TestEngine_PushCrateOntoGoalWins(t *testing.T) {
	engine, err := NewEngineFromMaze("one-push", strings.NewReader("WWWWW\nWP1GW\nWWWWW"), 5)
	if err != nil {
		t.Fatalf("NewEngineFromMaze failed: %v", err)
	}
	if engine.HasWon() {
		t.Fatal("Should not be won before the push")
	}

	report := engine.Move("right")

	if report.Outcome != OutcomePushed {
		t.Fatalf("Expected push, got %s", report.Outcome)
	}
	if !engine.HasWon() || engine.Status() != Won {
		t.Error("Expected the push to win the game")
	}
	if engine.Stats().MovesRemaining != 4 {
		t.Errorf("Expected 4 moves remaining, got %d", engine.Stats().MovesRemaining)
	}
	if !strings.Contains(engine.GetState().Message, "You won") {
		t.Errorf("Expected victory message, got %q", engine.GetState().Message)
	}
}

func TestEngine_ZeroGoalMazeIsWonImmediately(t *testing.T) {
	engine, err := NewEngineFromMaze("empty", strings.NewReader("WPW"), 3)
	if err != nil {
		t.Fatalf("NewEngineFromMaze failed: %v", err)
	}
	if !engine.HasWon() {
		t.Error("A maze without goals is won from the start")
	}
	if engine.HasLost() {
		t.Error("A won game cannot be lost")
	}
	if report := engine.Move("left"); report.Outcome != OutcomeGameOver {
		t.Errorf("Expected game_over for moves after winning, got %s", report.Outcome)
	}
}

func TestEngine_PurchaseScenario(t *testing.T) {
	engine := mustEngine(t, createTestConfig())

	effect, err := engine.Purchase(ItemMovePotion)
	if err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	if effect.Moves != DefaultRules().MovePotionMoves {
		t.Errorf("Unexpected effect %+v", effect)
	}
	stats := engine.Stats()
	if stats.Money != 0 || stats.MovesRemaining != 6+DefaultRules().MovePotionMoves {
		t.Fatalf("Unexpected stats after purchase: %+v", stats)
	}

	before := engine.GetState()
	_, err = engine.Purchase(ItemMovePotion)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	after := engine.GetState()
	if after.Stats != before.Stats || !reflect.DeepEqual(after.Entities, before.Entities) {
		t.Error("Failed purchase changed state")
	}
	if len(after.Purchases) != 1 {
		t.Errorf("Expected 1 recorded purchase, got %d", len(after.Purchases))
	}
}

func TestEngine_IllegalMoveDoesNotConsume(t *testing.T) {
	engine := mustEngine(t, createTestConfig())
	before := engine.GetState()

	report := engine.Move("up")

	if report.Outcome != OutcomeBlockedWall {
		t.Fatalf("Expected blocked_wall, got %s", report.Outcome)
	}
	after := engine.GetState()
	if after.Stats != before.Stats || after.PlayerPos != before.PlayerPos {
		t.Error("Wall bump changed stats or position")
	}
	if !reflect.DeepEqual(after.Grid, before.Grid) {
		t.Error("Wall bump changed the grid")
	}
	if len(after.MoveHistory) != 1 || after.MoveHistory[0].Success {
		t.Errorf("Expected one unsuccessful history entry, got %+v", after.MoveHistory)
	}
}

func TestEngine_InvalidDirection(t *testing.T) {
	engine := mustEngine(t, createTestConfig())

	report := engine.Move("sideways")

	if report.Outcome != OutcomeInvalidDirection {
		t.Errorf("Expected invalid_direction, got %s", report.Outcome)
	}
	if engine.Stats().MovesRemaining != 6 {
		t.Error("Invalid direction must not consume a move")
	}
	if engine.CanMove("sideways") {
		t.Error("CanMove should reject unknown directions")
	}
}

func TestEngine_LoseAndReset(t *testing.T) {
	config := createTestConfig()
	config.StartingMoves = 1
	engine := mustEngine(t, config)
	initial := engine.GetState()

	engine.Move("down")

	if !engine.HasLost() || engine.Status() != Lost {
		t.Fatalf("Expected lost after the last move, got %s", engine.Status())
	}
	if report := engine.Move("up"); report.Outcome != OutcomeGameOver {
		t.Errorf("Expected game_over, got %s", report.Outcome)
	}
	if _, err := engine.Purchase(ItemMovePotion); !errors.Is(err, ErrGameOver) {
		t.Errorf("Expected ErrGameOver for purchases after losing, got %v", err)
	}
	if engine.CanMove("up") || len(engine.GetPossibleMoves()) != 0 {
		t.Error("No moves are possible once the game is over")
	}

	state := engine.Reset()

	if state.Status != Playing {
		t.Errorf("Expected playing after reset, got %s", state.Status)
	}
	if state.Stats != initial.Stats || state.PlayerPos != initial.PlayerPos {
		t.Errorf("Reset did not restore stats/position: %+v at %s", state.Stats, state.PlayerPos)
	}
	if len(state.MoveHistory) != 2 {
		t.Errorf("Cumulative history should survive reset, got %d entries", len(state.MoveHistory))
	}
	if state.CurrentMovesCount != 0 {
		t.Errorf("Current moves should be cleared on reset, got %d", state.CurrentMovesCount)
	}
}

func TestEngine_ResetRestoresInitialBoard(t *testing.T) {
	engine := mustEngine(t, DefaultGameConfig())
	initialBoard := engine.Board()
	initial := engine.GetState()

	for _, dir := range []string{"down", "right", "right", "up", "right", "left"} {
		engine.Move(dir)
	}
	engine.Reset()

	if !reflect.DeepEqual(engine.Board(), initialBoard) {
		t.Error("Board after reset differs from the initial board")
	}
	state := engine.GetState()
	if state.Stats != initial.Stats {
		t.Errorf("Expected stats %+v, got %+v", initial.Stats, state.Stats)
	}
	if !reflect.DeepEqual(state.Grid, initial.Grid) || !reflect.DeepEqual(state.Entities, initial.Entities) {
		t.Error("Grid or entities differ after reset")
	}
	if len(state.Purchases) != 0 {
		t.Error("Purchases should be cleared on reset")
	}
}

func TestEngine_DefaultLevelIsWinnable(t *testing.T) {
	engine := NewEngineWithDefaults()
	moves := []string{"down", "right", "right", "up", "right", "left", "left", "left", "up", "left", "up", "right"}

	reports := engine.BulkMove(moves)

	if len(reports) != len(moves) {
		t.Fatalf("Expected %d reports, got %d", len(moves), len(reports))
	}
	for i, r := range reports {
		if !r.Success() {
			t.Fatalf("Move %d (%s) failed with %s", i, moves[i], r.Outcome)
		}
	}
	if !engine.HasWon() {
		t.Fatalf("Expected win, state:\n%s", strings.Join(engine.GetState().Grid, "\n"))
	}
	if engine.Stats().MovesRemaining != 20-len(moves) {
		t.Errorf("Expected %d moves remaining, got %d", 20-len(moves), engine.Stats().MovesRemaining)
	}
	if engine.Stats().Strength != 1+DefaultRules().StrengthPotionStrength {
		t.Errorf("Expected strength potion to be applied, got %d", engine.Stats().Strength)
	}
}

func TestEngine_BulkMoveStopsAtGameOver(t *testing.T) {
	config := createTestConfig()
	config.StartingMoves = 1
	engine := mustEngine(t, config)

	reports := engine.BulkMove([]string{"down", "right", "right"})

	if len(reports) != 1 {
		t.Errorf("Expected bulk move to stop after 1 move, got %d reports", len(reports))
	}
}

func TestEngine_GetPossibleMoves(t *testing.T) {
	engine := mustEngine(t, createTestConfig())
	got := engine.GetPossibleMoves()
	// Up and left are walls; right pushes the crate; down is floor
	want := []string{"down", "right"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if engine.Stats().MovesRemaining != 6 {
		t.Error("Probing moves must not consume the budget")
	}
}

func TestEngine_SetState(t *testing.T) {
	engine := mustEngine(t, createTestConfig())
	engine.Move("down")
	engine.Move("right") // coin
	saved := engine.GetState()

	restored := mustEngine(t, createTestConfig())
	if err := restored.SetState(saved); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}

	got := restored.GetState()
	if got.Stats != saved.Stats || got.PlayerPos != saved.PlayerPos {
		t.Errorf("Restored stats/position mismatch: %+v at %s", got.Stats, got.PlayerPos)
	}
	if !reflect.DeepEqual(got.Grid, saved.Grid) {
		t.Errorf("Restored grid mismatch:\n%v\n%v", got.Grid, saved.Grid)
	}
	if got.TotalMoves != 2 {
		t.Errorf("Expected 2 total moves, got %d", got.TotalMoves)
	}

	// Reset still goes back to the maze, not the restored snapshot
	reset := restored.Reset()
	if reset.Stats.Money != 5 {
		t.Errorf("Expected starting money after reset, got %d", reset.Stats.Money)
	}
}

func TestEngine_SetStateRejectsBadSnapshots(t *testing.T) {
	engine := mustEngine(t, createTestConfig())

	tests := []struct {
		name   string
		mutate func(s *GameState)
	}{
		{"dimensions", func(s *GameState) { s.Rows = 9 }},
		{"player in wall", func(s *GameState) { s.PlayerPos = Position{0, 0} }},
		{"entity in wall", func(s *GameState) {
			s.Entities = append(s.Entities, PlacedEntity{Pos: Position{0, 1}, Kind: Coin})
		}},
		{"player on crate", func(s *GameState) { s.PlayerPos = Position{1, 2} }},
		{"player on pickup", func(s *GameState) { s.PlayerPos = Position{2, 2} }},
		{"player on added potion", func(s *GameState) {
			s.Entities = append(s.Entities, PlacedEntity{Pos: s.PlayerPos, Kind: MovePotion})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := engine.GetState()
			tt.mutate(state)
			if err := engine.SetState(state); err == nil {
				t.Error("Expected error")
			}
		})
	}
	if err := engine.SetState(nil); err == nil {
		t.Error("Expected error for nil state")
	}
}

func TestEngine_MoveHistoryNumbersAcrossReset(t *testing.T) {
	engine := mustEngine(t, createTestConfig())
	engine.Move("down")
	engine.Reset()
	engine.Move("down")

	last := engine.GetLastMove()
	if last == nil || last.MoveNumber != 2 {
		t.Fatalf("Expected move number 2, got %+v", last)
	}
	if len(engine.GetState().CurrentMoves) != 1 {
		t.Error("Expected 1 move in the current segment")
	}
}
