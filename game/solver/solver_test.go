package solver

import (
	"errors"
	"testing"

	"github.com/wricardo/mcp-training/sokoban/game/config"
	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

func level(moves int, layout ...string) *engine.GameConfig {
	return &engine.GameConfig{Name: "test", Layout: layout, StartingMoves: moves}
}

// replay plays a solution on a fresh engine and reports whether it wins
func replay(t *testing.T, cfg *engine.GameConfig, sol *Solution) bool {
	t.Helper()
	eng, err := engine.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	for i, step := range sol.Steps {
		if step.Item != "" {
			if _, err := eng.Purchase(step.Item); err != nil {
				t.Fatalf("step %d: purchase %s failed: %v", i+1, step.Item, err)
			}
			continue
		}
		if report := eng.Move(string(step.Direction)); !report.Success() {
			t.Fatalf("step %d: move %s was %s", i+1, step.Direction, report.Outcome)
		}
	}
	return eng.HasWon()
}

func TestSolve(t *testing.T) {
	tests := []struct {
		name          string
		cfg           *engine.GameConfig
		wantSteps     int
		wantPurchases int
	}{
		{
			name:      "single push",
			cfg:       level(5, "WWWWW", "WP1GW", "WWWWW"),
			wantSteps: 1,
		},
		{
			name:      "already solved",
			cfg:       level(5, "WWWW", "WPXW", "WWWW"),
			wantSteps: 0,
		},
		{
			name:      "walk then push",
			cfg:       level(10, "WWWWWWW", "WP  1GW", "WWWWWWW"),
			wantSteps: 3,
		},
		{
			name:      "push around a corner",
			cfg:       level(20, "WWWWWW", "W   GW", "W 1  W", "WP   W", "WWWWWW"),
			wantSteps: 6,
		},
		{
			name:      "crate pushed over a coin",
			cfg:       level(10, "WWWWWW", "WP1$GW", "WWWWWW"),
			wantSteps: 2,
		},
		{
			name:          "heavy crate needs the shop",
			cfg:           level(12, "WWWWWWW", "WP 2 GW", "W$    W", "WWWWWWW"),
			wantSteps:     6,
			wantPurchases: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol, err := Solve(tt.cfg, 0)
			if err != nil {
				t.Fatalf("Solve failed: %v", err)
			}
			if len(sol.Steps) != tt.wantSteps {
				t.Errorf("Expected %d steps, got %d: %s", tt.wantSteps, len(sol.Steps), sol)
			}
			if sol.Purchases() != tt.wantPurchases {
				t.Errorf("Expected %d purchases, got %d: %s", tt.wantPurchases, sol.Purchases(), sol)
			}
			if len(sol.Moves())+sol.Purchases() != len(sol.Steps) {
				t.Errorf("Moves and purchases do not add up: %s", sol)
			}
			if !replay(t, tt.cfg, sol) {
				t.Errorf("Solution %s does not win", sol)
			}
		})
	}
}

func TestSolve_NoSolution(t *testing.T) {
	tests := []struct {
		name string
		cfg  *engine.GameConfig
	}{
		{"crate stuck in a corner", level(10, "WWWWW", "W  1W", "WP  W", "WG  W", "WWWWW")},
		{"not enough moves", level(2, "WWWWWWW", "WP  1GW", "WWWWWWW")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(tt.cfg, 0)
			if !errors.Is(err, ErrNoSolution) {
				t.Errorf("Expected ErrNoSolution, got %v", err)
			}
		})
	}
}

func TestSolve_SearchLimit(t *testing.T) {
	_, err := Solve(level(10, "WWWWWWW", "WP  1GW", "WWWWWWW"), 1)
	if !errors.Is(err, ErrSearchLimit) {
		t.Errorf("Expected ErrSearchLimit, got %v", err)
	}
}

func TestSolve_InvalidLevel(t *testing.T) {
	if _, err := Solve(level(10, "WWW", "W?W", "WWW"), 0); err == nil {
		t.Error("Expected an error for an invalid level")
	}
}

func TestStepString(t *testing.T) {
	sol := &Solution{Steps: []Step{{Direction: engine.Up}, {Item: engine.ItemStrengthPotion}, {Direction: engine.Left}}}
	if got := sol.String(); got != "up buy:strength_potion left" {
		t.Errorf("Unexpected plan string %q", got)
	}
}

func TestShippedLevelsAreWinnable(t *testing.T) {
	manager, err := config.NewManager("../../configs")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	levels, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs: %v", err)
	}
	if len(levels) == 0 {
		t.Fatal("Expected shipped levels")
	}

	for _, info := range levels {
		t.Run(info.ConfigID, func(t *testing.T) {
			cfg, err := manager.LoadConfig(info.ConfigID)
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			sol, err := Solve(cfg, 0)
			if err != nil {
				t.Fatalf("Solve: %v", err)
			}
			if !replay(t, cfg, sol) {
				t.Errorf("Solution %s does not win %s", sol, info.ConfigID)
			}
		})
	}
}
