package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

const configDir = "../../configs"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(context.Background(), append([]string{"levels"}, args...))
	return out.String(), err
}

func TestAnalyzeLevel(t *testing.T) {
	cfg := &engine.GameConfig{
		Name:          "Classic",
		Layout:        []string{"WWWWWWWWW", "W  $    W", "W P  3 GW", "W       W", "W 1  G  W", "W       W", "WWWWWWWWW"},
		StartingMoves: 20,
	}

	r, err := analyzeLevel(cfg)
	if err != nil {
		t.Fatalf("analyzeLevel failed: %v", err)
	}

	if r.Rows != 7 || r.Cols != 9 {
		t.Errorf("Expected 7x9 grid, got %dx%d", r.Rows, r.Cols)
	}
	if r.Goals != 2 || r.Crates != 2 {
		t.Errorf("Expected 2 goals and 2 crates, got %d and %d", r.Goals, r.Crates)
	}
	if r.StrongestCrate != 3 {
		t.Errorf("Expected strongest crate 3, got %d", r.StrongestCrate)
	}
	if r.FloorStrength != 1 || r.MaxStrength != 3 {
		t.Errorf("Expected floor strength 1 and max strength 3, got %d and %d", r.FloorStrength, r.MaxStrength)
	}
	if r.MaxMoney != 5 || r.CheapestPrice != 5 {
		t.Errorf("Expected money 5 and cheapest price 5, got %d and %d", r.MaxMoney, r.CheapestPrice)
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], "shop purchase") {
		t.Errorf("Expected a shop purchase warning, got %v", r.Warnings)
	}
}

func TestAnalyzeLevel_Warnings(t *testing.T) {
	tests := []struct {
		name   string
		layout []string
		want   string
	}{
		{"crate too heavy", []string{"WWWWWW", "WP9 GW", "WWWWWW"}, "at most 1 is reachable"},
		{"no goals", []string{"WWWW", "WP W", "WWWW"}, "no goals"},
		{"coins too few", []string{"WWWWWWW", "WP$1 GW", "WWWWWWW"}, "cheapest item costs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &engine.GameConfig{Name: tt.name, Layout: tt.layout, StartingMoves: 10}
			if tt.name == "coins too few" {
				cfg.Effects = &engine.Rules{CoinValue: 1, StrengthPotionStrength: 2, MovePotionMoves: 5}
			}
			r, err := analyzeLevel(cfg)
			if err != nil {
				t.Fatalf("analyzeLevel failed: %v", err)
			}
			found := false
			for _, w := range r.Warnings {
				if strings.Contains(w, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected warning containing %q, got %v", tt.want, r.Warnings)
			}
		})
	}
}

func TestBestStrength(t *testing.T) {
	catalog := engine.DefaultCatalog()
	rules := engine.DefaultRules()

	tests := []struct {
		money int
		want  int
	}{
		{0, 0},
		{4, 0},
		{5, 2},
		{10, 4},
		{14, 4},
		{15, 6},
	}
	for _, tt := range tests {
		if got := bestStrength(tt.money, catalog, rules); got != tt.want {
			t.Errorf("bestStrength(%d) = %d, want %d", tt.money, got, tt.want)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "--config-dir", configDir, "validate")
	if err != nil {
		t.Fatalf("Expected shipped levels to validate: %v\n%s", err, out)
	}
	for _, file := range []string{"classic.json", "warehouse.yaml", "tutorial.txt"} {
		if !strings.Contains(out, "OK   "+file) {
			t.Errorf("Expected %s to pass, got:\n%s", file, out)
		}
	}

	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	bad := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(good, []byte("WWWW\nWPCW\nWG W\nWWWW\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err = run(t, "validate", good, bad)
	if err == nil {
		t.Fatal("Expected an error for an invalid file")
	}
	if !strings.Contains(out, "OK   good.txt") || !strings.Contains(out, "FAIL broken.json") {
		t.Errorf("Unexpected validate output:\n%s", out)
	}
	if !strings.Contains(out, "2 files checked, 1 invalid") {
		t.Errorf("Expected a summary line, got:\n%s", out)
	}
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := run(t, "--config-dir", configDir, "analyze", "classic")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !strings.Contains(out, "=== Analyzing classic ===") || !strings.Contains(out, "Strongest Crate: 3") {
		t.Errorf("Unexpected analyze output:\n%s", out)
	}

	out, err = run(t, "--config-dir", configDir, "analyze")
	if err != nil {
		t.Fatalf("analyze of every level failed: %v", err)
	}
	if strings.Count(out, "=== Analyzing") < 3 {
		t.Errorf("Expected every shipped level to be analyzed, got:\n%s", out)
	}

	if _, err := run(t, "--config-dir", configDir, "analyze", "missing"); err == nil {
		t.Error("Expected an error for an unknown level")
	}
}

func TestSolveCommand(t *testing.T) {
	out, err := run(t, "--config-dir", configDir, "solve", "classic")
	if err != nil {
		t.Fatalf("solve failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "classic: solved in") || !strings.Contains(out, "1 purchases") {
		t.Errorf("Unexpected solve output:\n%s", out)
	}
	if !strings.Contains(out, "buy:strength_potion") {
		t.Errorf("Expected the plan to buy a strength potion, got:\n%s", out)
	}

	out, err = run(t, "--config-dir", configDir, "solve", "--limit", "1", "classic")
	if err == nil {
		t.Fatal("Expected a search limit failure")
	}
	if !strings.Contains(out, "unsolved") {
		t.Errorf("Expected an unsolved line, got:\n%s", out)
	}
}

func TestConfigDirFromEnv(t *testing.T) {
	t.Setenv("CONFIG_DIR", configDir)
	out, err := run(t, "analyze", "warehouse")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !strings.Contains(out, "Name: Warehouse") {
		t.Errorf("Expected the warehouse level, got:\n%s", out)
	}
}
