package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidConfig() *GameConfig {
	return &GameConfig{
		Name:        "Test Config",
		Description: "A valid test configuration",
		Layout: []string{
			"WWWWW",
			"WP1GW",
			"W $ W",
			"WWWWW",
		},
		StartingMoves:    10,
		StartingStrength: 1,
		Shop: map[Item]int{
			ItemMovePotion: 3,
		},
	}
}

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	if err := ValidateGameConfig(createValidConfig()); err != nil {
		t.Errorf("Expected valid config to pass validation, got: %v", err)
	}
}

func TestValidateGameConfig_DefaultConfig(t *testing.T) {
	if err := ValidateGameConfig(DefaultGameConfig()); err != nil {
		t.Errorf("Default config must be valid, got: %v", err)
	}
}

func TestValidateGameConfig_Errors(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(c *GameConfig)
		expectedError string
	}{
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name is required"},
		{"bad symbol", func(c *GameConfig) { c.Layout[2] = "W#$ W" }, "unrecognized symbol '#'"},
		{"ragged layout", func(c *GameConfig) { c.Layout[0] = "WWW" }, "expected 3 columns, got 5"},
		{"no moves", func(c *GameConfig) { c.StartingMoves = 0 }, "starting_moves must be between"},
		{"too many moves", func(c *GameConfig) { c.StartingMoves = MaxMoves + 1 }, "starting_moves must be between"},
		{"negative strength", func(c *GameConfig) { c.StartingStrength = -1 }, "starting_strength must be at least"},
		{"negative money", func(c *GameConfig) { c.StartingMoney = -5 }, "starting_money cannot be negative"},
		{"unknown shop item", func(c *GameConfig) { c.Shop["crown"] = 5 }, "shop item 'crown' is not sold"},
		{"free item", func(c *GameConfig) { c.Shop[ItemMovePotion] = 0 }, "must be positive"},
		{"negative effect", func(c *GameConfig) { c.Effects = &Rules{CoinValue: -1} }, "effects cannot be negative"},
		{"more goals than crates", func(c *GameConfig) { c.Layout[2] = "W $GW" }, "2 goals but only 1 crates"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := createValidConfig()
			test.mutate(config)
			err := ValidateGameConfig(config)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), test.expectedError) {
				t.Errorf("Expected error containing '%s', got: %v", test.expectedError, err)
			}
		})
	}

	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestGameConfig_Defaults(t *testing.T) {
	config := createValidConfig()
	config.StartingStrength = 0
	config.Shop = nil

	if s := config.startingStats(); s.Strength != MinStrength || s.MovesRemaining != 10 || s.Money != 0 {
		t.Errorf("Unexpected starting stats: %+v", s)
	}
	if got := config.catalog(); len(got) != len(DefaultCatalog()) {
		t.Errorf("Expected default catalog, got %v", got)
	}
	if got := config.rules(); got != DefaultRules() {
		t.Errorf("Expected default rules, got %+v", got)
	}

	msgs := (Messages{Victory: "custom"}).withDefaults()
	if msgs.Victory != "custom" || msgs.CantMove != DefaultMessages().CantMove {
		t.Errorf("withDefaults should only fill empty texts: %+v", msgs)
	}
}

func TestLoadGameConfig(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_config.json")

	configContent := `{
		"name": "Test Config",
		"description": "Test description",
		"layout": [
			"WWWWW",
			"WP1GW",
			"WWWWW"
		],
		"starting_moves": 4,
		"starting_money": 2,
		"shop": {"strength_potion": 2},
		"effects": {"move_potion_moves": 1, "strength_potion_strength": 3, "fancy_potion_moves": 1, "fancy_potion_strength": 1, "coin_value": 1},
		"messages": {
			"welcome": "Welcome!"
		}
	}`

	if err := os.WriteFile(tempFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := LoadGameConfig(tempFile)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Name != "Test Config" {
		t.Errorf("Expected config name 'Test Config', got '%s'", config.Name)
	}
	if config.Shop[ItemStrengthPotion] != 2 {
		t.Errorf("Expected strength potion price 2, got %v", config.Shop)
	}
	if config.Effects == nil || config.Effects.StrengthPotionStrength != 3 {
		t.Errorf("Expected custom effects, got %+v", config.Effects)
	}

	_, err = LoadGameConfig("nonexistent.json")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadGameConfig_ConfigDir(t *testing.T) {
	dir := t.TempDir()
	data := `{"name":"relocated","layout":["WPW"],"starting_moves":1}`
	if err := os.WriteFile(filepath.Join(dir, "relocated.json"), []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("CONFIG_DIR", dir)

	config, err := LoadGameConfig("configs/relocated.json")
	if err != nil {
		t.Fatalf("Expected CONFIG_DIR to redirect the load, got: %v", err)
	}
	if config.Name != "relocated" {
		t.Errorf("Expected relocated config, got %q", config.Name)
	}
}
