package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateGameConfig validates a level configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	maze, err := ParseMaze(config.Layout)
	if err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if config.StartingMoves < MinMoves || config.StartingMoves > MaxMoves {
		return fmt.Errorf("config validation: starting_moves must be between %d and %d, got %d",
			MinMoves, MaxMoves, config.StartingMoves)
	}
	if config.StartingStrength != 0 && config.StartingStrength < MinStrength {
		return fmt.Errorf("config validation: starting_strength must be at least %d, got %d",
			MinStrength, config.StartingStrength)
	}
	if config.StartingMoney < 0 {
		return fmt.Errorf("config validation: starting_money cannot be negative, got %d", config.StartingMoney)
	}

	for item, price := range config.Shop {
		if item.Kind() == "" {
			return fmt.Errorf("config validation: shop item '%s' is not sold", item)
		}
		if price <= 0 {
			return fmt.Errorf("config validation: shop price for '%s' must be positive, got %d", item, price)
		}
	}

	if r := config.Effects; r != nil {
		if r.MovePotionMoves < 0 || r.StrengthPotionStrength < 0 || r.FancyPotionMoves < 0 ||
			r.FancyPotionStrength < 0 || r.CoinValue < 0 {
			return fmt.Errorf("config validation: effects cannot be negative")
		}
	}

	crates := 0
	for _, e := range maze.entities {
		if e.IsCrate() {
			crates++
		}
	}
	goals := 0
	for _, row := range maze.tiles {
		for _, t := range row {
			if t == Goal {
				goals++
			}
		}
	}
	if crates < goals {
		return fmt.Errorf("config validation: layout has %d goals but only %d crates", goals, crates)
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultGameConfig returns a small playable level used when no configs are available.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:        "default",
		Description: "Two crates, two goals, and a coin for the shop",
		Layout: []string{
			"WWWWWWWW",
			"W  G   W",
			"W 1  $ W",
			"W P  2GW",
			"W   S  W",
			"WWWWWWWW",
		},
		StartingMoves:    20,
		StartingStrength: 1,
		Messages:         DefaultMessages(),
	}
}

// DefaultMessages returns the stock player-facing texts.
func DefaultMessages() Messages {
	return Messages{
		Welcome:           "Push every crate onto a goal before your moves run out!",
		Victory:           "You won! All %d goals filled!",
		OutOfMoves:        "You lost! Out of moves.",
		CantMove:          "Can't move there!",
		TooWeak:           "That crate is too heavy!",
		GoalFilled:        "Crate on goal! %d/%d filled",
		Pickup:            "Picked up %s!",
		Purchase:          "Bought %s for $%d",
		InsufficientFunds: "Not enough money!",
	}
}

// withDefaults fills any empty message from the stock texts.
func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&m.Welcome, d.Welcome)
	fill(&m.Victory, d.Victory)
	fill(&m.OutOfMoves, d.OutOfMoves)
	fill(&m.CantMove, d.CantMove)
	fill(&m.TooWeak, d.TooWeak)
	fill(&m.GoalFilled, d.GoalFilled)
	fill(&m.Pickup, d.Pickup)
	fill(&m.Purchase, d.Purchase)
	fill(&m.InsufficientFunds, d.InsufficientFunds)
	return m
}

// rules returns the configured effects or the defaults.
func (c *GameConfig) rules() Rules {
	if c.Effects != nil {
		return *c.Effects
	}
	return DefaultRules()
}

// catalog returns the configured shop or the defaults.
func (c *GameConfig) catalog() Catalog {
	if len(c.Shop) > 0 {
		return Catalog(c.Shop).Copy()
	}
	return DefaultCatalog()
}

// startingStats returns the stats a fresh or reset game begins with.
func (c *GameConfig) startingStats() PlayerStats {
	strength := c.StartingStrength
	if strength == 0 {
		strength = MinStrength
	}
	return PlayerStats{
		MovesRemaining: c.StartingMoves,
		Strength:       strength,
		Money:          c.StartingMoney,
	}
}
