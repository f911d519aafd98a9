package main

import (
	"fmt"
	"io"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

// levelReport holds quick heuristics about a level. They are upper bounds:
// reaching every pickup is assumed, so a clean report does not prove a level
// is winnable. Use solve for that.
type levelReport struct {
	Name             string
	Rows, Cols       int
	Goals, Crates    int
	StrongestCrate   int
	StartingMoves    int
	StartingStrength int
	StartingMoney    int
	Pickups          map[engine.EntityKind]int

	// MaxMoney is starting money plus every coin on the floor
	MaxMoney int
	// FloorStrength is starting strength plus every strength granting potion
	FloorStrength int
	// MaxStrength adds the best strength money can buy to FloorStrength
	MaxStrength   int
	CheapestPrice int
	Warnings      []string
}

func analyzeLevel(cfg *engine.GameConfig) (*levelReport, error) {
	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	maze, err := engine.ParseMaze(cfg.Layout)
	if err != nil {
		return nil, err
	}

	rules := eng.Rules()
	stats := eng.Stats()
	r := &levelReport{
		Name:             cfg.Name,
		Goals:            engine.CountTiles(maze.Tiles(), engine.Goal),
		StartingMoves:    stats.MovesRemaining,
		StartingStrength: stats.Strength,
		StartingMoney:    stats.Money,
		Pickups:          make(map[engine.EntityKind]int),
	}
	r.Rows, r.Cols = maze.Dimensions()

	for _, e := range maze.Entities() {
		if e.IsCrate() {
			r.Crates++
			if e.Strength > r.StrongestCrate {
				r.StrongestCrate = e.Strength
			}
			continue
		}
		r.Pickups[e.Kind]++
	}

	r.MaxMoney = stats.Money + r.Pickups[engine.Coin]*rules.CoinValue
	r.FloorStrength = stats.Strength +
		r.Pickups[engine.StrengthPotion]*rules.StrengthPotionStrength +
		r.Pickups[engine.FancyPotion]*rules.FancyPotionStrength
	r.MaxStrength = r.FloorStrength + bestStrength(r.MaxMoney, eng.Catalog(), rules)

	for _, entry := range eng.Catalog().Items() {
		if r.CheapestPrice == 0 || entry.Price < r.CheapestPrice {
			r.CheapestPrice = entry.Price
		}
	}

	if r.StrongestCrate > r.MaxStrength {
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"strongest crate needs strength %d but at most %d is reachable", r.StrongestCrate, r.MaxStrength))
	}
	if r.StrongestCrate > r.FloorStrength && r.MaxStrength >= r.StrongestCrate {
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"strength %d crate can only be pushed after a shop purchase", r.StrongestCrate))
	}
	if r.MaxMoney > 0 && r.CheapestPrice > r.MaxMoney {
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"coins are worth %d in total but the cheapest item costs %d", r.MaxMoney, r.CheapestPrice))
	}
	if r.Goals == 0 {
		r.Warnings = append(r.Warnings, "level has no goals and is won immediately")
	}

	return r, nil
}

// bestStrength returns the most strength money can buy from the shop
func bestStrength(money int, catalog engine.Catalog, rules engine.Rules) int {
	best := make([]int, money+1)
	entries := catalog.Items()
	for m := 1; m <= money; m++ {
		best[m] = best[m-1]
		for _, entry := range entries {
			gain := rules.Effect(entry.Item.Kind()).Strength
			if gain <= 0 || entry.Price > m {
				continue
			}
			if v := best[m-entry.Price] + gain; v > best[m] {
				best[m] = v
			}
		}
	}
	return best[money]
}

func (r *levelReport) print(out io.Writer) {
	fmt.Fprintf(out, "Name: %s\n", r.Name)
	fmt.Fprintf(out, "Grid Size: %d x %d\n", r.Rows, r.Cols)
	fmt.Fprintf(out, "Goals: %d, Crates: %d\n", r.Goals, r.Crates)
	fmt.Fprintf(out, "Starting Stats: moves=%d strength=%d money=%d\n",
		r.StartingMoves, r.StartingStrength, r.StartingMoney)
	fmt.Fprintf(out, "Pickups: coins=%d move=%d strength=%d fancy=%d\n",
		r.Pickups[engine.Coin], r.Pickups[engine.MovePotion],
		r.Pickups[engine.StrengthPotion], r.Pickups[engine.FancyPotion])
	fmt.Fprintf(out, "Strongest Crate: %d (floor strength %d, with shop %d)\n",
		r.StrongestCrate, r.FloorStrength, r.MaxStrength)
	fmt.Fprintf(out, "Money Available: %d (cheapest item %d)\n", r.MaxMoney, r.CheapestPrice)

	if len(r.Warnings) == 0 {
		fmt.Fprintln(out, "No issues found")
		return
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(out, "WARNING: %s\n", w)
	}
}
