// Package engine provides the core game logic for the Sokoban economy game.
//
// The engine package implements the game mechanics including:
//   - Maze parsing from ASCII layouts
//   - Grid movement with crate pushing and strength checks
//   - Pickup collection (coins and potions) and the shop
//   - Game state management and persistence snapshots
//   - Configuration validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. A Maze is the immutable parse of a layout; a
// Board is the mutable entity store built from it. GameState is a read-only
// snapshot, while GameConfig defines the layout and rules loaded from disk.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	report := gameEngine.Move("up")
//	if report.Success() {
//		state := gameEngine.GetState()
//		fmt.Println(state.Grid)
//	}
//
// Game Rules:
//
// The player pushes crates onto goals. Every applied move costs one move from
// the budget. A crate can only be pushed when the player's strength is at
// least the crate's strength and the cell beyond it is free. Coins add money
// that buys potions in the shop. The game is won when every goal holds a
// crate and lost when moves run out first.
package engine
