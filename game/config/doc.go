// Package config loads Sokoban level definitions from a directory.
//
// A level ID is its file name without the extension. Three formats are read:
//   - .json: a full engine.GameConfig document
//   - .yaml / .yml: the same fields in YAML
//   - .txt: a bare maze, one row per line; the ID becomes the name and the
//     level starts with DefaultMazeMoves moves and stock shop prices
//
// When one ID exists in several formats, .json wins, then .yaml, .yml and .txt.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadConfig("warehouse")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	configs, err := manager.ListConfigs()
//
// Loaded levels are cached; ReloadConfig and RefreshCache re-read them from
// disk. Every level is checked with engine.ValidateGameConfig before it is
// cached, and SaveConfig writes JSON only after the same check.
package config
