// Command levels checks level files before they are shipped. It validates
// files of every supported format, prints difficulty heuristics, and runs the
// solver to prove that a level can be won within its move budget.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/sokoban/game/config"
	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/solver"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "levels",
		Usage:  "validate, analyze and solve Sokoban levels",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing level files",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "parse and validate level files",
				ArgsUsage: "[files...]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files := cmd.Args().Slice()
					if len(files) == 0 {
						var err error
						if files, err = levelFiles(cmd.String("config-dir")); err != nil {
							return err
						}
					}
					return validateFiles(out, files)
				},
			},
			{
				Name:      "analyze",
				Usage:     "print difficulty heuristics for levels",
				ArgsUsage: "[names...]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return forEachLevel(cmd, out, func(id string, cfg *engine.GameConfig) error {
						report, err := analyzeLevel(cfg)
						if err != nil {
							fmt.Fprintf(out, "%s: %v\n", id, err)
							return err
						}
						fmt.Fprintf(out, "\n=== Analyzing %s ===\n", id)
						report.print(out)
						return nil
					})
				},
			},
			{
				Name:      "solve",
				Usage:     "search for the shortest winning plan",
				ArgsUsage: "[names...]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: solver.DefaultLimit,
						Usage: "maximum number of states to explore per level",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					limit := int(cmd.Int("limit"))
					return forEachLevel(cmd, out, func(id string, cfg *engine.GameConfig) error {
						sol, err := solver.Solve(cfg, limit)
						if err != nil {
							fmt.Fprintf(out, "%s: unsolved: %v\n", id, err)
							return err
						}
						fmt.Fprintf(out, "%s: solved in %d steps (%d moves, %d purchases, %d states explored)\n",
							id, len(sol.Steps), len(sol.Moves()), sol.Purchases(), sol.Explored)
						fmt.Fprintf(out, "  %s\n", sol)
						return nil
					})
				},
			},
		},
	}
}

// forEachLevel loads the named levels, or every level in the config directory,
// and runs fn on each. It keeps going after a failure and reports the count.
func forEachLevel(cmd *cli.Command, out io.Writer, fn func(id string, cfg *engine.GameConfig) error) error {
	manager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		infos, err := manager.ListConfigs()
		if err != nil {
			return err
		}
		for _, info := range infos {
			ids = append(ids, info.ConfigID)
		}
	}

	failed := 0
	for _, id := range ids {
		cfg, err := manager.LoadConfig(id)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", id, err)
			failed++
			continue
		}
		if err := fn(id, cfg); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d levels failed", failed, len(ids))
	}
	return nil
}

// levelFiles lists the files in dir with a level extension
func levelFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".json", ".yaml", ".yml", ".txt":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func validateFiles(out io.Writer, files []string) error {
	failed := 0
	for _, file := range files {
		cfg, err := config.LoadFile(file)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", filepath.Base(file), err)
			continue
		}
		fmt.Fprintf(out, "OK   %s: %s\n", filepath.Base(file), cfg.Name)
	}
	fmt.Fprintf(out, "%d files checked, %d invalid\n", len(files), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d level files are invalid", failed, len(files))
	}
	return nil
}
