package solver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

var (
	ErrNoSolution  = errors.New("no solution within the move budget")
	ErrSearchLimit = errors.New("search limit reached")
)

// DefaultLimit bounds the number of distinct states explored when Solve is given no limit
const DefaultLimit = 500000

// Step is one action of a plan: a move, or a purchase when Item is set
type Step struct {
	Direction engine.Direction `json:"direction,omitempty"`
	Item      engine.Item      `json:"item,omitempty"`
}

func (s Step) String() string {
	if s.Item != "" {
		return "buy:" + string(s.Item)
	}
	return string(s.Direction)
}

// Solution is a shortest winning plan
type Solution struct {
	Steps    []Step `json:"steps"`
	Explored int    `json:"explored"`
}

// Moves returns the directions of the plan, skipping purchases
func (s *Solution) Moves() []string {
	moves := make([]string, 0, len(s.Steps))
	for _, step := range s.Steps {
		if step.Item == "" {
			moves = append(moves, string(step.Direction))
		}
	}
	return moves
}

// Purchases returns how many shop purchases the plan makes
func (s *Solution) Purchases() int {
	n := 0
	for _, step := range s.Steps {
		if step.Item != "" {
			n++
		}
	}
	return n
}

func (s *Solution) String() string {
	parts := make([]string, len(s.Steps))
	for i, step := range s.Steps {
		parts[i] = step.String()
	}
	return strings.Join(parts, " ")
}

type node struct {
	board  *engine.Board
	stats  engine.PlayerStats
	parent int
	step   Step
}

// Solve runs a breadth-first search for the shortest plan that fills every
// goal before the moves run out. Moves and purchases both count as one step.
// limit caps the number of distinct states explored; zero means DefaultLimit.
func Solve(cfg *engine.GameConfig, limit int) (*Solution, error) {
	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid level: %w", err)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	rules := eng.Rules()
	catalog := eng.Catalog()
	items := catalog.Items()

	start := node{board: eng.Board().Clone(), stats: eng.Stats(), parent: -1}
	if start.board.AllGoalsFilled() {
		return &Solution{Steps: []Step{}, Explored: 1}, nil
	}

	nodes := []node{start}
	seen := map[string]bool{stateKey(start.board, start.stats): true}

	for head := 0; head < len(nodes); head++ {
		current := nodes[head]
		if current.stats.MovesRemaining <= 0 {
			continue
		}

		var next []node
		for _, dir := range engine.Directions {
			board := current.board.Clone()
			stats := current.stats
			if report := board.Resolve(dir, &stats, rules); !report.Success() {
				continue
			}
			next = append(next, node{board: board, stats: stats, parent: head, step: Step{Direction: dir}})
		}
		for _, entry := range items {
			if current.stats.Money < entry.Price {
				continue
			}
			stats := current.stats
			if _, err := engine.Purchase(entry.Item, &stats, catalog, rules); err != nil {
				continue
			}
			next = append(next, node{board: current.board, stats: stats, parent: head, step: Step{Item: entry.Item}})
		}

		for _, n := range next {
			if n.board.AllGoalsFilled() {
				nodes = append(nodes, n)
				return &Solution{Steps: path(nodes, len(nodes)-1), Explored: len(seen)}, nil
			}
			key := stateKey(n.board, n.stats)
			if seen[key] {
				continue
			}
			if len(seen) >= limit {
				return nil, fmt.Errorf("%w after %d states", ErrSearchLimit, len(seen))
			}
			seen[key] = true
			nodes = append(nodes, n)
		}
	}

	return nil, ErrNoSolution
}

func path(nodes []node, i int) []Step {
	var steps []Step
	for ; nodes[i].parent >= 0; i = nodes[i].parent {
		steps = append(steps, nodes[i].step)
	}
	for l, r := 0, len(steps)-1; l < r; l, r = l+1, r-1 {
		steps[l], steps[r] = steps[r], steps[l]
	}
	return steps
}

// stateKey identifies a search state: player, entities in row-major order and stats
func stateKey(board *engine.Board, stats engine.PlayerStats) string {
	var sb strings.Builder
	player := board.PlayerPosition()
	sb.WriteString(strconv.Itoa(player.Row))
	sb.WriteByte(',')
	sb.WriteString(strconv.Itoa(player.Col))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(stats.MovesRemaining))
	sb.WriteByte(',')
	sb.WriteString(strconv.Itoa(stats.Strength))
	sb.WriteByte(',')
	sb.WriteString(strconv.Itoa(stats.Money))
	for _, e := range board.PlacedEntities() {
		sb.WriteByte('|')
		sb.WriteString(strconv.Itoa(e.Pos.Row))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(e.Pos.Col))
		sb.WriteByte(',')
		sb.WriteString(string(e.Kind))
		sb.WriteString(strconv.Itoa(e.Strength))
	}
	return sb.String()
}
