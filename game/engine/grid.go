package engine

import (
	"sort"
	"strings"
)

// Board is the mutable Grid & Entity Store of a session. Tiles are shared
// with the Maze and never written; entities and the player move.
type Board struct {
	rows     int
	cols     int
	tiles    [][]Tile
	entities map[Position]Entity
	player   Position
}

// Dimensions returns the number of rows and columns.
func (b *Board) Dimensions() (int, int) {
	return b.rows, b.cols
}

// InBounds reports whether pos lies inside the grid.
func (b *Board) InBounds(pos Position) bool {
	return pos.Row >= 0 && pos.Row < b.rows && pos.Col >= 0 && pos.Col < b.cols
}

// TileAt returns the static tile at pos. Cells outside the grid read as Wall.
func (b *Board) TileAt(pos Position) Tile {
	if !b.InBounds(pos) {
		return Wall
	}
	return b.tiles[pos.Row][pos.Col]
}

// EntityAt returns the entity at pos, if any.
func (b *Board) EntityAt(pos Position) (Entity, bool) {
	e, ok := b.entities[pos]
	return e, ok
}

// MoveEntity relocates the entity at from to to. It does not validate; the
// caller must guarantee to holds no entity.
func (b *Board) MoveEntity(from, to Position) {
	e, ok := b.entities[from]
	if !ok {
		return
	}
	delete(b.entities, from)
	b.entities[to] = e
}

// RemoveEntity deletes the entity at pos.
func (b *Board) RemoveEntity(pos Position) {
	delete(b.entities, pos)
}

// PlayerPosition returns the player's cell.
func (b *Board) PlayerPosition() Position {
	return b.player
}

// SetPlayer moves the player to pos.
func (b *Board) SetPlayer(pos Position) {
	b.player = pos
}

// IsGoalFilled reports whether pos is a goal with a crate on it.
func (b *Board) IsGoalFilled(pos Position) bool {
	if b.TileAt(pos) != Goal {
		return false
	}
	e, ok := b.entities[pos]
	return ok && e.IsCrate()
}

// AllGoalsFilled is the win predicate. A board without goals is won.
func (b *Board) AllGoalsFilled() bool {
	for r, row := range b.tiles {
		for c, t := range row {
			if t == Goal && !b.IsGoalFilled(Position{Row: r, Col: c}) {
				return false
			}
		}
	}
	return true
}

// GoalCounts returns the number of goals and how many hold a crate.
func (b *Board) GoalCounts() (total, filled int) {
	for r, row := range b.tiles {
		for c, t := range row {
			if t != Goal {
				continue
			}
			total++
			if b.IsGoalFilled(Position{Row: r, Col: c}) {
				filled++
			}
		}
	}
	return total, filled
}

// DisplayTile returns the tile as it should be shown, with FilledGoal derived.
func (b *Board) DisplayTile(pos Position) Tile {
	if b.IsGoalFilled(pos) {
		return FilledGoal
	}
	return b.TileAt(pos)
}

// Entities returns a copy of the entity map.
func (b *Board) Entities() map[Position]Entity {
	out := make(map[Position]Entity, len(b.entities))
	for pos, e := range b.entities {
		out[pos] = e
	}
	return out
}

// PlacedEntities returns the entities in row-major order.
func (b *Board) PlacedEntities() []PlacedEntity {
	out := make([]PlacedEntity, 0, len(b.entities))
	for pos, e := range b.entities {
		out = append(out, PlacedEntity{Pos: pos, Kind: e.Kind, Strength: e.Strength})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pos.Row != out[j].Pos.Row {
			return out[i].Pos.Row < out[j].Pos.Row
		}
		return out[i].Pos.Col < out[j].Pos.Col
	})
	return out
}

// Clone returns a deep copy sharing only the immutable tiles.
func (b *Board) Clone() *Board {
	return &Board{
		rows:     b.rows,
		cols:     b.cols,
		tiles:    b.tiles,
		entities: b.Entities(),
		player:   b.player,
	}
}

// Render draws the board with maze symbols. Crates show their strength
// digit, or X when sitting on a goal.
func (b *Board) Render() []string {
	lines := make([]string, b.rows)
	for r := 0; r < b.rows; r++ {
		var sb strings.Builder
		for c := 0; c < b.cols; c++ {
			sb.WriteRune(b.SymbolAt(Position{Row: r, Col: c}))
		}
		lines[r] = sb.String()
	}
	return lines
}

// SymbolAt returns the display symbol of a single cell.
func (b *Board) SymbolAt(pos Position) rune {
	if pos == b.player {
		return 'P'
	}
	if !b.InBounds(pos) {
		return 'W'
	}
	if e, ok := b.entities[pos]; ok {
		return entitySymbol(e, b.tiles[pos.Row][pos.Col] == Goal)
	}
	switch b.tiles[pos.Row][pos.Col] {
	case Wall:
		return 'W'
	case Goal:
		return 'G'
	default:
		return ' '
	}
}

func entitySymbol(e Entity, onGoal bool) rune {
	switch e.Kind {
	case Crate:
		// X only stands for a default crate so the strength stays visible
		if onGoal && e.Strength == DefaultCrateStrength {
			return 'X'
		}
		if e.Strength >= 1 && e.Strength <= 9 {
			return rune('0' + e.Strength)
		}
		return 'C'
	case Coin:
		return '$'
	case MovePotion:
		return 'M'
	case StrengthPotion:
		return 'S'
	case FancyPotion:
		return 'F'
	default:
		return '?'
	}
}
