package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrFormat is the root of all maze parsing failures.
var ErrFormat = errors.New("maze format error")

// FormatError describes why a maze source was rejected. Row and Col are
// 1-based and zero when the problem is not tied to a single cell.
type FormatError struct {
	Row    int
	Col    int
	Char   rune
	Reason string
}

func (e *FormatError) Error() string {
	if e.Row > 0 && e.Col > 0 {
		return fmt.Sprintf("maze format error: %s '%c' at row %d, col %d", e.Reason, e.Char, e.Row, e.Col)
	}
	if e.Row > 0 {
		return fmt.Sprintf("maze format error: row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("maze format error: %s", e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// cell is what a single maze symbol decodes to.
type cell struct {
	tile   Tile
	entity *Entity
	player bool
}

// decodeSymbol maps a maze character to its tile and occupant. This is the
// only place raw symbols are interpreted.
func decodeSymbol(ch rune) (cell, bool) {
	switch ch {
	case 'W':
		return cell{tile: Wall}, true
	case ' ', '.':
		return cell{tile: Floor}, true
	case 'G':
		return cell{tile: Goal}, true
	case 'X':
		return cell{tile: Goal, entity: &Entity{Kind: Crate, Strength: DefaultCrateStrength}}, true
	case 'P':
		return cell{tile: Floor, player: true}, true
	case 'C':
		return cell{tile: Floor, entity: &Entity{Kind: Crate, Strength: DefaultCrateStrength}}, true
	case '$':
		return cell{tile: Floor, entity: &Entity{Kind: Coin}}, true
	case 'M':
		return cell{tile: Floor, entity: &Entity{Kind: MovePotion}}, true
	case 'S':
		return cell{tile: Floor, entity: &Entity{Kind: StrengthPotion}}, true
	case 'F':
		return cell{tile: Floor, entity: &Entity{Kind: FancyPotion}}, true
	}
	if ch >= '1' && ch <= '9' {
		return cell{tile: Floor, entity: &Entity{Kind: Crate, Strength: int(ch - '0')}}, true
	}
	return cell{}, false
}

// Maze is the immutable result of loading a maze source: static tiles plus
// the initial entity layout, kept so a game can be reset without re-parsing.
type Maze struct {
	rows     int
	cols     int
	tiles    [][]Tile
	entities map[Position]Entity
	start    Position
}

// ReadLayout splits a maze source into rows without interpreting symbols.
// Line endings and trailing blank lines are dropped.
func ReadLayout(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read maze: %w", err)
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

// LoadMaze reads a maze source, one row per line.
func LoadMaze(r io.Reader) (*Maze, error) {
	lines, err := ReadLayout(r)
	if err != nil {
		return nil, err
	}
	return ParseMaze(lines)
}

// ParseMaze builds a Maze from layout rows.
func ParseMaze(layout []string) (*Maze, error) {
	rows := make([]string, 0, len(layout))
	for _, line := range layout {
		rows = append(rows, strings.TrimSuffix(line, "\r"))
	}
	// Blank trailing lines are not part of the grid
	for len(rows) > 0 && rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil, &FormatError{Reason: "layout is empty"}
	}
	if len(rows) > MaxGridSize {
		return nil, &FormatError{Reason: fmt.Sprintf("layout has %d rows, max is %d", len(rows), MaxGridSize)}
	}

	width := len([]rune(rows[0]))
	if width == 0 {
		return nil, &FormatError{Row: 1, Reason: "row is empty"}
	}
	if width > MaxGridSize {
		return nil, &FormatError{Row: 1, Reason: fmt.Sprintf("row has %d columns, max is %d", width, MaxGridSize)}
	}

	m := &Maze{
		rows:     len(rows),
		cols:     width,
		tiles:    make([][]Tile, len(rows)),
		entities: make(map[Position]Entity),
	}

	players := 0
	for r, line := range rows {
		symbols := []rune(line)
		if len(symbols) != width {
			return nil, &FormatError{Row: r + 1, Reason: fmt.Sprintf("expected %d columns, got %d", width, len(symbols))}
		}
		m.tiles[r] = make([]Tile, width)
		for c, ch := range symbols {
			decoded, ok := decodeSymbol(ch)
			if !ok {
				return nil, &FormatError{Row: r + 1, Col: c + 1, Char: ch, Reason: "unrecognized symbol"}
			}
			pos := Position{Row: r, Col: c}
			m.tiles[r][c] = decoded.tile
			if decoded.entity != nil {
				m.entities[pos] = *decoded.entity
			}
			if decoded.player {
				players++
				m.start = pos
			}
		}
	}

	if players != 1 {
		return nil, &FormatError{Reason: fmt.Sprintf("expected exactly one player marker 'P', found %d", players)}
	}

	return m, nil
}

// Dimensions returns the number of rows and columns.
func (m *Maze) Dimensions() (int, int) {
	return m.rows, m.cols
}

// PlayerStart returns the initial player position.
func (m *Maze) PlayerStart() Position {
	return m.start
}

// TileAt returns the static tile at pos. Cells outside the grid read as Wall.
func (m *Maze) TileAt(pos Position) Tile {
	if pos.Row < 0 || pos.Row >= m.rows || pos.Col < 0 || pos.Col >= m.cols {
		return Wall
	}
	return m.tiles[pos.Row][pos.Col]
}

// Tiles returns a copy of the tile grid.
func (m *Maze) Tiles() [][]Tile {
	out := make([][]Tile, len(m.tiles))
	for i, row := range m.tiles {
		out[i] = append([]Tile(nil), row...)
	}
	return out
}

// Entities returns a copy of the initial entity layout.
func (m *Maze) Entities() map[Position]Entity {
	out := make(map[Position]Entity, len(m.entities))
	for pos, e := range m.entities {
		out[pos] = e
	}
	return out
}

// Board builds a fresh mutable store holding the initial layout.
func (m *Maze) Board() *Board {
	return &Board{
		rows:     m.rows,
		cols:     m.cols,
		tiles:    m.tiles,
		entities: m.Entities(),
		player:   m.start,
	}
}

// Layout renders the maze back to source symbols. Parsing the result yields
// an equivalent maze.
func (m *Maze) Layout() []string {
	return m.Board().Render()
}
