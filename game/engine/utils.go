package engine

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dr := from.Row - to.Row
	if dr < 0 {
		dr = -dr
	}
	dc := from.Col - to.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// CountTiles counts the cells of a specific tile type in the grid
func CountTiles(tiles [][]Tile, tile Tile) int {
	count := 0
	for _, row := range tiles {
		for _, t := range row {
			if t == tile {
				count++
			}
		}
	}
	return count
}

// CountEntities counts the entities of a specific kind
func CountEntities(entities []PlacedEntity, kind EntityKind) int {
	count := 0
	for _, e := range entities {
		if e.Kind == kind {
			count++
		}
	}
	return count
}

// UnfilledGoals returns the goal cells of a snapshot that hold no crate
func UnfilledGoals(state *GameState) []Position {
	crates := make(map[Position]bool)
	for _, e := range state.Entities {
		if e.Kind == Crate {
			crates[e.Pos] = true
		}
	}
	var out []Position
	for r, row := range state.Tiles {
		for c, t := range row {
			pos := Position{Row: r, Col: c}
			if t == Goal && !crates[pos] {
				out = append(out, pos)
			}
		}
	}
	return out
}

// FindNearestUnfilledGoal finds the closest empty goal and returns its position and distance
func FindNearestUnfilledGoal(state *GameState) (Position, int, bool) {
	minDistance := -1
	var nearest Position
	for _, pos := range UnfilledGoals(state) {
		d := ManhattanDistance(state.PlayerPos, pos)
		if minDistance == -1 || d < minDistance {
			minDistance = d
			nearest = pos
		}
	}
	return nearest, minDistance, minDistance != -1
}

// StrongestCrate returns the highest crate strength in the snapshot, or 0 without crates
func StrongestCrate(state *GameState) int {
	max := 0
	for _, e := range state.Entities {
		if e.Kind == Crate && e.Strength > max {
			max = e.Strength
		}
	}
	return max
}

// AnalyzeMoveBudget assesses how tight the remaining moves are
func AnalyzeMoveBudget(state *GameState) string {
	if state.Status == Won {
		return "DONE: All goals filled"
	}
	if state.Stats.MovesRemaining <= 0 {
		return "CRITICAL: Out of moves!"
	}

	_, distance, found := FindNearestUnfilledGoal(state)
	if !found {
		return "SAFE: No open goals"
	}

	if state.Stats.MovesRemaining < distance {
		return "DANGER: Not enough moves to reach the nearest open goal!"
	} else if state.Stats.MovesRemaining <= distance+2 {
		return "CAUTION: Few moves left, buy a move potion if you can"
	} else if StrongestCrate(state) > state.Stats.Strength {
		return "WEAK: Some crates need more strength"
	}

	return "SAFE: Move budget sufficient"
}
