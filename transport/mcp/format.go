package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/service"
)

const instructions = `🎮 Sokoban - Complete Instructions

GAME OBJECTIVE:
Push crates so that every goal (G) holds one. Filling all goals wins immediately.

GRID LEGEND:
• P = you (the player)
• W = wall (impassable)
• G = empty goal
• X = crate sitting on a goal
• 1-9 = crate and its weight
• C = crate of weight 1
• $ = coin
• M = move potion, S = strength potion, F = fancy potion
• (space) = floor

GAME MECHANICS:
• Movement: every applied move costs 1 move. Blocked moves cost nothing.
• Pushing: walking into a crate pushes it one cell if the cell behind it is
  floor or goal AND the crate's weight is at most your strength.
• You cannot push two crates at once, push into walls, or push a crate onto a
  coin or potion.
• Pickups: stepping on a coin or potion collects it instantly.
• Game Over: reaching 0 moves with goals still open loses the game.

SHOP:
• Coins buy potions (see the shop tool for prices in this level).
• move_potion adds moves, strength_potion adds strength, fancy_potion adds both.
• Purchases apply immediately and do not cost a move.
• A heavy crate you cannot push yet usually means a coin to collect and a
  strength potion to buy first.

COORDINATES:
• Positions are (row,col), 0-based, row 0 at the top.
• up = row-1, down = row+1, left = col-1, right = col+1.

AI AGENTS - STRATEGIES:
1. Read the grid row by row and note every crate weight against your strength.
2. Never push a crate into a corner that is not a goal; it can never come out.
3. A crate against a wall can only slide along that wall.
4. Plan the push order: fill goals that would block other paths last.
5. Count moves before committing; buy a move potion before you run dry.
6. Use describe_cell when unsure what a symbol is.
7. Use bulk_move for straight runs; it stops at the first blocked move and
   tells you why (blocked_wall, blocked_crate, too_weak).

MOVEMENT COMMANDS:
• move: {"direction": "up|down|left|right"}
• bulk_move: {"moves": ["up", "up", "left"]} (max 50 per call)
• Both accept "reset": true to start over first.

VICTORY CONDITIONS:
• Every goal holds a crate.

Good luck!`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Position: %s | Moves left: %d | Strength: %d | Money: $%d | Goals: %d/%d | Total moves: %d\n",
		state.PlayerPos, state.Stats.MovesRemaining, state.Stats.Strength, state.Stats.Money,
		state.GoalsFilled, state.GoalsTotal, state.TotalMoves)
	fmt.Fprintf(&b, "Move budget: %s\n", engine.AnalyzeMoveBudget(state))

	if len(state.LocalView3x3) == 3 {
		b.WriteString("Local 3x3:\n")
		for _, line := range state.LocalView3x3 {
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("\n")

	for _, line := range state.Grid {
		b.WriteString(line)
		b.WriteString("\n")
	}

	switch state.Status {
	case engine.Won:
		b.WriteString("\n🎉 VICTORY!")
	case engine.Lost:
		b.WriteString("\n💀 GAME OVER")
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move successful\n")
	} else {
		fmt.Fprintf(&b, "✗ Move failed (%s)\n", result.Outcome)
	}

	if s := result.Step; s != nil {
		fmt.Fprintf(&b, "Step: %s %s→%s outcome=%s moves=%d\n", s.Dir, s.From, s.To, s.Outcome, s.MovesAfter)
	}

	if a := result.AttemptedTo; a != nil {
		fmt.Fprintf(&b, "Blocked: attempted (%d,%d) tile=%q %s", a.Row, a.Col, a.TileChar, a.TileType)
		if a.Occupant != "" {
			fmt.Fprintf(&b, " occupied by %s", a.Occupant)
		}
		b.WriteString("\n")
	}

	writeEvents(&b, result.Events)

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	configName := ""
	if result.GameState != nil {
		configName = result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s\n", sessionID, configName)

	fmt.Fprintf(&b, "Executed %d/%d moves\n", result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to the first %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped: %s (%s)\n", result.StoppedReason, result.StopReasonCode)
	} else if result.StopReasonCode != "" {
		fmt.Fprintf(&b, "Stopped: %s\n", result.StopReasonCode)
	}

	if a := result.AttemptedTo; a != nil {
		fmt.Fprintf(&b, "Blocked on move %d: attempted (%d,%d) tile=%q %s",
			result.StoppedOnMove, a.Row, a.Col, a.TileChar, a.TileType)
		if a.Occupant != "" {
			fmt.Fprintf(&b, " occupied by %s", a.Occupant)
		}
		b.WriteString("\n")
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for _, s := range result.Steps {
			b.WriteString(formatStepLine(s))
		}
	}

	writeEvents(&b, result.Events)

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(result.PossibleMoves, ","))
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

// formatStepLine renders a single compact step line
func formatStepLine(s service.StepInfo) string {
	var extras []string
	if s.Pushed {
		extras = append(extras, "pushed")
	}
	if s.GoalFilled {
		extras = append(extras, "goal")
	}
	if s.Pickup != "" {
		extras = append(extras, string(s.Pickup))
	}
	if s.Victory {
		extras = append(extras, "victory")
	}
	suffix := ""
	if len(extras) > 0 {
		suffix = " [" + strings.Join(extras, ",") + "]"
	}
	return fmt.Sprintf("%d. %s %s→%s moves=%d%s\n", s.Idx, s.Dir, s.From, s.To, s.MovesAfter, suffix)
}

func formatPurchaseResult(result *service.PurchaseResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✓ Bought %s for $%d (%s)\n", result.Item, result.Price, formatEffect(result.Effect))
	} else {
		fmt.Fprintf(&b, "✗ Could not buy %s for $%d: %s\n", result.Item, result.Price, result.ReasonCode)
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}
	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatShop(shop *service.ShopInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shop (you have $%d):\n\n", shop.Money)
	if len(shop.Items) == 0 {
		b.WriteString("(nothing for sale in this level)\n")
	}
	for _, item := range shop.Items {
		mark := "✗"
		if item.Affordable {
			mark = "✓"
		}
		fmt.Fprintf(&b, "%s %s - $%d (%s)\n", mark, item.Item, item.Price, formatEffect(item.Effect))
	}
	return b.String()
}

func formatEffect(e engine.Effect) string {
	var parts []string
	if e.Moves != 0 {
		parts = append(parts, fmt.Sprintf("+%d moves", e.Moves))
	}
	if e.Strength != 0 {
		parts = append(parts, fmt.Sprintf("+%d strength", e.Strength))
	}
	if e.Money != 0 {
		parts = append(parts, fmt.Sprintf("+$%d", e.Money))
	}
	if len(parts) == 0 {
		return "no effect"
	}
	return strings.Join(parts, ", ")
}

func writeEvents(b *strings.Builder, events []service.GameEvent) {
	if len(events) == 0 {
		return
	}
	b.WriteString("\nEvents:\n")
	for _, event := range events {
		fmt.Fprintf(b, "- %s: %s\n", event.Type, event.Message)
	}
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d), total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		b.WriteString(formatHistoryLine(move.MoveNumber, move))
	}

	return b.String()
}

func formatHistoryLine(num int, move engine.MoveHistoryEntry) string {
	status := "✓"
	if !move.Success {
		status = "✗"
	}
	return fmt.Sprintf("%d. %s %s %s [Moves left: %d]\n", num, move.Action, status, move.Outcome, move.MovesRemaining)
}

func formatCurrentSegment(state *engine.GameState) string {
	if state == nil {
		return "Current Segment: unavailable"
	}
	header := fmt.Sprintf("Current Move Segment, moves: %d\n\n", state.CurrentMovesCount)
	if len(state.CurrentMoves) == 0 {
		return header + "(no moves in current segment)"
	}
	var b strings.Builder
	b.WriteString(header)
	for i, move := range state.CurrentMoves {
		b.WriteString(formatHistoryLine(i+1, move))
	}
	return b.String()
}

// describeCell explains the terrain and occupant of one cell of a snapshot
func describeCell(state *engine.GameState, pos engine.Position) (string, error) {
	if pos.Row < 0 || pos.Row >= state.Rows || pos.Col < 0 || pos.Col >= state.Cols {
		return "", fmt.Errorf("cell %s is out of bounds; the grid is %d rows by %d cols (row 0-%d, col 0-%d)",
			pos, state.Rows, state.Cols, state.Rows-1, state.Cols-1)
	}

	tile := engine.Floor
	if pos.Row < len(state.Tiles) && pos.Col < len(state.Tiles[pos.Row]) {
		tile = state.Tiles[pos.Row][pos.Col]
	}

	symbol := " "
	if pos.Row < len(state.Grid) && pos.Col < len(state.Grid[pos.Row]) {
		symbol = string(state.Grid[pos.Row][pos.Col])
	}

	var occupant *engine.PlacedEntity
	for i := range state.Entities {
		if state.Entities[i].Pos == pos {
			occupant = &state.Entities[i]
			break
		}
	}

	var description, reminder string
	switch {
	case pos == state.PlayerPos:
		description = "Your current position"
	case tile == engine.Wall:
		description = "Wall - IMPASSABLE"
		reminder = "Nothing can enter a wall, and crates cannot be pushed into one."
	case occupant != nil && occupant.Kind == engine.Crate:
		description = fmt.Sprintf("Crate of weight %d", occupant.Strength)
		if occupant.Strength > state.Stats.Strength {
			reminder = fmt.Sprintf("Too heavy: you need strength %d, you have %d.", occupant.Strength, state.Stats.Strength)
		} else {
			reminder = "You can push this crate if the cell behind it is free floor or goal."
		}
		if tile == engine.Goal {
			description += " sitting on a goal (filled)"
		}
	case occupant != nil:
		description = fmt.Sprintf("Pickup: %s - collected when you step here", occupant.Kind)
		reminder = "Crates cannot be pushed onto pickups."
	case tile == engine.Goal:
		description = "Empty goal - push a crate here"
	default:
		description = "Empty floor"
	}

	passable := tile != engine.Wall && (occupant == nil || occupant.Kind != engine.Crate)

	result := fmt.Sprintf(`Cell at %s:
━━━━━━━━━━━━━━━━━━━━━━━━
Symbol: %q
Tile: %s
Free to step on: %v
Description: %s`,
		pos, symbol, tile, passable, description)
	if reminder != "" {
		result += "\n\n" + reminder
	}
	return result, nil
}
