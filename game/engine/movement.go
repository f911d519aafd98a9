package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDirection is returned for direction strings that are not a cardinal move.
var ErrInvalidDirection = errors.New("invalid direction")

// Direction is one of the four cardinal moves.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists the moves in a stable order.
var Directions = []Direction{Up, Down, Left, Right}

// ParseDirection accepts direction names and their wasd keys, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "w":
		return Up, nil
	case "down", "s":
		return Down, nil
	case "left", "a":
		return Left, nil
	case "right", "d":
		return Right, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Delta returns the (row, col) offset of the direction.
func (d Direction) Delta() (int, int) {
	switch d {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	}
	return 0, 0
}

// MoveOutcome classifies the result of a move attempt.
type MoveOutcome string

const (
	OutcomeMoved            MoveOutcome = "moved"
	OutcomePushed           MoveOutcome = "pushed"
	OutcomeCollected        MoveOutcome = "collected"
	OutcomeBlockedWall      MoveOutcome = "blocked_wall"
	OutcomeBlockedCrate     MoveOutcome = "blocked_crate"
	OutcomeTooWeak          MoveOutcome = "too_weak"
	OutcomeGameOver         MoveOutcome = "game_over"
	OutcomeInvalidDirection MoveOutcome = "invalid_direction"
)

// Applied reports whether the move changed state and consumed a move.
func (o MoveOutcome) Applied() bool {
	switch o {
	case OutcomeMoved, OutcomePushed, OutcomeCollected:
		return true
	}
	return false
}

// CrateMove describes a crate relocated by a push.
type CrateMove struct {
	From     Position `json:"from"`
	To       Position `json:"to"`
	Strength int      `json:"strength"`
	OnGoal   bool     `json:"on_goal"`

	// Displaced is the pickup the crate landed on, if any. It is destroyed
	// without granting its effect.
	Displaced EntityKind `json:"displaced,omitempty"`
}

// MoveReport is the full description of a resolved move attempt.
type MoveReport struct {
	Direction Direction   `json:"direction"`
	Outcome   MoveOutcome `json:"outcome"`
	From      Position    `json:"from"`
	To        Position    `json:"to"`
	Target    Position    `json:"target"`
	Crate     *CrateMove  `json:"crate,omitempty"`
	Pickup    EntityKind  `json:"pickup,omitempty"`
	Effect    Effect      `json:"effect,omitempty"`
}

// Success reports whether the move was applied.
func (r MoveReport) Success() bool {
	return r.Outcome.Applied()
}

// Resolve validates and applies a single move. Either every mutation happens
// or none does: all checks run before the first write.
func (b *Board) Resolve(dir Direction, stats *PlayerStats, rules Rules) MoveReport {
	from := b.player
	report := MoveReport{Direction: dir, From: from, To: from, Target: from}
	if dr, dc := dir.Delta(); dr == 0 && dc == 0 {
		report.Outcome = OutcomeInvalidDirection
		return report
	}
	target := from.Add(dir)
	report.Target = target

	if b.TileAt(target) == Wall {
		report.Outcome = OutcomeBlockedWall
		return report
	}

	occupant, occupied := b.entities[target]
	switch {
	case occupied && occupant.IsCrate():
		beyond := target.Add(dir)
		if b.TileAt(beyond) == Wall {
			report.Outcome = OutcomeBlockedCrate
			return report
		}
		under, taken := b.entities[beyond]
		if taken && under.IsCrate() {
			report.Outcome = OutcomeBlockedCrate
			return report
		}
		if stats.Strength < occupant.Strength {
			report.Outcome = OutcomeTooWeak
			return report
		}
		crate := &CrateMove{From: target, To: beyond, Strength: occupant.Strength}
		if taken {
			b.RemoveEntity(beyond)
			crate.Displaced = under.Kind
		}
		b.MoveEntity(target, beyond)
		crate.OnGoal = b.IsGoalFilled(beyond)
		report.Outcome = OutcomePushed
		report.Crate = crate

	case occupied && occupant.IsPickup():
		effect := rules.Effect(occupant.Kind)
		stats.Apply(effect)
		b.RemoveEntity(target)
		report.Outcome = OutcomeCollected
		report.Pickup = occupant.Kind
		report.Effect = effect

	default:
		report.Outcome = OutcomeMoved
	}

	b.player = target
	stats.MovesRemaining--
	report.To = target
	return report
}

// newHistoryEntry builds the history record of a move attempt.
func newHistoryEntry(report MoveReport, action string, stats PlayerStats, number int) MoveHistoryEntry {
	return MoveHistoryEntry{
		Action:         action,
		FromPosition:   report.From,
		ToPosition:     report.To,
		Outcome:        report.Outcome,
		MovesRemaining: stats.MovesRemaining,
		Timestamp:      time.Now().Unix(),
		Success:        report.Success(),
		MoveNumber:     number,
	}
}

// GenerateLocalView renders the 3x3 window centred on the player.
func (b *Board) GenerateLocalView() []string {
	lines := make([]string, 0, 3)
	for dr := -1; dr <= 1; dr++ {
		var row strings.Builder
		for dc := -1; dc <= 1; dc++ {
			pos := Position{Row: b.player.Row + dr, Col: b.player.Col + dc}
			row.WriteRune(b.SymbolAt(pos))
		}
		lines = append(lines, row.String())
	}
	return lines
}
