package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// newEvent stamps an event with a fresh ID and the current time.
func newEvent(eventType, message string, pos engine.Position) GameEvent {
	return GameEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
		Position:  pos,
	}
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v", configName, configIDs)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations", configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	return s.sessionInfo(sess, configID), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	// Write lock: UpdateLastAccessed writes the session that sessionInfo reads
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(sess, s.getConfigID(sess.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, newEvent(EventReset, "Game reset to initial state", sess.Engine.GetPlayerPosition()))
	}

	before := sess.Engine.Stats()
	report := sess.Engine.Move(direction)
	state := sess.Engine.GetState()

	result := &MoveResult{
		Success:   report.Success(),
		Outcome:   report.Outcome,
		GameState: state,
		Message:   state.Message,
		Events:    events,
	}

	if report.Success() {
		moveEvents := extractMoveEvents(report, state)
		result.Events = append(result.Events, moveEvents...)
		step := buildStep(1, direction, report, before, state)
		result.Step = &step
	} else {
		result.AttemptedTo = describeAttempt(sess.Engine, report)
	}

	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after move: %v\n", sessionID, err)
	}

	return result, nil
}

// BulkMove executes multiple moves in sequence
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, newEvent(EventReset, "Game reset to initial state", sess.Engine.GetPlayerPosition()))
	}

	result.StartPos = sess.Engine.GetPlayerPosition()
	result.StartStats = sess.Engine.Stats()

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, move := range moves {
		if sess.Engine.IsGameOver() {
			result.StoppedReason = "game is over"
			result.StopReasonCode = string(engine.OutcomeGameOver)
			result.StoppedOnMove = i + 1
			break
		}

		before := sess.Engine.Stats()
		report := sess.Engine.Move(move)

		if !report.Success() {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d blocked: %s", i+1, move)
			result.StopReasonCode = string(report.Outcome)
			result.StoppedOnMove = i + 1
			result.AttemptedTo = describeAttempt(sess.Engine, report)
			break
		}

		result.MovesExecuted++
		state := sess.Engine.GetState()
		result.Events = append(result.Events, extractMoveEvents(report, state)...)
		result.Steps = append(result.Steps, buildStep(i+1, move, report, before, state))
	}

	endState := sess.Engine.GetState()
	result.GameState = endState
	result.EndPos = endState.PlayerPos
	result.EndStats = endState.Stats
	result.GoalsFilled = endState.GoalsFilled
	result.GameOver = endState.GameOver()
	result.Status = endState.Status
	result.Message = endState.Message

	if result.GameOver && result.StopReasonCode == "" {
		if endState.Status == engine.Won {
			result.StopReasonCode = "victory"
		} else {
			result.StopReasonCode = "out_of_moves"
		}
	}

	result.PossibleMoves = sess.Engine.GetPossibleMoves()
	result.LocalView3x3 = endState.LocalView3x3
	result.MoveBudget = budgetCode(engine.AnalyzeMoveBudget(endState))

	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after bulk moves: %v\n", sessionID, err)
	}

	return result, nil
}

// Purchase buys a shop item for the session's player
func (s *gameServiceImpl) Purchase(ctx context.Context, sessionID, item string) (*PurchaseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	parsed, err := engine.ParseItem(item)
	if err != nil {
		return nil, err
	}
	price, ok := sess.Engine.Catalog().Price(parsed)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not sold in this level", engine.ErrUnknownItem, parsed)
	}

	effect, err := sess.Engine.Purchase(parsed)
	state := sess.Engine.GetState()
	result := &PurchaseResult{
		Item:      parsed,
		Price:     price,
		GameState: state,
		Message:   state.Message,
	}

	switch {
	case err == nil:
		result.Success = true
		result.Effect = effect
		result.Events = []GameEvent{newEvent(EventPurchase,
			fmt.Sprintf("Bought %s for $%d", parsed, price), state.PlayerPos)}
	case errors.Is(err, engine.ErrInsufficientFunds):
		result.ReasonCode = "insufficient_funds"
		result.Message = err.Error()
	case errors.Is(err, engine.ErrGameOver):
		result.ReasonCode = "game_over"
		result.Message = err.Error()
	default:
		return nil, err
	}

	if result.Success {
		if err := s.sessions.Save(sessionID); err != nil {
			fmt.Printf("Warning: Failed to persist session %s after purchase: %v\n", sessionID, err)
		}
	}

	return result, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset()

	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after reset: %v\n", sessionID, err)
	}

	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetShop returns the session's catalog and what the player can afford
func (s *gameServiceImpl) GetShop(ctx context.Context, sessionID string) (*ShopInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	stats := sess.Engine.Stats()
	rules := sess.Engine.Rules()
	entries := sess.Engine.Catalog().Items()

	info := &ShopInfo{Items: make([]ShopItem, 0, len(entries)), Money: stats.Money}
	for _, entry := range entries {
		info.Items = append(info.Items, ShopItem{
			Item:       entry.Item,
			Price:      entry.Price,
			Effect:     rules.Effect(entry.Item.Kind()),
			Affordable: stats.Money >= entry.Price && !sess.Engine.IsGameOver(),
		})
	}
	return info, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available level configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific level configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a level configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// extractMoveEvents generates events from an applied move
func extractMoveEvents(report engine.MoveReport, state *engine.GameState) []GameEvent {
	events := []GameEvent{
		newEvent(EventMove, fmt.Sprintf("Moved %s to %s", report.Direction, report.To), report.To),
	}

	switch report.Outcome {
	case engine.OutcomePushed:
		c := report.Crate
		desc := fmt.Sprintf("Pushed strength %d crate from %s to %s", c.Strength, c.From, c.To)
		if c.Displaced != "" {
			desc += fmt.Sprintf(", destroying the %s there", c.Displaced)
		}
		events = append(events, newEvent(EventPush, desc, c.To))
		if c.OnGoal {
			events = append(events, newEvent(EventGoalFilled,
				fmt.Sprintf("Goal filled: %d/%d", state.GoalsFilled, state.GoalsTotal), c.To))
		}
	case engine.OutcomeCollected:
		if report.Pickup == engine.Coin {
			events = append(events, newEvent(EventCoin,
				fmt.Sprintf("Collected $%d, money: %d", report.Effect.Money, state.Stats.Money), report.To))
		} else {
			events = append(events, newEvent(EventPickup,
				fmt.Sprintf("Drank %s (%s)", report.Pickup, describeEffect(report.Effect)), report.To))
		}
	}

	switch state.Status {
	case engine.Won:
		events = append(events, newEvent(EventVictory,
			fmt.Sprintf("Victory! All %d goals filled!", state.GoalsTotal), report.To))
	case engine.Lost:
		events = append(events, newEvent(EventGameOver, state.Message, report.To))
	}

	return events
}

func buildStep(idx int, dir string, report engine.MoveReport, before engine.PlayerStats, state *engine.GameState) StepInfo {
	return StepInfo{
		Idx:         idx,
		Dir:         dir,
		From:        report.From,
		To:          report.To,
		Outcome:     report.Outcome,
		MovesBefore: before.MovesRemaining,
		MovesAfter:  state.Stats.MovesRemaining,
		Success:     report.Success(),
		Pushed:      report.Crate != nil,
		GoalFilled:  report.Crate != nil && report.Crate.OnGoal,
		Pickup:      report.Pickup,
		Victory:     state.Status == engine.Won,
	}
}

// describeAttempt reports what stood in the way of a rejected move.
func describeAttempt(eng *engine.GameEngine, report engine.MoveReport) *AttemptInfo {
	if report.Outcome == engine.OutcomeInvalidDirection {
		return nil
	}
	board := eng.Board()
	target := report.Target
	info := &AttemptInfo{
		Row:      target.Row,
		Col:      target.Col,
		TileChar: string(board.SymbolAt(target)),
		TileType: string(board.DisplayTile(target)),
		Passable: board.TileAt(target) != engine.Wall,
	}
	if !board.InBounds(target) {
		info.TileType = "boundary"
	}
	if occupant, ok := board.EntityAt(target); ok {
		info.Occupant = string(occupant.Kind)
		if occupant.IsCrate() {
			info.Occupant = fmt.Sprintf("crate(strength %d)", occupant.Strength)
		}
	}
	return info
}

func describeEffect(e engine.Effect) string {
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

func budgetCode(text string) string {
	if i := strings.Index(text, ":"); i > 0 {
		return text[:i]
	}
	return "UNKNOWN"
}
