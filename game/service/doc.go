// Package service provides the business logic layer for the Sokoban game server.
//
// The service package implements:
//   - Multi-session game management
//   - Move and shop processing with event extraction
//   - Configuration access
//   - Move history pagination
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages level configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine, providing session isolation and business logic
// orchestration. Each session owns its own engine; the service serialises
// access to it so the engine itself never needs locking.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	sessionInfo, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, sessionInfo.ID, "up", false)
//	purchase, err := gameService.Purchase(ctx, sessionInfo.ID, "strength_potion")
//
// Events:
//
// Every mutating call returns GameEvent values (move, push, goal_filled,
// pickup, coin, purchase, victory, game_over, reset), each carrying a unique
// ID so transports can de-duplicate them.
package service
