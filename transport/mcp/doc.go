// Package mcp exposes the game to AI agents over the Model Context Protocol.
//
// Client is a thin proxy: every tool call becomes a REST request against the
// api package and the JSON reply is rendered as text an agent can read.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, move, bulk_move, reset_game, move_history
//   - purchase, shop
//   - list_configs, game_instructions, describe_cell
//
// All game tools take a session_id. move and bulk_move also accept an intent
// string which is ignored by the server.
//
// Usage:
//
//	// Stdio mode
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode: feed request bodies to the same server
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
