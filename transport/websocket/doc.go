// Package websocket pushes live game updates to browser and tool clients.
//
// A central Hub keeps one client set per session ID. Clients subscribe with
// ws://host/ws?session=<id>; IDs are matched case-insensitively. The hub owns
// its client sets in the Run loop, and each connection gets a read pump that
// answers pings and a write pump that drains its send buffer.
//
// Message Protocol:
//
// Every outgoing frame is a JSON Message:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}, "timestamp": "..."}
//
// Besides state_update the hub carries named events such as purchase, reset
// and session_deleted, with an arbitrary data payload. Client messages are
// read only to detect disconnects.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastToSession(sessionID, state)
//
// Broadcasts never block the caller: when the queue is full the update is
// dropped, and a client that cannot keep up is disconnected.
package websocket
