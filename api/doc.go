// Package api provides the HTTP REST API for Sokoban sessions.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Sessions grouped for side-by-side views (?sessionIds=a,b or ?configName=x)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/move - {"direction": "up", "reset": false}
//   - POST /api/sessions/{id}/bulk-move - {"moves": ["up", "left"], "reset": false}
//   - POST /api/sessions/{id}/purchase - {"item": "strength_potion"}
//   - GET /api/sessions/{id}/shop - Catalog with affordability for the player
//   - POST /api/sessions/{id}/reset - Restore the initial maze and stats
//   - GET /api/sessions/{id}/history - Paginated moves (?page=1&limit=20&order=desc)
//
// Configuration:
//   - GET /api/configs - List levels
//   - GET /api/configs/{name} - Get a level
//   - POST /api/configs - Save a level as JSON
//
// Other:
//   - GET /api/health - Liveness and session count
//   - GET /ws?session={id} - WebSocket feed of state updates, served only when a hub is set
//
// Blocked moves and failed purchases are not HTTP errors: they return 200 with
// success=false plus an outcome or reason_code. Errors are JSON objects of the
// form {"error": "message"}; unknown sessions and levels map to 404, unknown
// items and directions to 400.
package api
