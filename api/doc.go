// Package api provides HTTP REST API handlers for Reserve Solitaire.
//
// The api package implements:
//   - Session management endpoints
//   - Move, undo, hint, autoplay and give-up endpoints
//   - Select/drop endpoints for two-step moves
//   - Game transfer (export/import), presence and preferences
//   - Stats and profile endpoints
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"profile_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current table
//   - POST /api/sessions/{id}/move - Execute a move
//   - POST /api/sessions/{id}/undo - Undo the last move
//   - POST /api/sessions/{id}/hint - Suggest a move and highlight it
//   - POST /api/sessions/{id}/autoplay - Send every safe card to the foundations
//   - POST /api/sessions/{id}/give-up - Record the run as lost
//   - POST /api/sessions/{id}/new-game - Deal again ({"seed": 42} optional)
//   - POST /api/sessions/{id}/check - Re-evaluate win/loss
//   - POST|DELETE /api/sessions/{id}/select, POST /api/sessions/{id}/drop
//
// Transfer and Settings:
//   - GET /api/sessions/{id}/export, POST /api/sessions/{id}/import
//   - POST /api/sessions/{id}/presence ({"present": true})
//   - PUT /api/sessions/{id}/preferences
//   - GET|DELETE /api/stats
//   - GET|POST /api/profiles, GET /api/profiles/{name}
//
// Moves are sent as POST with JSON body:
//
//	{
//	  "kind": "pile_to_pile|reserve_to_pile|pile_to_reserve|to_foundation|auto",
//	  "from": {"kind": "tableau", "index": 2, "card_index": 4},
//	  "to":   {"kind": "tableau", "index": 5}
//	}
//
// A rejected move is not an HTTP error: the response carries success=false
// and a reason. Unknown sessions return 404, malformed requests 400, and
// auto moves on a profile that disables them 409.
//
// Usage:
//
//	server := api.NewServer(gameService, hub, version)
//	http.ListenAndServe(":8080", server)
package api
