// Package websocket provides WebSocket transport for Reserve Solitaire.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - State broadcasting after every change
//   - The engine.Presenter used for hint highlights and move notices
//   - Presence reporting that drives the play clock
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by a read and a
// write goroutine; the hub loop owns registration and fan-out.
//
// Message Protocol:
//
// Outgoing messages are JSON objects {session_id, event, game_state, data}
// where event is one of state_update, hint, clear_hints, move or outcome.
// Clients may send {"event":"presence","present":true|false} when the page
// gains or loses visibility. When the last client of a session disconnects
// the session is reported absent.
//
// Usage:
//
//	hub := websocket.NewHub()
//	hub.OnPresence(func(id string, present bool) { ... })
//	go hub.Run()
//
//	svc := service.NewGameService(sessions, configs,
//		service.WithPresenters(hub.Presenter))
package websocket
