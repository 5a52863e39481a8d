// Package mcp provides a Model Context Protocol server for Reserve Solitaire.
//
// The server is a thin client: every tool call is proxied to the REST API, so
// MCP agents and browser players share the same sessions.
//
// MCP Tools:
//   - create_session, get_session, list_sessions
//   - game_state: Render the table as text (face-down cards as ##)
//   - move: Execute a move; takes flat from/to arguments and an intent
//   - undo, hint, autoplay, give_up, new_game
//   - export_game, import_game
//   - stats, list_profiles, game_instructions
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: the main server forwards POST /mcp bodies to HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
