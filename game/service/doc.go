// Package service provides the business logic layer for Reserve Solitaire.
//
// The service package implements:
//   - Multi-session table management
//   - Profile resolution with per-session copies
//   - Move dispatch, selection and hint orchestration
//   - Outcome events and stats recording
//   - Presence-gated play clocks
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, persistence and lifecycle.
// ConfigManager loads and validates table profiles.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Before every state-changing call it binds the session's
// engine to a persister that writes through the session manager, the stats
// recorder, and the presenter supplied by the transport.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	recorder := stats.NewRecorder(stats.NewMemoryStore(), 100)
//	gameService := service.NewGameService(sessionMgr, configMgr, service.WithRecorder(recorder))
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, service.MoveRequest{
//		Kind: service.MoveKindAuto,
//		From: engine.Location{Kind: engine.LocReserve, Index: 0},
//	})
//
// Sessions:
//
// Sessions are identified by short hex IDs and each owns an engine and a copy
// of its profile, so preference changes in one session never leak into another.
package service
