// Package engine provides the core rules for Reserve Solitaire.
//
// The engine package implements the game mechanics including:
//   - Deck building and the seven-pile deal with a three-slot reserve
//   - Move validation for tableau and foundation placement
//   - Move execution with undo snapshots
//   - Hint enumeration, tap-to-move and foundation auto-play
//   - Win and loss detection with single-shot outcome recording
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState is the table (tableau, foundations,
// reserve and run counters), Snapshot is its persisted form including recent
// undo entries, and Profile holds the per-table preferences loaded from JSON.
//
// Usage:
//
//	eng, err := engine.NewEngineWithSeed(engine.DefaultProfile(), 42)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if m := eng.Hint(); m != nil {
//		_ = eng.Apply(*m)
//	}
//	status := eng.CheckState()
//
// Game Rules:
//
// Tableau piles build down in suit; only a king may start an empty pile.
// Foundations build up in suit from the ace. Any face-up run may move as a
// unit. The three reserve slots each hold one card. The game is won when all
// 52 cards are on the foundations and lost when no move remains.
//
// Collaborators:
//
// Persistence, outcome recording and highlighting are reached through the
// Persister, OutcomeSink and Presenter interfaces set with SetHooks. The
// engine owns no timers; hosts call AdvanceElapsed and SetPresence.
package engine
