// Package session provides session management for Reserve Solitaire.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - File persistence of game snapshots with a per-profile byte quota
//   - Recovery from corrupt session files with a fresh deal
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// FilePersistence stores each session as one JSON file holding the profile
// copy, timestamps and an engine.Snapshot with bounded undo history.
//
// Session Identifiers:
//
// Generated sessions use 4-character hex IDs drawn from crypto/rand. Lookups
// are case-insensitive.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence(dir, configMgr)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", "classic", configMgr.GetDefault())
//
// Storage Quota:
//
// When a profile sets storage_quota_bytes, Save keeps the most recent undo
// entries that fit and returns ErrQuotaExceeded if even the bare live state
// does not.
//
// Cleanup:
//
// CleanupExpiredSessions writes idle sessions to disk and evicts them from
// memory; the next Get reloads them.
package session
