// Package stats keeps the capped history of finished runs and derives the
// aggregate figures shown to the player.
//
// A Recorder receives one engine.Outcome per finished run and appends it to a
// Store. Stores keep at most a fixed number of entries and evict the oldest
// first. Three stores are provided: MemoryStore for tests, FileStore for a
// JSON file next to the session files, and RedisStore for a Redis list shared
// between server instances.
//
// Compute derives totals, win rate, streaks and win averages purely from the
// stored history.
package stats
