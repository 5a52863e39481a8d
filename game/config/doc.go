// Package config provides table profile management for Reserve Solitaire.
//
// The config package handles:
//   - Loading table profiles from JSON files
//   - Profile validation
//   - Default profile management
//   - Profile discovery and listing
//
// Profile Format:
//
// Profiles are stored as JSON files in the profile directory. Each profile
// defines:
//   - The card face style (normal, color, dark, border, watermark, pattern,
//     corners or cb)
//   - Whether double-clicking a card sends it to its best destination
//   - How many undo snapshots survive a reload and how many finished runs the
//     stats history keeps
//   - The auto-play pass limit and an optional storage quota for saved games
//
// Settings missing from a file keep the built-in defaults.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := manager.LoadProfile("classic")
//	defaultProfile := manager.GetDefault()
//	profiles, err := manager.ListProfiles()
package config
