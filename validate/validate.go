// Command validate checks table profiles and saved session files. For
// profiles it checks:
//   - JSON structure and the profile bounds (history caps, autoplay passes,
//     suit style, storage quota)
//
// For session files (any JSON object carrying a "snapshot") it checks:
//   - Pile counts and card validity of the live state and every history entry
//   - Deck integrity: each of the 52 cards exactly once
//   - Foundations ascend from the ace in a single suit
//   - The embedded profile, when present
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/reserve-solitaire/game/engine"
	"github.com/wricardo/reserve-solitaire/game/session"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateFile reads a JSON file and dispatches on its shape
func validateFile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if _, ok := probe["snapshot"]; ok {
		validateSession(data, &result)
	} else {
		validateProfile(filePath, &result)
	}
	return result
}

// validateProfile loads the file the way the server does
func validateProfile(filePath string, result *ValidationResult) {
	profile, err := engine.LoadProfile(filePath)
	if err != nil {
		result.fail("%v", err)
		return
	}

	result.info("Profile: %s", profile.Name)
	result.info("Suit style: %s", profile.SuitStyle)
	result.info("Double-click to foundation: %t", profile.DoubleClickFoundation)
	result.info("History cap: %d, stats cap: %d", profile.MaxPersistedHistory, profile.MaxStatsHistory)
}

// checkTable runs the structural and deck checks on one table state
func checkTable(label string, gs *engine.GameState, result *ValidationResult) {
	if err := engine.ValidateState(gs); err != nil {
		result.fail("%s: %v", label, err)
		return
	}
	if err := engine.CheckDeckIntegrity(gs); err != nil {
		result.fail("%s: %v", label, err)
	}
	if err := engine.CheckFoundations(gs); err != nil {
		result.fail("%s: %v", label, err)
	}
}

// validateSession checks a persisted session file
func validateSession(data []byte, result *ValidationResult) {
	var persisted session.PersistedSessionData
	if err := json.Unmarshal(data, &persisted); err != nil {
		result.fail("Invalid session JSON: %v", err)
		return
	}
	if persisted.Snapshot == nil {
		result.fail("Session has no snapshot")
		return
	}

	snap := persisted.Snapshot
	checkTable("live state", &snap.GameState, result)
	for i := range snap.History {
		checkTable(fmt.Sprintf("history entry %d", i), &snap.History[i], result)
	}

	if persisted.Profile != nil {
		if err := engine.ValidateProfile(persisted.Profile); err != nil {
			result.fail("embedded profile: %v", err)
		}
	}

	if !result.Valid {
		return
	}

	foundation := 0
	for _, f := range snap.Foundations {
		foundation += len(f)
	}
	result.info("Session: %s (profile %s)", persisted.ID, persisted.ProfileName)
	result.info("Moves: %d, undos: %d, history entries: %d", snap.MoveCount, snap.UndoCount, len(snap.History))
	result.info("Foundation cards: %d/%d", foundation, engine.DeckSize)
	if snap.Finished {
		result.info("Run finished (outcome recorded: %t)", snap.OutcomeRecorded)
	}
}

// collectFiles expands directories into their *.json files
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

// report prints the results and tells whether every file was valid
func report(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
			continue
		}

		fmt.Fprintln(w, "❌ INVALID")
		allValid = false
		for _, err := range result.Errors {
			if !strings.HasPrefix(err, "✓") {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All files are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some files have errors")
	}
	return allValid
}

func newCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate table profiles and saved session files",
		ArgsUsage: "[file or directory ...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				paths = []string{"../configs"}
			}

			files, err := collectFiles(paths)
			if err != nil {
				return err
			}

			results := make([]ValidationResult, 0, len(files))
			for _, file := range files {
				results = append(results, validateFile(file))
			}

			if !report(w, results) {
				return errors.New("some files have errors")
			}
			return nil
		},
	}
}

// main validates the given files or directories (../configs by default),
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
