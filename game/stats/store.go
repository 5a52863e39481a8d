package stats

import (
	"context"
	"errors"

	"github.com/wricardo/reserve-solitaire/game/engine"
)

// ErrInvalidOutcome is returned when an outcome cannot be stored
var ErrInvalidOutcome = errors.New("invalid outcome")

// Store persists the outcome history, oldest first
type Store interface {
	// Append adds an outcome and evicts the oldest entries beyond max
	Append(ctx context.Context, outcome engine.Outcome, max int) error

	// List returns the stored outcomes, oldest first
	List(ctx context.Context) ([]engine.Outcome, error)

	// Clear removes every stored outcome
	Clear(ctx context.Context) error
}

func validOutcome(o engine.Outcome) bool {
	return o.Outcome == engine.OutcomeWin || o.Outcome == engine.OutcomeLoss
}

// trim keeps the newest max entries
func trim(history []engine.Outcome, max int) []engine.Outcome {
	if max <= 0 || len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}
