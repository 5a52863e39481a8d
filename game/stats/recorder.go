package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/reserve-solitaire/game/engine"
)

const defaultTimeout = 5 * time.Second

// Recorder appends finished runs to a store and serves aggregates. It
// implements engine.OutcomeSink.
type Recorder struct {
	store    Store
	max      int
	timeout  time.Duration
	onRecord func(engine.Outcome)
}

// NewRecorder creates a recorder keeping at most max entries
func NewRecorder(store Store, max int) *Recorder {
	if max <= 0 {
		max = engine.DefaultStatsHistory
	}
	return &Recorder{store: store, max: max, timeout: defaultTimeout}
}

// OnRecord registers a callback run after every stored outcome
func (r *Recorder) OnRecord(fn func(engine.Outcome)) {
	r.onRecord = fn
}

// Record stores one outcome. The engine calls it synchronously, so the store
// call runs under its own timeout.
func (r *Recorder) Record(outcome engine.Outcome) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.store.Append(ctx, outcome, r.max); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"run_id":     outcome.RunID,
		"outcome":    outcome.Outcome,
		"moves":      outcome.MoveCount,
		"undos":      outcome.UndoCount,
		"elapsed_ms": outcome.ElapsedMs,
	}).Info("run finished")

	if r.onRecord != nil {
		r.onRecord(outcome)
	}
	return nil
}

// History returns the stored outcomes, oldest first
func (r *Recorder) History(ctx context.Context) ([]engine.Outcome, error) {
	return r.store.List(ctx)
}

// Summary computes the aggregate figures for the stored history
func (r *Recorder) Summary(ctx context.Context) (Summary, error) {
	history, err := r.store.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Compute(history), nil
}

// Reset clears the stored history
func (r *Recorder) Reset(ctx context.Context) error {
	return r.store.Clear(ctx)
}
