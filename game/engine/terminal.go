package engine

import "github.com/sirupsen/logrus"

// IsWin reports whether every card has reached the foundations
func (gs *GameState) IsWin() bool {
	n := 0
	for _, p := range gs.Foundations {
		n += len(p)
	}
	return n == DeckSize
}

// Status classifies the current position without recording anything
func (e *GameEngine) Status() Status {
	if e.state.IsWin() {
		return StatusWin
	}
	if !e.state.HasAnyLegalMove() {
		return StatusLoss
	}
	return StatusPlaying
}

// CheckState classifies the position and finalizes the outcome when allowed.
// A win is always recorded. A loss is recorded only when the undo stack is
// empty, i.e. for an untouched deal; later losses need GiveUp.
func (e *GameEngine) CheckState() Status {
	status := e.Status()
	switch status {
	case StatusWin:
		e.recordOutcome(OutcomeWin)
	case StatusLoss:
		if e.canFinalizeLoss() {
			e.recordOutcome(OutcomeLoss)
		}
	}
	return status
}

func (e *GameEngine) canFinalizeLoss() bool {
	return e.history.Len() == 0
}

// HasActiveRun reports whether the current run has progressed and is unfinished
func (e *GameEngine) HasActiveRun() bool {
	if e.state.Finished {
		return false
	}
	if e.state.MoveCount > 0 || e.state.UndoCount > 0 || e.state.ElapsedMs > 0 {
		return true
	}
	if e.history.Len() > 0 {
		return true
	}
	for _, p := range e.state.Foundations {
		if len(p) > 0 {
			return true
		}
	}
	return false
}

// GiveUp records the current run as lost if it is active and not yet recorded
func (e *GameEngine) GiveUp() bool {
	if !e.HasActiveRun() || e.state.OutcomeRecorded {
		return false
	}
	return e.recordOutcome(OutcomeLoss)
}

// recordOutcome finalizes the run at most once
func (e *GameEngine) recordOutcome(kind OutcomeKind) bool {
	if e.state.Finished || e.state.OutcomeRecorded {
		return false
	}
	e.state.Finished = true
	e.state.OutcomeRecorded = true

	outcome := Outcome{
		RunID:      e.state.RunID,
		Outcome:    kind,
		MoveCount:  e.state.MoveCount,
		UndoCount:  e.state.UndoCount,
		ElapsedMs:  e.state.ElapsedMs,
		FinishedAt: e.now().UnixMilli(),
	}
	if e.hooks.Outcomes != nil {
		if err := e.hooks.Outcomes.Record(outcome); err != nil {
			logrus.WithFields(logrus.Fields{
				"run_id":  outcome.RunID,
				"outcome": outcome.Outcome,
			}).WithError(err).Warn("failed to record outcome")
		}
	}
	e.persist()
	return true
}
