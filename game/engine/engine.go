package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Persister receives a snapshot after every committed change
type Persister interface {
	Save(snapshot *Snapshot) error
}

// OutcomeSink receives the single outcome event of a finished run
type OutcomeSink interface {
	Record(outcome Outcome) error
}

// Highlighter is the presentation capability used for hints
type Highlighter interface {
	HighlightSource(loc Location)
	HighlightTarget(loc Location)
	ClearHighlights()
}

// Presenter is a Highlighter that is also told about move commits
type Presenter interface {
	Highlighter
	MoveCommitted(move Move, ok bool)
}

// Hooks bundles the collaborators an engine talks to. Nil fields are skipped.
type Hooks struct {
	Persister Persister
	Outcomes  OutcomeSink
	Presenter Presenter
}

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Snapshot() *Snapshot
	Restore(snapshot *Snapshot) error
	NewGame(seed int64) *GameState
	Status() Status
	Export() (string, error)
	Import(text string) error

	// Movement operations
	MovePileToPile(src, cardIndex, dst int) error
	MoveReserveToPile(slot, dst int) error
	MovePileToReserve(src, slot int) error
	MoveToAnyFoundation(src Location) error
	MoveToFoundation(src Location, foundation int) error
	AutoMove(src Location) error
	MoveTo(from, to Location) error
	Apply(m Move) error
	Undo() bool

	// Selection
	Select(loc Location) bool
	Selection() *Location
	ClearSelection()
	Drop(target Location) error

	// Hints and terminal checks
	Hint() *Move
	AutoPlay() int
	CheckState() Status
	GiveUp() bool

	// Clock
	SetPresence(present bool)
	AdvanceElapsed(deltaMs int64)
}

// ErrInvalidMove is wrapped by every rejected move
var ErrInvalidMove = errors.New("invalid move")

// MoveError describes why a move was rejected
type MoveError struct {
	Kind   MoveKind
	Reason string
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("invalid move %s: %s", e.Kind, e.Reason)
}

func (e *MoveError) Unwrap() error {
	return ErrInvalidMove
}

func invalid(kind MoveKind, format string, args ...any) error {
	return &MoveError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// GameEngine implements the Engine interface over a single owned GameState
type GameEngine struct {
	state     *GameState
	history   *History
	profile   *Profile
	selection *Location
	lastMove  *Move
	present   bool
	hooks     Hooks
	now       func() time.Time
}

// NewEngine creates an engine with a fresh deal seeded from the clock. Like
// NewEngineWithSeed it leaves the deal unevaluated.
func NewEngine(profile *Profile) (*GameEngine, error) {
	return NewEngineWithSeed(profile, time.Now().UnixNano())
}

// NewEngineWithSeed creates an engine whose first deal uses seed. The deal is
// not evaluated: callers attach hooks first and then call CheckState, so an
// unwinnable deal is recorded by the sink that will own it.
func NewEngineWithSeed(profile *Profile, seed int64) (*GameEngine, error) {
	if profile == nil {
		profile = DefaultProfile()
	}
	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}

	e := &GameEngine{
		history: NewHistory(),
		profile: profile,
		now:     time.Now,
	}
	e.state = Deal(seed)
	return e, nil
}

// NewEngineFromState wraps an existing state, used by tests and loaders
func NewEngineFromState(profile *Profile, state *GameState) (*GameEngine, error) {
	e, err := NewEngineWithSeed(profile, 0)
	if err != nil {
		return nil, err
	}
	if err := ValidateState(state); err != nil {
		return nil, err
	}
	e.state = state
	return e, nil
}

// SetHooks replaces the collaborators
func (e *GameEngine) SetHooks(h Hooks) {
	e.hooks = h
}

// SetClock overrides the wall clock used for outcome timestamps
func (e *GameEngine) SetClock(now func() time.Time) {
	e.now = now
}

// GetState returns the live game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// Profile returns the table profile
func (e *GameEngine) Profile() *Profile {
	return e.profile
}

// SetProfile swaps the table profile after validating it
func (e *GameEngine) SetProfile(p *Profile) error {
	if err := ValidateProfile(p); err != nil {
		return err
	}
	e.profile = p
	return nil
}

// HistoryLen returns the number of undo snapshots available
func (e *GameEngine) HistoryLen() int {
	return e.history.Len()
}

// Snapshot returns the persistable form of the game with history bounded by
// the profile's cap
func (e *GameEngine) Snapshot() *Snapshot {
	return &Snapshot{
		GameState: *e.state.Clone(),
		History:   e.history.Recent(e.profile.MaxPersistedHistory),
	}
}

// Restore replaces the live state and undo stack with a validated snapshot.
// Nothing is adopted when validation fails.
func (e *GameEngine) Restore(snapshot *Snapshot) error {
	if err := ValidateSnapshot(snapshot); err != nil {
		return err
	}
	state := snapshot.GameState.Clone()
	e.state = state
	e.history.Replace(snapshot.History)
	e.selection = nil
	return nil
}

// NewGame deals a new hand. A run abandoned mid-play is recorded as a loss first.
func (e *GameEngine) NewGame(seed int64) *GameState {
	if e.HasActiveRun() {
		e.recordOutcome(OutcomeLoss)
	}
	e.clearHighlights()
	e.state = Deal(seed)
	e.history.Clear()
	e.selection = nil
	e.lastMove = nil
	e.persist()
	e.CheckState()
	return e.state
}

// SetPresence marks whether the player is actively looking at the table
func (e *GameEngine) SetPresence(present bool) {
	e.present = present
}

// Present reports the presence flag
func (e *GameEngine) Present() bool {
	return e.present
}

// AdvanceElapsed adds play time while the player is present and the run is open
func (e *GameEngine) AdvanceElapsed(deltaMs int64) {
	if !e.present || e.state.Finished || deltaMs <= 0 {
		return
	}
	e.state.ElapsedMs += deltaMs
}

// LastMove returns the most recently committed executor move, if any
func (e *GameEngine) LastMove() *Move {
	if e.lastMove == nil {
		return nil
	}
	m := *e.lastMove
	return &m
}

// Selection returns the pending move anchor, if any
func (e *GameEngine) Selection() *Location {
	if e.selection == nil {
		return nil
	}
	sel := *e.selection
	return &sel
}

// Select toggles the pending move anchor. Face-down cards and empty reserve
// slots cannot be selected; selecting the current anchor again clears it.
func (e *GameEngine) Select(loc Location) bool {
	e.clearHighlights()
	switch loc.Kind {
	case LocTableau:
		if !e.validTableau(loc.Index) {
			return false
		}
		pile := e.state.Tableau[loc.Index]
		if loc.CardIndex < 0 || loc.CardIndex >= len(pile) || !pile[loc.CardIndex].FaceUp {
			return false
		}
	case LocReserve:
		if !e.validReserve(loc.Index) || e.state.Reserve[loc.Index] == nil {
			return false
		}
		loc.CardIndex = 0
	default:
		return false
	}

	if e.selection != nil && *e.selection == loc {
		e.selection = nil
		return true
	}
	e.selection = &loc
	return true
}

// ClearSelection drops the pending anchor
func (e *GameEngine) ClearSelection() {
	e.selection = nil
}

// Drop commits the pending selection to target
func (e *GameEngine) Drop(target Location) error {
	if e.selection == nil {
		return invalid(MovePileToPile, "nothing selected")
	}
	return e.MoveTo(*e.selection, target)
}

func (e *GameEngine) persist() {
	if e.hooks.Persister == nil {
		return
	}
	if err := e.hooks.Persister.Save(e.Snapshot()); err != nil {
		logrus.WithFields(logrus.Fields{
			"run_id": e.state.RunID,
			"moves":  e.state.MoveCount,
		}).WithError(err).Warn("failed to persist game snapshot")
	}
}

func (e *GameEngine) clearHighlights() {
	if e.hooks.Presenter != nil {
		e.hooks.Presenter.ClearHighlights()
	}
}

func (e *GameEngine) validTableau(i int) bool {
	return i >= 0 && i < len(e.state.Tableau)
}

func (e *GameEngine) validFoundation(i int) bool {
	return i >= 0 && i < len(e.state.Foundations)
}

func (e *GameEngine) validReserve(i int) bool {
	return i >= 0 && i < len(e.state.Reserve)
}
