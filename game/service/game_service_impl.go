package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/reserve-solitaire/game/engine"
	"github.com/wricardo/reserve-solitaire/game/stats"
)

// ErrMissingTarget is returned when a move kind needs a destination and none was given
var ErrMissingTarget = errors.New("move target is required")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions   SessionManager
	configs    ConfigManager
	recorder   *stats.Recorder
	presenters PresenterFactory
	now        func() time.Time
	mu         sync.RWMutex
}

// Option configures optional collaborators of the game service
type Option func(*gameServiceImpl)

// WithRecorder sets the stats recorder that receives finished runs
func WithRecorder(r *stats.Recorder) Option {
	return func(s *gameServiceImpl) {
		s.recorder = r
	}
}

// WithPresenters sets the factory that supplies per-session presentation sinks
func WithPresenters(f PresenterFactory) Option {
	return func(s *gameServiceImpl) {
		s.presenters = f
	}
}

// WithClock overrides the clock used for seeds and event timestamps
func WithClock(now func() time.Time) Option {
	return func(s *gameServiceImpl) {
		s.now = now
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.recorder == nil {
		s.recorder = stats.NewRecorder(stats.NewMemoryStore(), engine.DefaultStatsHistory)
	}
	return s
}

// sessionSaver routes engine snapshots to the session manager
type sessionSaver struct {
	sessions SessionManager
	id       string
}

func (ss sessionSaver) Save(*engine.Snapshot) error {
	return ss.sessions.Save(ss.id)
}

// bind attaches the service collaborators to a session's engine
func (s *gameServiceImpl) bind(sess *Session) {
	hooks := engine.Hooks{
		Persister: sessionSaver{sessions: s.sessions, id: sess.ID},
		Outcomes:  s.recorder,
	}
	if s.presenters != nil {
		if p := s.presenters(sess.ID); p != nil {
			hooks.Presenter = p
		}
	}
	sess.Engine.SetHooks(hooks)
}

// lookup loads and touches a session
func (s *gameServiceImpl) lookup(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrSessionNotFound, sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// getSession is lookup plus hook binding; callers hold the write lock
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	s.bind(sess)
	if sess.Recovered {
		sess.Recovered = false
		sess.Engine.CheckState()
	}
	return sess, nil
}

func (s *gameServiceImpl) info(sess *Session) *SessionInfo {
	eng := sess.Engine
	return &SessionInfo{
		ID:             sess.ID,
		ProfileName:    sess.ProfileName,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      eng.GetState().Clone(),
		Profile:        eng.Profile(),
		Status:         eng.Status(),
		Present:        eng.Present(),
		Selection:      eng.Selection(),
		UndoAvailable:  eng.HistoryLen(),
	}
}

// resolveProfile loads the named profile or the default one
func (s *gameServiceImpl) resolveProfile(profileName string) (*engine.Profile, string, error) {
	if profileName == "" {
		p := s.configs.GetDefault()
		if p == nil {
			p = engine.DefaultProfile()
		}
		return p, p.Name, nil
	}

	p, err := s.configs.LoadProfile(profileName)
	if err == nil {
		return p, profileName, nil
	}

	available, listErr := s.configs.ListProfiles()
	if listErr == nil && len(available) > 0 {
		ids := make([]string, 0, len(available))
		for _, info := range available {
			ids = append(ids, info.ProfileID)
		}
		return nil, "", fmt.Errorf("profile '%s' not available (%v). Available profiles: %v", profileName, err, ids)
	}
	return nil, "", fmt.Errorf("failed to load profile %s: %w", profileName, err)
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, profileName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, name, err := s.resolveProfile(profileName)
	if err != nil {
		return nil, err
	}

	// Each session owns a copy so preference changes stay local
	own := *profile
	sess, err := s.sessions.Create("", name, &own)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.bind(sess)
	sess.Engine.CheckState()

	logrus.WithFields(logrus.Fields{
		"session": sess.ID,
		"profile": name,
		"seed":    sess.Engine.GetState().Seed,
	}).Info("session created")

	return s.info(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Move executes a single card movement
func (s *gameServiceImpl) Move(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	eng := sess.Engine

	needTarget := func() error {
		if req.To == nil {
			return fmt.Errorf("%w for %s", ErrMissingTarget, req.Kind)
		}
		return nil
	}

	wasFinished := eng.GetState().Finished
	var moveErr error
	switch req.Kind {
	case MoveKindPileToPile:
		if err := needTarget(); err != nil {
			return nil, err
		}
		moveErr = eng.MovePileToPile(req.From.Index, req.From.CardIndex, req.To.Index)
	case MoveKindReserveToPile:
		if err := needTarget(); err != nil {
			return nil, err
		}
		moveErr = eng.MoveReserveToPile(req.From.Index, req.To.Index)
	case MoveKindPileToReserve:
		if err := needTarget(); err != nil {
			return nil, err
		}
		moveErr = eng.MovePileToReserve(req.From.Index, req.To.Index)
	case MoveKindToFoundation:
		if req.To == nil {
			moveErr = eng.MoveToAnyFoundation(req.From)
		} else {
			moveErr = eng.MoveToFoundation(req.From, req.To.Index)
		}
	case MoveKindAuto:
		if !eng.Profile().DoubleClickFoundation {
			return nil, ErrAutoMoveDisabled
		}
		moveErr = eng.AutoMove(req.From)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMoveKind, req.Kind)
	}

	return s.moveResult(sess, moveErr, wasFinished), nil
}

// moveResult builds the response for an executor call
func (s *gameServiceImpl) moveResult(sess *Session, moveErr error, wasFinished bool) *MoveResult {
	eng := sess.Engine
	result := &MoveResult{
		Success:   moveErr == nil,
		GameState: eng.GetState().Clone(),
		Status:    eng.Status(),
	}

	if moveErr != nil {
		var me *engine.MoveError
		if errors.As(moveErr, &me) {
			result.Reason = me.Reason
		} else {
			result.Reason = moveErr.Error()
		}
		result.Message = "Move rejected: " + result.Reason
		return result
	}

	result.Move = eng.LastMove()
	result.Message = describeMove(result.Move)
	result.Events = append(result.Events, GameEvent{
		Type:      "move",
		Message:   result.Message,
		Timestamp: s.now(),
		Move:      result.Move,
	})
	result.Events = append(result.Events, s.outcomeEvents(sess, wasFinished)...)
	return result
}

// outcomeEvents reports a run that finished during the current call
func (s *gameServiceImpl) outcomeEvents(sess *Session, wasFinished bool) []GameEvent {
	state := sess.Engine.GetState()
	if wasFinished || !state.Finished {
		return nil
	}
	return []GameEvent{outcomeEvent(state, s.now())}
}

func outcomeEvent(state *engine.GameState, at time.Time) GameEvent {
	kind := engine.OutcomeLoss
	msg := "No moves left. The run is recorded as a loss."
	if state.IsWin() {
		kind = engine.OutcomeWin
		msg = fmt.Sprintf("You won in %d moves!", state.MoveCount)
	}
	return GameEvent{
		Type:      string(kind),
		Message:   msg,
		Timestamp: at,
		Outcome: &engine.Outcome{
			RunID:      state.RunID,
			Outcome:    kind,
			MoveCount:  state.MoveCount,
			UndoCount:  state.UndoCount,
			ElapsedMs:  state.ElapsedMs,
			FinishedAt: at.UnixMilli(),
		},
	}
}

// Undo restores the previous snapshot
func (s *gameServiceImpl) Undo(ctx context.Context, sessionID string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	ok := sess.Engine.Undo()
	result := &MoveResult{
		Success:   ok,
		GameState: sess.Engine.GetState().Clone(),
		Status:    sess.Engine.Status(),
		Message:   "Nothing to undo",
	}
	if ok {
		result.Message = "Move undone"
		result.Events = []GameEvent{{Type: "undo", Message: result.Message, Timestamp: s.now()}}
	}
	return result, nil
}

// Hint suggests a move and highlights it
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*HintResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	m := sess.Engine.Hint()
	if m == nil {
		return &HintResult{Found: false, Message: "No moves available"}, nil
	}
	return &HintResult{Found: true, Move: m, Message: describeMove(m)}, nil
}

// AutoPlay sends every playable card to the foundations
func (s *gameServiceImpl) AutoPlay(ctx context.Context, sessionID string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	wasFinished := sess.Engine.GetState().Finished
	moved := sess.Engine.AutoPlay()
	result := &MoveResult{
		Success:   moved > 0,
		GameState: sess.Engine.GetState().Clone(),
		Status:    sess.Engine.Status(),
		Moved:     moved,
		Message:   fmt.Sprintf("Auto-played %d cards", moved),
	}
	if moved > 0 {
		result.Events = append(result.Events, GameEvent{Type: "autoplay", Message: result.Message, Timestamp: s.now()})
	}
	result.Events = append(result.Events, s.outcomeEvents(sess, wasFinished)...)
	return result, nil
}

// GiveUp records the current run as a loss
func (s *gameServiceImpl) GiveUp(ctx context.Context, sessionID string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	ok := sess.Engine.GiveUp()
	result := &MoveResult{
		Success:   ok,
		GameState: sess.Engine.GetState().Clone(),
		Status:    sess.Engine.Status(),
		Message:   "Nothing to give up",
	}
	if ok {
		ev := outcomeEvent(sess.Engine.GetState(), s.now())
		ev.Message = "Run recorded as a loss"
		result.Message = ev.Message
		result.Events = []GameEvent{ev}
	}
	return result, nil
}

// NewGame deals a new hand, recording an abandoned run first
func (s *gameServiceImpl) NewGame(ctx context.Context, sessionID string, seed *int64) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	eng := sess.Engine

	var events []GameEvent
	if eng.HasActiveRun() {
		ev := outcomeEvent(eng.GetState(), s.now())
		ev.Message = "Previous run abandoned and recorded as a loss"
		events = append(events, ev)
	}

	dealSeed := s.now().UnixNano()
	if seed != nil {
		dealSeed = *seed
	}
	state := eng.NewGame(dealSeed)
	events = append(events, GameEvent{Type: "new_game", Message: "New game dealt", Timestamp: s.now()})
	events = append(events, s.outcomeEvents(sess, false)...)

	logrus.WithFields(logrus.Fields{
		"session": sess.ID,
		"seed":    dealSeed,
		"run_id":  state.RunID,
	}).Info("new game dealt")

	return &MoveResult{
		Success:   true,
		GameState: state.Clone(),
		Status:    eng.Status(),
		Message:   "New game dealt",
		Events:    events,
	}, nil
}

// CheckState re-evaluates the terminal state
func (s *gameServiceImpl) CheckState(ctx context.Context, sessionID string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	wasFinished := sess.Engine.GetState().Finished
	status := sess.Engine.CheckState()
	return &MoveResult{
		Success:   true,
		GameState: sess.Engine.GetState().Clone(),
		Status:    status,
		Message:   "Status: " + string(status),
		Events:    s.outcomeEvents(sess, wasFinished),
	}, nil
}

// Select toggles the selection cursor
func (s *gameServiceImpl) Select(ctx context.Context, sessionID string, loc engine.Location) (*SelectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	accepted := sess.Engine.Select(loc)
	return &SelectionResult{Accepted: accepted, Selection: sess.Engine.Selection()}, nil
}

// ClearSelection drops the selection cursor
func (s *gameServiceImpl) ClearSelection(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}
	sess.Engine.ClearSelection()
	return nil
}

// Drop commits the selection to a target
func (s *gameServiceImpl) Drop(ctx context.Context, sessionID string, target engine.Location) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	wasFinished := sess.Engine.GetState().Finished
	return s.moveResult(sess, sess.Engine.Drop(target), wasFinished), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState().Clone(), nil
}

// Export returns the transfer blob for a session
func (s *gameServiceImpl) Export(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return "", err
	}
	return sess.Engine.Export()
}

// Import replaces a session's game with a transfer blob
func (s *gameServiceImpl) Import(ctx context.Context, sessionID, blob string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.Import(blob); err != nil {
		return nil, fmt.Errorf("failed to import game: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"session": sess.ID,
		"run_id":  sess.Engine.GetState().RunID,
	}).Info("game imported")

	return sess.Engine.GetState().Clone(), nil
}

// SetPreferences updates the session's suit style and double-click setting
func (s *gameServiceImpl) SetPreferences(ctx context.Context, sessionID string, prefs Preferences) (*engine.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	updated := *sess.Engine.Profile()
	if prefs.SuitStyle != nil {
		updated.SuitStyle = *prefs.SuitStyle
	}
	if prefs.DoubleClickFoundation != nil {
		updated.DoubleClickFoundation = *prefs.DoubleClickFoundation
	}
	if err := sess.Engine.SetProfile(&updated); err != nil {
		return nil, err
	}

	if err := s.sessions.Save(sessionID); err != nil {
		logrus.WithError(err).WithField("session", sessionID).Warn("failed to persist preferences")
	}
	return sess.Engine.Profile(), nil
}

// SetPresence toggles whether the session's clock runs
func (s *gameServiceImpl) SetPresence(ctx context.Context, sessionID string, present bool) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Engine.SetPresence(present)
	return sess.Engine.GetState().Clone(), nil
}

// TickElapsed advances the clock of every present, unfinished session and
// persists it. It returns the number of sessions advanced.
func (s *gameServiceImpl) TickElapsed(ctx context.Context, delta time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := delta.Milliseconds()
	if ms <= 0 {
		return 0
	}

	advanced := 0
	for _, sess := range s.sessions.List() {
		eng := sess.Engine
		if !eng.Present() || eng.GetState().Finished {
			continue
		}
		eng.AdvanceElapsed(ms)
		if err := s.sessions.Save(sess.ID); err != nil {
			logrus.WithError(err).WithField("session", sess.ID).Warn("failed to persist elapsed time")
		}
		advanced++
	}
	return advanced
}

// SaveAll writes every in-memory session while holding the service lock
func (s *gameServiceImpl) SaveAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.SaveAllSessions()
}

// EvictIdle saves and drops sessions idle for longer than maxAge
func (s *gameServiceImpl) EvictIdle(ctx context.Context, maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.CleanupExpiredSessions(maxAge)
}

// GetStats returns the aggregate figures and history
func (s *gameServiceImpl) GetStats(ctx context.Context) (*StatsResult, error) {
	history, err := s.recorder.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return &StatsResult{Summary: stats.Compute(history), History: history}, nil
}

// ResetStats clears the stats history
func (s *gameServiceImpl) ResetStats(ctx context.Context) error {
	return s.recorder.Reset(ctx)
}

// ListProfiles returns available table profiles
func (s *gameServiceImpl) ListProfiles(ctx context.Context) ([]*ProfileInfo, error) {
	return s.configs.ListProfiles()
}

// LoadProfile loads a specific table profile
func (s *gameServiceImpl) LoadProfile(ctx context.Context, profileName string) (*engine.Profile, error) {
	return s.configs.LoadProfile(profileName)
}

// SaveProfile saves a table profile to disk
func (s *gameServiceImpl) SaveProfile(ctx context.Context, profileName string, profile *engine.Profile) error {
	return s.configs.SaveProfile(profileName, profile)
}

// describeMove renders a short human-readable description
func describeMove(m *engine.Move) string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s %d -> %s %d", m.Kind, m.From.Kind, m.From.Index, m.To.Kind, m.To.Index)
}
