package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wricardo/reserve-solitaire/game/engine"
	"github.com/wricardo/reserve-solitaire/game/service"
	"github.com/wricardo/reserve-solitaire/game/stats"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	saves    map[string]int
	seed     int64
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
		saves:    make(map[string]int),
		seed:     1,
	}
}

func (m *MockSessionManager) Create(id, profileName string, profile *engine.Profile) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngineWithSeed(profile, m.seed)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		ProfileName:    profileName,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = session
	return session, nil
}

// Put installs a session around a prepared state
func (m *MockSessionManager) Put(t *testing.T, id string, state *engine.GameState) *service.Session {
	t.Helper()
	eng, err := engine.NewEngineFromState(engine.DefaultProfile(), state)
	if err != nil {
		t.Fatalf("Failed to build engine: %v", err)
	}
	sess := &service.Session{ID: id, Engine: eng, ProfileName: "classic", CreatedAt: time.Now(), LastAccessedAt: time.Now()}
	m.sessions[id] = sess
	return sess
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return errors.New("session not found")
}

func (m *MockSessionManager) Save(id string) error {
	m.saves[id]++
	return nil
}

func (m *MockSessionManager) SaveAllSessions() error {
	for id := range m.sessions {
		m.saves[id]++
	}
	return nil
}

func (m *MockSessionManager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	profiles map[string]*engine.Profile
}

func NewMockConfigManager() *MockConfigManager {
	noDouble := engine.DefaultProfile()
	noDouble.Name = "strict"
	noDouble.DoubleClickFoundation = false

	return &MockConfigManager{
		profiles: map[string]*engine.Profile{
			"classic": engine.DefaultProfile(),
			"strict":  noDouble,
		},
	}
}

func (m *MockConfigManager) LoadProfile(name string) (*engine.Profile, error) {
	if p, ok := m.profiles[name]; ok {
		return p, nil
	}
	return nil, errors.New("profile not found")
}

func (m *MockConfigManager) ListProfiles() ([]*service.ProfileInfo, error) {
	var out []*service.ProfileInfo
	for id, p := range m.profiles {
		out = append(out, &service.ProfileInfo{ProfileID: id, Name: p.Name, SuitStyle: p.SuitStyle})
	}
	return out, nil
}

func (m *MockConfigManager) GetDefault() *engine.Profile {
	return m.profiles["classic"]
}

func (m *MockConfigManager) SaveProfile(name string, p *engine.Profile) error {
	if err := engine.ValidateProfile(p); err != nil {
		return err
	}
	m.profiles[name] = p
	return nil
}

// MockPresenter records presentation calls
type MockPresenter struct {
	sources, targets []engine.Location
	commits          int
}

func (p *MockPresenter) HighlightSource(loc engine.Location) { p.sources = append(p.sources, loc) }
func (p *MockPresenter) HighlightTarget(loc engine.Location) { p.targets = append(p.targets, loc) }
func (p *MockPresenter) ClearHighlights()                    {}
func (p *MockPresenter) MoveCommitted(engine.Move, bool)     { p.commits++ }

func card(s engine.Suit, v int) engine.Card {
	return engine.NewCard(s, v)
}

func slot(s engine.Suit, v int) *engine.Card {
	c := engine.NewCard(s, v)
	return &c
}

// playableState has a run move, a reserve slot to fill and nothing for the foundations
func playableState() *engine.GameState {
	gs := engine.NewEmptyState()
	gs.Tableau[0] = engine.Pile{card(engine.Clubs, 9), card(engine.Spades, 6)}
	gs.Tableau[1] = engine.Pile{card(engine.Spades, 5)}
	gs.Tableau[2] = engine.Pile{card(engine.Spades, 9)}
	gs.Tableau[3] = engine.Pile{card(engine.Hearts, 3)}
	gs.Tableau[4] = engine.Pile{card(engine.Hearts, 5)}
	gs.Tableau[5] = engine.Pile{card(engine.Hearts, 7)}
	gs.Tableau[6] = engine.Pile{card(engine.Hearts, 9)}
	gs.Reserve[0] = slot(engine.Diamonds, 3)
	gs.Reserve[1] = slot(engine.Diamonds, 5)
	return gs
}

func nearlyWon() *engine.GameState {
	gs := engine.NewEmptyState()
	for i, s := range engine.Suits {
		for v := 1; v <= 13; v++ {
			if s == engine.Clubs && v == 13 {
				break
			}
			gs.Foundations[i] = append(gs.Foundations[i], card(s, v))
		}
	}
	gs.Reserve[0] = slot(engine.Clubs, 13)
	return gs
}

func newService(t *testing.T) (service.GameService, *MockSessionManager, *MockPresenter, *stats.Recorder) {
	t.Helper()
	sessions := NewMockSessionManager()
	presenter := &MockPresenter{}
	recorder := stats.NewRecorder(stats.NewMemoryStore(), 100)
	svc := service.NewGameService(sessions, NewMockConfigManager(),
		service.WithRecorder(recorder),
		service.WithPresenters(func(string) engine.Presenter { return presenter }),
	)
	return svc, sessions, presenter, recorder
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		profileName string
		wantProfile string
		wantErr     bool
	}{
		{"default profile", "", "classic", false},
		{"named profile", "strict", "strict", false},
		{"missing profile", "nonexistent", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := newService(t)
			info, err := svc.CreateSession(ctx, tt.profileName)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if info.ProfileName != tt.wantProfile {
				t.Errorf("Expected profile %s, got %s", tt.wantProfile, info.ProfileName)
			}
			if info.GameState.CardCount() != engine.DeckSize {
				t.Errorf("Expected a full deal, got %d cards", info.GameState.CardCount())
			}
		})
	}
}

func TestGameService_CreateSessionCopiesProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService(t)

	a, err := svc.CreateSession(ctx, "classic")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	b, err := svc.CreateSession(ctx, "classic")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	style := "dark"
	if _, err := svc.SetPreferences(ctx, a.ID, service.Preferences{SuitStyle: &style}); err != nil {
		t.Fatalf("SetPreferences failed: %v", err)
	}

	other, err := svc.GetSession(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if other.Profile.SuitStyle != "normal" {
		t.Errorf("Expected other session to keep its style, got %s", other.Profile.SuitStyle)
	}
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		req         service.MoveRequest
		wantSuccess bool
		wantErr     error
	}{
		{
			name:        "pile to pile",
			req:         service.MoveRequest{Kind: service.MoveKindPileToPile, From: engine.Location{Kind: engine.LocTableau, Index: 1}, To: &engine.Location{Kind: engine.LocTableau, Index: 0}},
			wantSuccess: true,
		},
		{
			name:        "invalid pile to pile",
			req:         service.MoveRequest{Kind: service.MoveKindPileToPile, From: engine.Location{Kind: engine.LocTableau, Index: 3}, To: &engine.Location{Kind: engine.LocTableau, Index: 0}},
			wantSuccess: false,
		},
		{
			name:        "pile to reserve",
			req:         service.MoveRequest{Kind: service.MoveKindPileToReserve, From: engine.Location{Kind: engine.LocTableau, Index: 0}, To: &engine.Location{Kind: engine.LocReserve, Index: 2}},
			wantSuccess: true,
		},
		{
			name:        "auto move",
			req:         service.MoveRequest{Kind: service.MoveKindAuto, From: engine.Location{Kind: engine.LocTableau, Index: 1}},
			wantSuccess: true,
		},
		{
			name:    "missing target",
			req:     service.MoveRequest{Kind: service.MoveKindReserveToPile, From: engine.Location{Kind: engine.LocReserve, Index: 0}},
			wantErr: service.ErrMissingTarget,
		},
		{
			name:    "unknown kind",
			req:     service.MoveRequest{Kind: "teleport"},
			wantErr: service.ErrUnknownMoveKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sessions, presenter, _ := newService(t)
			sessions.Put(t, "s1", playableState())

			result, err := svc.Move(ctx, "s1", tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Move() error = %v", err)
			}
			if result.Success != tt.wantSuccess {
				t.Errorf("Expected success=%v, got %v (%s)", tt.wantSuccess, result.Success, result.Message)
			}
			if !tt.wantSuccess && result.Reason == "" {
				t.Error("Expected a rejection reason")
			}
			if tt.wantSuccess {
				if result.Move == nil || len(result.Events) == 0 {
					t.Error("Expected committed move and events")
				}
				if sessions.saves["s1"] == 0 {
					t.Error("Expected the session to be persisted")
				}
				if presenter.commits == 0 {
					t.Error("Expected presenter to be notified")
				}
			}
		})
	}
}

func TestGameService_AutoMoveDisabled(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService(t)

	info, err := svc.CreateSession(ctx, "strict")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	_, err = svc.Move(ctx, info.ID, service.MoveRequest{Kind: service.MoveKindAuto, From: engine.Location{Kind: engine.LocReserve, Index: 0}})
	if !errors.Is(err, service.ErrAutoMoveDisabled) {
		t.Errorf("Expected ErrAutoMoveDisabled, got %v", err)
	}
}

func TestGameService_WinRecordsStats(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _, _ := newService(t)
	sessions.Put(t, "win", nearlyWon())

	result, err := svc.Move(ctx, "win", service.MoveRequest{Kind: service.MoveKindToFoundation, From: engine.Location{Kind: engine.LocReserve, Index: 0}})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if result.Status != engine.StatusWin {
		t.Fatalf("Expected win, got %s", result.Status)
	}

	foundWin := false
	for _, ev := range result.Events {
		if ev.Type == "win" {
			foundWin = true
		}
	}
	if !foundWin {
		t.Error("Expected a win event")
	}

	st, err := svc.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if st.Summary.TotalGames != 1 || st.Summary.Wins != 1 {
		t.Errorf("Expected one recorded win, got %+v", st.Summary)
	}

	if _, err := svc.CheckState(ctx, "win"); err != nil {
		t.Fatalf("CheckState failed: %v", err)
	}
	st, _ = svc.GetStats(ctx)
	if st.Summary.TotalGames != 1 {
		t.Errorf("Expected win to be recorded once, got %d", st.Summary.TotalGames)
	}

	if err := svc.ResetStats(ctx); err != nil {
		t.Fatalf("ResetStats failed: %v", err)
	}
	st, _ = svc.GetStats(ctx)
	if st.Summary.TotalGames != 0 {
		t.Errorf("Expected empty stats after reset, got %d", st.Summary.TotalGames)
	}
}

func TestGameService_UndoAndHint(t *testing.T) {
	ctx := context.Background()
	svc, sessions, presenter, _ := newService(t)
	sessions.Put(t, "s1", playableState())

	undo, err := svc.Undo(ctx, "s1")
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if undo.Success {
		t.Error("Expected undo with empty history to fail")
	}

	hint, err := svc.Hint(ctx, "s1")
	if err != nil {
		t.Fatalf("Hint failed: %v", err)
	}
	if !hint.Found || hint.Move.Category != 4 {
		t.Fatalf("Expected a tableau hint, got %+v", hint)
	}
	if len(presenter.sources) != 1 || len(presenter.targets) != 1 {
		t.Error("Expected hint to be highlighted")
	}

	res, err := svc.Drop(ctx, "s1", hint.Move.To)
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if res.Success {
		t.Error("Expected drop without a selection to be rejected")
	}

	sel, err := svc.Select(ctx, "s1", hint.Move.From)
	if err != nil || !sel.Accepted {
		t.Fatalf("Select failed: %v %+v", err, sel)
	}
	res, err = svc.Drop(ctx, "s1", hint.Move.To)
	if err != nil || !res.Success {
		t.Fatalf("Drop failed: %v %+v", err, res)
	}

	undo, err = svc.Undo(ctx, "s1")
	if err != nil || !undo.Success {
		t.Fatalf("Expected undo to succeed: %v", err)
	}
	if undo.GameState.UndoCount != 1 {
		t.Errorf("Expected undo count 1, got %d", undo.GameState.UndoCount)
	}
}

func TestGameService_GiveUpAndNewGame(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _, _ := newService(t)
	sessions.Put(t, "s1", playableState())

	res, err := svc.GiveUp(ctx, "s1")
	if err != nil {
		t.Fatalf("GiveUp failed: %v", err)
	}
	if res.Success {
		t.Error("Expected give up on an untouched run to do nothing")
	}

	if _, err := svc.Move(ctx, "s1", service.MoveRequest{Kind: service.MoveKindPileToPile, From: engine.Location{Kind: engine.LocTableau, Index: 1}, To: &engine.Location{Kind: engine.LocTableau, Index: 0}}); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	seed := int64(77)
	res, err = svc.NewGame(ctx, "s1", &seed)
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	if res.GameState.Seed != seed || res.GameState.MoveCount != 0 {
		t.Errorf("Expected fresh deal with seed %d, got seed %d moves %d", seed, res.GameState.Seed, res.GameState.MoveCount)
	}
	if len(res.Events) < 2 || res.Events[0].Type != "loss" {
		t.Errorf("Expected abandoned run loss event first, got %+v", res.Events)
	}

	st, _ := svc.GetStats(ctx)
	if st.Summary.Losses < 1 || st.History[0].MoveCount != 1 {
		t.Errorf("Expected the abandoned run to be recorded, got %+v", st.History)
	}
}

func TestGameService_ExportImport(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _, _ := newService(t)
	sessions.Put(t, "a", playableState())
	b, err := svc.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	blob, err := svc.Export(ctx, "a")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	state, err := svc.Import(ctx, b.ID, blob)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if state.CardCount() != playableState().CardCount() {
		t.Errorf("Expected imported layout, got %d cards", state.CardCount())
	}

	if _, err := svc.Import(ctx, b.ID, "garbage"); !errors.Is(err, engine.ErrCorruptSnapshot) {
		t.Errorf("Expected ErrCorruptSnapshot, got %v", err)
	}
}

func TestGameService_TickElapsed(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _, _ := newService(t)
	sessions.Put(t, "here", playableState())
	sessions.Put(t, "away", playableState())

	if _, err := svc.SetPresence(ctx, "here", true); err != nil {
		t.Fatalf("SetPresence failed: %v", err)
	}

	if n := svc.TickElapsed(ctx, 1500*time.Millisecond); n != 1 {
		t.Errorf("Expected one session advanced, got %d", n)
	}

	here, _ := svc.GetGameState(ctx, "here")
	away, _ := svc.GetGameState(ctx, "away")
	if here.ElapsedMs != 1500 || away.ElapsedMs != 0 {
		t.Errorf("Expected 1500/0 elapsed, got %d/%d", here.ElapsedMs, away.ElapsedMs)
	}
	if sessions.saves["here"] == 0 {
		t.Error("Expected ticked session to be persisted")
	}
}

func TestGameService_SetPreferencesValidates(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _, _ := newService(t)
	sessions.Put(t, "s1", playableState())

	bad := "rainbow"
	if _, err := svc.SetPreferences(ctx, "s1", service.Preferences{SuitStyle: &bad}); err == nil {
		t.Error("Expected invalid suit style to be rejected")
	}

	off := false
	p, err := svc.SetPreferences(ctx, "s1", service.Preferences{DoubleClickFoundation: &off})
	if err != nil {
		t.Fatalf("SetPreferences failed: %v", err)
	}
	if p.DoubleClickFoundation {
		t.Error("Expected double-click to be disabled")
	}
}

func TestGameService_SessionNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService(t)

	if _, err := svc.GetGameState(ctx, "nope"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.Move(ctx, "nope", service.MoveRequest{Kind: service.MoveKindAuto}); err == nil {
		t.Error("Expected error for unknown session")
	}
	if err := svc.DeleteSession(ctx, "nope"); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestGameService_ListSessions(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService(t)

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateSession(ctx, ""); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}
	list, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("Expected 3 sessions, got %d", len(list))
	}
}

// deadState has no legal move: no ace for the foundations, no king for the
// empty piles, a full reserve and nothing that builds on the five of spades
func deadState() *engine.GameState {
	gs := engine.NewEmptyState()
	gs.Tableau[0] = engine.Pile{engine.NewCard(engine.Spades, 5)}
	r0 := engine.NewCard(engine.Diamonds, 3)
	r1 := engine.NewCard(engine.Hearts, 4)
	r2 := engine.NewCard(engine.Clubs, 7)
	gs.Reserve = []*engine.Card{&r0, &r1, &r2}
	return gs
}

func TestGameService_RecoveredDealIsEvaluated(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _, recorder := newService(t)
	sess := sessions.Put(t, "rec", deadState())
	sess.Recovered = true

	if _, err := svc.Hint(ctx, "rec"); err != nil {
		t.Fatalf("Hint failed: %v", err)
	}
	if sess.Recovered {
		t.Error("Expected the recovered flag to be cleared")
	}

	history, err := recorder.History(ctx)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].Outcome != engine.OutcomeLoss {
		t.Fatalf("Expected one recorded loss, got %+v", history)
	}

	// A second call must not record again
	if _, err := svc.Hint(ctx, "rec"); err != nil {
		t.Fatalf("Hint failed: %v", err)
	}
	history, _ = recorder.History(ctx)
	if len(history) != 1 {
		t.Errorf("Expected a single outcome, got %d", len(history))
	}
}

func TestGameService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _, _ := newService(t)
	sessions.Put(t, "fresh", playableState())
	stale := sessions.Put(t, "stale", playableState())
	stale.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	if err := svc.SaveAll(ctx); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	if sessions.saves["fresh"] != 1 || sessions.saves["stale"] != 1 {
		t.Errorf("Expected every session saved once, got %v", sessions.saves)
	}

	if n := svc.EvictIdle(ctx, time.Hour); n != 1 {
		t.Errorf("Expected one idle session evicted, got %d", n)
	}
	if _, err := svc.GetGameState(ctx, "stale"); err == nil {
		t.Error("Expected stale session to be evicted")
	}
	if _, err := svc.GetGameState(ctx, "fresh"); err != nil {
		t.Errorf("Expected fresh session to stay, got %v", err)
	}
}
