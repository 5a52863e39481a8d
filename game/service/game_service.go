package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/reserve-solitaire/game/engine"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrUnknownMoveKind  = errors.New("unknown move kind")
	ErrAutoMoveDisabled = errors.New("double-click moves are disabled for this profile")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, profileName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error)
	Undo(ctx context.Context, sessionID string) (*MoveResult, error)
	Hint(ctx context.Context, sessionID string) (*HintResult, error)
	AutoPlay(ctx context.Context, sessionID string) (*MoveResult, error)
	GiveUp(ctx context.Context, sessionID string) (*MoveResult, error)
	NewGame(ctx context.Context, sessionID string, seed *int64) (*MoveResult, error)
	CheckState(ctx context.Context, sessionID string) (*MoveResult, error)

	// Selection
	Select(ctx context.Context, sessionID string, loc engine.Location) (*SelectionResult, error)
	ClearSelection(ctx context.Context, sessionID string) error
	Drop(ctx context.Context, sessionID string, target engine.Location) (*MoveResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	Export(ctx context.Context, sessionID string) (string, error)
	Import(ctx context.Context, sessionID, blob string) (*engine.GameState, error)
	SetPreferences(ctx context.Context, sessionID string, prefs Preferences) (*engine.Profile, error)

	// Clock
	SetPresence(ctx context.Context, sessionID string, present bool) (*engine.GameState, error)
	TickElapsed(ctx context.Context, delta time.Duration) int

	// Lifecycle
	SaveAll(ctx context.Context) error
	EvictIdle(ctx context.Context, maxAge time.Duration) int

	// Stats
	GetStats(ctx context.Context) (*StatsResult, error)
	ResetStats(ctx context.Context) error

	// Profiles
	ListProfiles(ctx context.Context) ([]*ProfileInfo, error)
	LoadProfile(ctx context.Context, profileName string) (*engine.Profile, error)
	SaveProfile(ctx context.Context, profileName string, profile *engine.Profile) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, profileName string, profile *engine.Profile) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
	SaveAllSessions() error
	CleanupExpiredSessions(maxAge time.Duration) int
}

// ConfigManager handles table profile loading
type ConfigManager interface {
	LoadProfile(name string) (*engine.Profile, error)
	ListProfiles() ([]*ProfileInfo, error)
	GetDefault() *engine.Profile
	SaveProfile(name string, profile *engine.Profile) error
}

// PresenterFactory returns the presentation sink for a session, or nil
type PresenterFactory func(sessionID string) engine.Presenter

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	ProfileName    string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	// Recovered marks a fresh deal that replaced an unreadable save. Its first
	// deal has not been evaluated yet.
	Recovered bool
}
