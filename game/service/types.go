package service

import (
	"time"

	"github.com/wricardo/reserve-solitaire/game/engine"
	"github.com/wricardo/reserve-solitaire/game/stats"
)

// Move request kinds accepted by GameService.Move
const (
	MoveKindPileToPile    = string(engine.MovePileToPile)
	MoveKindReserveToPile = string(engine.MoveReserveToPile)
	MoveKindPileToReserve = string(engine.MovePileToReserve)
	MoveKindToFoundation  = string(engine.MoveToFoundation)
	MoveKindAuto          = "auto"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	ProfileName    string            `json:"profile_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
	Profile        *engine.Profile   `json:"profile"`
	Status         engine.Status     `json:"status"`
	Present        bool              `json:"present"`
	Selection      *engine.Location  `json:"selection,omitempty"`
	UndoAvailable  int               `json:"undo_available"`
}

// MoveRequest describes a single card movement. To is optional for auto
// moves and for foundation moves that take the first accepting foundation.
type MoveRequest struct {
	Kind string           `json:"kind"`
	From engine.Location  `json:"from"`
	To   *engine.Location `json:"to,omitempty"`
}

// MoveResult contains the result of a state-changing operation
type MoveResult struct {
	Success   bool              `json:"success"`
	GameState *engine.GameState `json:"game_state"`
	Status    engine.Status     `json:"status"`
	Message   string            `json:"message"`
	Reason    string            `json:"reason,omitempty"`
	Move      *engine.Move      `json:"move,omitempty"`
	Moved     int               `json:"moved,omitempty"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// HintResult carries the suggested move, if any
type HintResult struct {
	Found   bool         `json:"found"`
	Move    *engine.Move `json:"move,omitempty"`
	Message string       `json:"message"`
}

// SelectionResult reports the selection cursor after a select request
type SelectionResult struct {
	Accepted  bool             `json:"accepted"`
	Selection *engine.Location `json:"selection,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "move", "undo", "autoplay", "win", "loss", "new_game", "import"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Move      *engine.Move    `json:"move,omitempty"`
	Outcome   *engine.Outcome `json:"outcome,omitempty"`
}

// Preferences updates the player-facing settings of a session's profile.
// Nil fields are left unchanged.
type Preferences struct {
	SuitStyle             *string `json:"suit_style,omitempty"`
	DoubleClickFoundation *bool   `json:"double_click_foundation,omitempty"`
}

// StatsResult contains the aggregate figures and the raw history
type StatsResult struct {
	Summary stats.Summary    `json:"summary"`
	History []engine.Outcome `json:"history"`
}

// ProfileInfo provides information about a table profile
type ProfileInfo struct {
	Filename              string `json:"filename"`
	ProfileID             string `json:"profile_id"` // The identifier to use for session creation
	Name                  string `json:"name"`       // Display name
	Description           string `json:"description"`
	SuitStyle             string `json:"suit_style"`
	DoubleClickFoundation bool   `json:"double_click_foundation"`
}
