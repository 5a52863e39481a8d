package engine

// Suit is one of the four card suit symbols
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"

	// Table layout constants
	NumTableau     = 7
	NumFoundations = 4
	NumReserve     = 3
	NumRanks       = 13
	DeckSize       = 52

	KingValue = 13
	AceValue  = 1

	// MaxAutoPlayPasses bounds a single AutoPlay call
	MaxAutoPlayPasses = 50

	// MaxPersistedHistory is how many undo snapshots survive a reload
	MaxPersistedHistory = 150
)

// Suits lists the suits in deck-building order
var Suits = [4]Suit{Spades, Hearts, Diamonds, Clubs}

// Ranks lists the rank symbols; a rank's value is its index plus one
var Ranks = [NumRanks]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// Card represents a single playing card
type Card struct {
	Suit   Suit   `json:"suit"`
	Rank   string `json:"rank"`
	Value  int    `json:"value"`
	FaceUp bool   `json:"face_up"`
}

// Pile is an ordered sequence of cards; index 0 is the bottom card
type Pile []Card

// LocationKind identifies an area of the table
type LocationKind string

const (
	LocTableau    LocationKind = "tableau"
	LocFoundation LocationKind = "foundation"
	LocReserve    LocationKind = "reserve"
)

// Location addresses a pile, slot, or a card within a tableau pile
type Location struct {
	Kind      LocationKind `json:"kind"`
	Index     int          `json:"index"`
	CardIndex int          `json:"card_index,omitempty"`
}

// MoveKind names the executor operation a move maps to
type MoveKind string

const (
	MovePileToPile    MoveKind = "pile_to_pile"
	MoveReserveToPile MoveKind = "reserve_to_pile"
	MovePileToReserve MoveKind = "pile_to_reserve"
	MoveToFoundation  MoveKind = "to_foundation"
)

// Move is a candidate or committed card movement
type Move struct {
	Kind     MoveKind `json:"kind"`
	From     Location `json:"from"`
	To       Location `json:"to"`
	Category int      `json:"category,omitempty"` // hint category 1-5
}

// Status is the terminal classification of a position
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWin     Status = "win"
	StatusLoss    Status = "loss"
)

// OutcomeKind is the recorded result of a finished run
type OutcomeKind string

const (
	OutcomeWin  OutcomeKind = "win"
	OutcomeLoss OutcomeKind = "loss"
)

// Outcome is emitted exactly once per run when it finishes
type Outcome struct {
	RunID      string      `json:"run_id,omitempty"`
	Outcome    OutcomeKind `json:"outcome"`
	MoveCount  int         `json:"move_count"`
	UndoCount  int         `json:"undo_count"`
	ElapsedMs  int64       `json:"elapsed_ms"`
	FinishedAt int64       `json:"finished_at"` // unix milliseconds
}

// GameState represents the complete mutable table state
type GameState struct {
	RunID           string  `json:"run_id,omitempty"`
	Seed            int64   `json:"seed"`
	Tableau         []Pile  `json:"tableau"`
	Foundations     []Pile  `json:"foundations"`
	Reserve         []*Card `json:"reserve"`
	MoveCount       int     `json:"move_count"`
	UndoCount       int     `json:"undo_count"`
	ElapsedMs       int64   `json:"elapsed_ms"`
	Finished        bool    `json:"game_finished"`
	OutcomeRecorded bool    `json:"outcome_recorded"`
}

// Snapshot is the persisted form of a game: live state plus recent undo entries,
// most recent last
type Snapshot struct {
	GameState
	History []GameState `json:"history"`
}
