package engine

import (
	"math/rand"

	"github.com/google/uuid"
)

// NewCard builds a face-up card from a suit and a value in 1..13
func NewCard(suit Suit, value int) Card {
	rank := ""
	if value >= AceValue && value <= KingValue {
		rank = Ranks[value-1]
	}
	return Card{Suit: suit, Rank: rank, Value: value, FaceUp: true}
}

// RankValue returns the value for a rank symbol, or 0 if unknown
func RankValue(rank string) int {
	for i, r := range Ranks {
		if r == rank {
			return i + 1
		}
	}
	return 0
}

// IsKing reports whether the card has the highest rank
func (c Card) IsKing() bool {
	return c.Value == KingValue
}

// String renders the card as rank followed by suit, e.g. "10♥"
func (c Card) String() string {
	return c.Rank + string(c.Suit)
}

// Valid reports whether the card is well-formed: a known suit and rank with a
// value in 1..13 that agrees with the rank
func (c Card) Valid() bool {
	knownSuit := false
	for _, s := range Suits {
		if c.Suit == s {
			knownSuit = true
			break
		}
	}
	if !knownSuit {
		return false
	}
	if c.Value < AceValue || c.Value > KingValue {
		return false
	}
	return RankValue(c.Rank) == c.Value
}

// Top returns the exposed card of the pile
func (p Pile) Top() (Card, bool) {
	if len(p) == 0 {
		return Card{}, false
	}
	return p[len(p)-1], true
}

func (p Pile) clone() Pile {
	if p == nil {
		return Pile{}
	}
	out := make(Pile, len(p))
	copy(out, p)
	return out
}

// NewDeck returns the 52 cards in suit-major order, all face up
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for v := AceValue; v <= KingValue; v++ {
			deck = append(deck, NewCard(s, v))
		}
	}
	return deck
}

// Shuffle randomizes the deck in place using Fisher-Yates
func Shuffle(deck []Card, rng *rand.Rand) {
	for i := len(deck) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}

// Deal shuffles a fresh deck with the given seed and lays it out: pile i gets
// i face-down cards followed by 7-i face-up cards, and the last three cards
// fill the reserve
func Deal(seed int64) *GameState {
	deck := NewDeck()
	Shuffle(deck, rand.New(rand.NewSource(seed)))

	state := NewEmptyState()
	state.RunID = uuid.NewString()
	state.Seed = seed

	pop := func() Card {
		c := deck[len(deck)-1]
		deck = deck[:len(deck)-1]
		return c
	}

	for i := 0; i < NumTableau; i++ {
		for d := 0; d < i; d++ {
			c := pop()
			c.FaceUp = false
			state.Tableau[i] = append(state.Tableau[i], c)
		}
		for u := 0; u < NumTableau-i; u++ {
			c := pop()
			c.FaceUp = true
			state.Tableau[i] = append(state.Tableau[i], c)
		}
	}
	for k := 0; k < NumReserve; k++ {
		c := pop()
		c.FaceUp = true
		state.Reserve[k] = &c
	}

	return state
}

// NewEmptyState returns a table with no cards, correctly sized
func NewEmptyState() *GameState {
	state := &GameState{
		Tableau:     make([]Pile, NumTableau),
		Foundations: make([]Pile, NumFoundations),
		Reserve:     make([]*Card, NumReserve),
	}
	for i := range state.Tableau {
		state.Tableau[i] = Pile{}
	}
	for i := range state.Foundations {
		state.Foundations[i] = Pile{}
	}
	return state
}

// Clone returns a deep copy of the state
func (gs *GameState) Clone() *GameState {
	out := *gs
	out.Tableau = make([]Pile, len(gs.Tableau))
	for i, p := range gs.Tableau {
		out.Tableau[i] = p.clone()
	}
	out.Foundations = make([]Pile, len(gs.Foundations))
	for i, p := range gs.Foundations {
		out.Foundations[i] = p.clone()
	}
	out.Reserve = make([]*Card, len(gs.Reserve))
	for i, c := range gs.Reserve {
		if c != nil {
			cc := *c
			out.Reserve[i] = &cc
		}
	}
	return &out
}

// CardCount returns the number of cards on the table
func (gs *GameState) CardCount() int {
	n := 0
	for _, p := range gs.Tableau {
		n += len(p)
	}
	for _, p := range gs.Foundations {
		n += len(p)
	}
	for _, c := range gs.Reserve {
		if c != nil {
			n++
		}
	}
	return n
}
