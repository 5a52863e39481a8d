package engine

import (
	"errors"
	"fmt"
)

// ErrCorruptSnapshot marks persisted or imported state that failed structural validation
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// ValidateState checks pile counts and card well-formedness. Card uniqueness
// is left to CheckDeckIntegrity.
func ValidateState(gs *GameState) error {
	if gs == nil {
		return fmt.Errorf("%w: state is nil", ErrCorruptSnapshot)
	}
	if len(gs.Tableau) != NumTableau {
		return fmt.Errorf("%w: expected %d tableau piles, got %d", ErrCorruptSnapshot, NumTableau, len(gs.Tableau))
	}
	if len(gs.Foundations) != NumFoundations {
		return fmt.Errorf("%w: expected %d foundations, got %d", ErrCorruptSnapshot, NumFoundations, len(gs.Foundations))
	}
	if len(gs.Reserve) != NumReserve {
		return fmt.Errorf("%w: expected %d reserve slots, got %d", ErrCorruptSnapshot, NumReserve, len(gs.Reserve))
	}

	for i, p := range gs.Tableau {
		for j, c := range p {
			if !c.Valid() {
				return fmt.Errorf("%w: tableau %d card %d is malformed", ErrCorruptSnapshot, i, j)
			}
		}
	}
	for i, p := range gs.Foundations {
		for j, c := range p {
			if !c.Valid() {
				return fmt.Errorf("%w: foundation %d card %d is malformed", ErrCorruptSnapshot, i, j)
			}
		}
	}
	for i, c := range gs.Reserve {
		if c != nil && !c.Valid() {
			return fmt.Errorf("%w: reserve slot %d is malformed", ErrCorruptSnapshot, i)
		}
	}
	if gs.MoveCount < 0 || gs.UndoCount < 0 || gs.ElapsedMs < 0 {
		return fmt.Errorf("%w: negative counters", ErrCorruptSnapshot)
	}
	return nil
}

// ValidateSnapshot validates the live state and every history entry
func ValidateSnapshot(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("%w: snapshot is nil", ErrCorruptSnapshot)
	}
	if err := ValidateState(&s.GameState); err != nil {
		return err
	}
	for i := range s.History {
		if err := ValidateState(&s.History[i]); err != nil {
			return fmt.Errorf("history entry %d: %w", i, err)
		}
	}
	return nil
}

// CheckDeckIntegrity verifies that the table holds each of the 52 cards exactly once
func CheckDeckIntegrity(gs *GameState) error {
	seen := make(map[string]bool, DeckSize)
	add := func(c Card) error {
		key := c.String()
		if seen[key] {
			return fmt.Errorf("duplicate card %s", key)
		}
		seen[key] = true
		return nil
	}

	for _, p := range gs.Tableau {
		for _, c := range p {
			if err := add(c); err != nil {
				return err
			}
		}
	}
	for _, p := range gs.Foundations {
		for _, c := range p {
			if err := add(c); err != nil {
				return err
			}
		}
	}
	for _, c := range gs.Reserve {
		if c != nil {
			if err := add(*c); err != nil {
				return err
			}
		}
	}
	if len(seen) != DeckSize {
		return fmt.Errorf("expected %d cards, found %d", DeckSize, len(seen))
	}
	return nil
}

// CheckFoundations verifies each foundation starts at an ace, ascends by one
// and stays in a single suit
func CheckFoundations(gs *GameState) error {
	for i, p := range gs.Foundations {
		for j, c := range p {
			if c.Value != j+1 {
				return fmt.Errorf("foundation %d: card %d has value %d", i, j, c.Value)
			}
			if j > 0 && c.Suit != p[0].Suit {
				return fmt.Errorf("foundation %d: mixed suits %s and %s", i, p[0].Suit, c.Suit)
			}
		}
	}
	return nil
}
