package stats

import (
	"context"
	"fmt"
	"sync"

	"github.com/wricardo/reserve-solitaire/game/engine"
)

// MemoryStore keeps the history in process memory
type MemoryStore struct {
	history []engine.Outcome
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, outcome engine.Outcome, max int) error {
	if !validOutcome(outcome) {
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome.Outcome)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = trim(append(s.history, outcome), max)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]engine.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]engine.Outcome, len(s.history))
	copy(out, s.history)
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	return nil
}
