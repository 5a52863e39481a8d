package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/reserve-solitaire/game/engine"
)

// FileStore keeps the history as a JSON array in a single file
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed store, creating the parent directory
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Append(ctx context.Context, outcome engine.Outcome, max int) error {
	if !validOutcome(outcome) {
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome.Outcome)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.read()
	history = trim(append(history, outcome), max)
	return s.write(history)
}

func (s *FileStore) List(ctx context.Context) ([]engine.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(), nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stats file: %w", err)
	}
	return nil
}

// read returns an empty history when the file is missing or unreadable
func (s *FileStore) read() []engine.Outcome {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).WithField("path", s.path).Warn("failed to read stats history")
		}
		return []engine.Outcome{}
	}

	var history []engine.Outcome
	if err := json.Unmarshal(data, &history); err != nil {
		logrus.WithError(err).WithField("path", s.path).Warn("discarding unreadable stats history")
		return []engine.Outcome{}
	}

	valid := history[:0]
	for _, o := range history {
		if validOutcome(o) {
			valid = append(valid, o)
		}
	}
	return valid
}

func (s *FileStore) write(history []engine.Outcome) error {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace stats file: %w", err)
	}
	return nil
}
