package engine

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// EncodeTransfer renders a snapshot as a portable text blob: the JSON form,
// URL-escaped, then base64 encoded
func EncodeTransfer(s *Snapshot) (string, error) {
	if s == nil {
		return "", fmt.Errorf("snapshot cannot be nil")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString([]byte(url.QueryEscape(string(data)))), nil
}

// DecodeTransfer parses a blob produced by EncodeTransfer and validates it the
// same way persisted snapshots are validated
func DecodeTransfer(text string) (*Snapshot, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("%w: not base64: %v", ErrCorruptSnapshot, err)
	}
	unescaped, err := url.QueryUnescape(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: bad escaping: %v", ErrCorruptSnapshot, err)
	}

	var s Snapshot
	if err := json.Unmarshal([]byte(unescaped), &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if err := ValidateSnapshot(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Export returns the transfer blob for the current game
func (e *GameEngine) Export() (string, error) {
	return EncodeTransfer(e.Snapshot())
}

// Import replaces the game with a decoded blob. Nothing changes on error.
func (e *GameEngine) Import(text string) error {
	s, err := DecodeTransfer(text)
	if err != nil {
		return err
	}
	if err := e.Restore(s); err != nil {
		return err
	}
	e.clearHighlights()
	e.persist()
	return nil
}
