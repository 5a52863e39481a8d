package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/reserve-solitaire/game/engine"
	"github.com/wricardo/reserve-solitaire/game/service"
)

// ErrQuotaExceeded is returned when a session does not fit the profile's
// storage quota even with its undo history dropped
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// FilePersistence implements SessionPersistence using file system storage
type FilePersistence struct {
	sessionsDir   string
	configManager service.ConfigManager
}

// NewFilePersistence creates a new file-based session persistence layer
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		sessionsDir:   sessionsDir,
		configManager: configManager,
	}, nil
}

// Save persists a session to a JSON file. When the profile sets a storage
// quota, the oldest undo entries are dropped until the file fits; the live
// state is always kept whole.
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	profile := session.Engine.Profile()
	data := PersistedSessionData{
		ID:             session.ID,
		ProfileName:    session.ProfileName,
		Profile:        profile,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Snapshot:       session.Engine.Snapshot(),
	}

	jsonData, err := fp.encodeWithinQuota(&data, profile.StorageQuotaBytes)
	if err != nil {
		return err
	}

	return writeFileAtomic(fp.getFilePath(session.ID), jsonData)
}

// encodeWithinQuota keeps the largest suffix of the undo history that fits.
// Encoded size grows with the number of entries kept, so the cut is found by
// binary search.
func (fp *FilePersistence) encodeWithinQuota(data *PersistedSessionData, quota int) ([]byte, error) {
	history := data.Snapshot.History
	encode := func(keep int) ([]byte, error) {
		data.Snapshot.History = history[len(history)-keep:]
		jsonData, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal session data: %w", err)
		}
		return jsonData, nil
	}

	full, err := encode(len(history))
	if err != nil || quota <= 0 || len(full) <= quota {
		return full, err
	}

	best, err := encode(0)
	if err != nil {
		return nil, err
	}
	if len(best) > quota {
		return nil, fmt.Errorf("%w: session %s needs %d bytes, quota is %d", ErrQuotaExceeded, data.ID, len(best), quota)
	}

	// best holds the encoding for lo entries; hi entries never fit
	lo, hi := 0, len(history)
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		jsonData, err := encode(mid)
		if err != nil {
			return nil, err
		}
		if len(jsonData) <= quota {
			lo, best = mid, jsonData
		} else {
			hi = mid
		}
	}
	data.Snapshot.History = history[len(history)-lo:]

	logrus.WithFields(logrus.Fields{
		"session": data.ID,
		"history": lo,
		"dropped": len(history) - lo,
		"quota":   quota,
	}).Debug("shrinking persisted history to fit quota")
	return best, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load retrieves a session from a JSON file. A file that fails validation is
// removed and replaced by a fresh deal under the same ID and profile.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	filePath := fp.getFilePath(id)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, ErrSessionNotFound
	}

	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	decodeErr := json.Unmarshal(jsonData, &data)
	if decodeErr == nil && data.Snapshot == nil {
		decodeErr = fmt.Errorf("%w: snapshot missing", engine.ErrCorruptSnapshot)
	}
	if decodeErr == nil {
		decodeErr = engine.ValidateSnapshot(data.Snapshot)
	}

	profile, profileName := fp.resolveProfile(&data)
	gameEngine, err := engine.NewEngine(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}

	if decodeErr == nil {
		decodeErr = gameEngine.Restore(data.Snapshot)
	}
	if decodeErr != nil {
		logrus.WithFields(logrus.Fields{
			"session": id,
			"file":    filePath,
		}).WithError(decodeErr).Warn("discarding corrupt session file, dealing a fresh game")
		if err := os.Remove(filePath); err != nil {
			logrus.WithError(err).WithField("file", filePath).Warn("failed to remove corrupt session file")
		}
		now := time.Now()
		data.CreatedAt, data.LastAccessedAt = now, now
	}

	return &service.Session{
		ID:             id,
		Engine:         gameEngine,
		ProfileName:    profileName,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
		Recovered:      decodeErr != nil,
	}, nil
}

// resolveProfile prefers the session's own profile copy, then the named
// profile, then the default
func (fp *FilePersistence) resolveProfile(data *PersistedSessionData) (*engine.Profile, string) {
	if data.Profile != nil && engine.ValidateProfile(data.Profile) == nil {
		return data.Profile, data.ProfileName
	}
	if data.ProfileName != "" {
		if p, err := fp.configManager.LoadProfile(data.ProfileName); err == nil {
			own := *p
			return &own, data.ProfileName
		}
	}
	p := fp.configManager.GetDefault()
	if p == nil {
		p = engine.DefaultProfile()
	}
	own := *p
	return &own, own.Name
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}

	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			sessionIDs = append(sessionIDs, strings.TrimSuffix(name, ".json"))
		}
	}

	return sessionIDs, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

// getFilePath returns the full file path for a session ID
func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.sessionsDir, fmt.Sprintf("%s.json", id))
}
