package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/reserve-solitaire/game/engine"
	"github.com/wricardo/reserve-solitaire/game/service"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidProfile  = errors.New("invalid profile")
)

// DefaultProfileName is the profile used when none is requested
const DefaultProfileName = "classic"

// Manager handles table profile loading and caching
type Manager struct {
	profileDir     string
	defaultProfile *engine.Profile
	profiles       map[string]*engine.Profile
	mu             sync.RWMutex
}

// NewManager creates a new profile manager
func NewManager(profileDir string) (*Manager, error) {
	if _, err := os.Stat(profileDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("profile directory does not exist: %s", profileDir)
	}

	m := &Manager{
		profileDir: profileDir,
		profiles:   make(map[string]*engine.Profile),
	}

	if err := m.loadDefaultProfile(); err != nil {
		return nil, fmt.Errorf("failed to load default profile: %w", err)
	}

	return m, nil
}

// LoadProfile loads a profile by name
func (m *Manager) LoadProfile(name string) (*engine.Profile, error) {
	name = strings.TrimSuffix(name, ".json")

	m.mu.RLock()
	if profile, exists := m.profiles[name]; exists {
		m.mu.RUnlock()
		return profile, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if profile, exists := m.profiles[name]; exists {
		return profile, nil
	}

	profilePath := filepath.Join(m.profileDir, name+".json")
	if _, err := os.Stat(profilePath); os.IsNotExist(err) {
		return nil, ErrProfileNotFound
	}

	profile, err := engine.LoadProfile(profilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	m.profiles[name] = profile
	return profile, nil
}

// ListProfiles returns information about all available profiles
func (m *Manager) ListProfiles() ([]*service.ProfileInfo, error) {
	entries, err := os.ReadDir(m.profileDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile directory: %w", err)
	}

	var profiles []*service.ProfileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		profile, err := m.LoadProfile(id)
		if err != nil {
			// Skip invalid profiles
			continue
		}

		profiles = append(profiles, &service.ProfileInfo{
			Filename:              entry.Name(),
			ProfileID:             id,
			Name:                  profile.Name,
			Description:           profile.Description,
			SuitStyle:             profile.SuitStyle,
			DoubleClickFoundation: profile.DoubleClickFoundation,
		})
	}

	return profiles, nil
}

// GetDefault returns the default profile
func (m *Manager) GetDefault() *engine.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultProfile
}

// SetDefault sets the default profile by name
func (m *Manager) SetDefault(name string) error {
	profile, err := m.LoadProfile(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultProfile = profile
	return nil
}

// RefreshCache drops cached profiles and reloads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.profiles = make(map[string]*engine.Profile)
	m.mu.Unlock()

	return m.loadDefaultProfile()
}

// loadDefaultProfile prefers classic.json, then the first valid file, then the
// built-in profile
func (m *Manager) loadDefaultProfile() error {
	profile, err := m.LoadProfile(DefaultProfileName)
	if err != nil {
		profile = engine.DefaultProfile()

		if infos, listErr := m.ListProfiles(); listErr == nil && len(infos) > 0 {
			if first, loadErr := m.LoadProfile(infos[0].ProfileID); loadErr == nil {
				profile = first
			}
		}
	}

	m.mu.Lock()
	m.defaultProfile = profile
	m.mu.Unlock()
	return nil
}

// SaveProfile validates and writes a profile to disk
func (m *Manager) SaveProfile(name string, profile *engine.Profile) error {
	if err := engine.ValidateProfile(profile); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	name = strings.TrimSuffix(name, ".json")
	profilePath := filepath.Join(m.profileDir, name+".json")

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.WriteFile(profilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}

	m.mu.Lock()
	m.profiles[name] = profile
	m.mu.Unlock()

	return nil
}

// Count returns the number of cached profiles
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}
