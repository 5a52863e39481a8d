package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Validation bounds for table profiles
const (
	DefaultStatsHistory = 100
	MaxStatsHistory     = 10000
	MaxHistoryCap       = 5000
)

// SuitStyles lists the accepted card face styles
var SuitStyles = []string{"normal", "color", "dark", "border", "watermark", "pattern", "corners", "cb"}

// Profile holds the per-table preferences loaded from JSON
type Profile struct {
	Name                  string `json:"name"`
	Description           string `json:"description"`
	SuitStyle             string `json:"suit_style"`
	DoubleClickFoundation bool   `json:"double_click_foundation"`
	MaxPersistedHistory   int    `json:"max_persisted_history"`
	MaxStatsHistory       int    `json:"max_stats_history"`
	AutoPlayPasses        int    `json:"autoplay_passes"`
	StorageQuotaBytes     int    `json:"storage_quota_bytes,omitempty"` // 0 means unlimited
}

// DefaultProfile returns the built-in profile used when no file is available
func DefaultProfile() *Profile {
	return &Profile{
		Name:                  "classic",
		Description:           "Seven piles, four foundations, three reserve slots",
		SuitStyle:             "normal",
		DoubleClickFoundation: true,
		MaxPersistedHistory:   MaxPersistedHistory,
		MaxStatsHistory:       DefaultStatsHistory,
		AutoPlayPasses:        MaxAutoPlayPasses,
	}
}

// ValidateProfile checks a profile for correctness
func ValidateProfile(p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile validation: profile is nil")
	}
	if p.Name == "" {
		return fmt.Errorf("profile validation: name is required")
	}

	styleOK := false
	for _, s := range SuitStyles {
		if p.SuitStyle == s {
			styleOK = true
			break
		}
	}
	if !styleOK {
		return fmt.Errorf("profile validation: suit_style must be one of %v, got '%s'", SuitStyles, p.SuitStyle)
	}

	if p.MaxPersistedHistory < 0 || p.MaxPersistedHistory > MaxHistoryCap {
		return fmt.Errorf("profile validation: max_persisted_history must be between 0 and %d, got %d", MaxHistoryCap, p.MaxPersistedHistory)
	}
	if p.MaxStatsHistory < 1 || p.MaxStatsHistory > MaxStatsHistory {
		return fmt.Errorf("profile validation: max_stats_history must be between 1 and %d, got %d", MaxStatsHistory, p.MaxStatsHistory)
	}
	if p.AutoPlayPasses < 1 || p.AutoPlayPasses > MaxAutoPlayPasses {
		return fmt.Errorf("profile validation: autoplay_passes must be between 1 and %d, got %d", MaxAutoPlayPasses, p.AutoPlayPasses)
	}
	if p.StorageQuotaBytes < 0 {
		return fmt.Errorf("profile validation: storage_quota_bytes cannot be negative")
	}

	return nil
}

// LoadProfile reads and validates a profile from a JSON file. Settings missing
// from the file keep their DefaultProfile values and the name defaults to the
// file name.
func LoadProfile(filename string) (*Profile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	profile := DefaultProfile()
	profile.Name, profile.Description = "", ""
	if err := json.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile file '%s': %w", filepath.Base(filename), err)
	}
	if profile.Name == "" {
		profile.Name = strings.TrimSuffix(filepath.Base(filename), ".json")
	}

	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}
