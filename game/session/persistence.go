package session

import (
	"time"

	"github.com/wricardo/reserve-solitaire/game/engine"
	"github.com/wricardo/reserve-solitaire/game/service"
)

// SessionPersistence stores whole tables: the session metadata, the profile
// copy the table plays under and the engine snapshot with bounded history.
type SessionPersistence interface {
	Save(session *service.Session) error
	// Load returns ErrSessionNotFound for unknown IDs. A table that fails
	// validation comes back as a fresh deal.
	Load(id string) (*service.Session, error)
	Delete(id string) error
	ListAll() ([]string, error)
	Exists(id string) bool
}

var _ SessionPersistence = (*FilePersistence)(nil)

// PersistedSessionData is the on-disk form of one table
type PersistedSessionData struct {
	ID             string           `json:"id"`
	ProfileName    string           `json:"profile_name"`
	Profile        *engine.Profile  `json:"profile,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	Snapshot       *engine.Snapshot `json:"snapshot"`
}
