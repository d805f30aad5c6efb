package sessions

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one logical login (one device/browser). A user may own
// many concurrent sessions. A session past ExpiresAt is dead even before it
// is deleted; readers must treat it as absent.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
