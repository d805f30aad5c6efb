package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CreateParams struct {
	UserID    uuid.UUID
	UserAgent string
	ExpiresAt time.Time
}

// Repository is the session store contract. FindByID returns whatever the
// store holds, including expired rows; liveness is the caller's check.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Session, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	UpdateExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) (*Session, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}
