package verification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CreateParams struct {
	UserID    uuid.UUID
	Type      CodeType
	ExpiresAt time.Time
}

// Repository is the verification-code registry contract. FindActive must
// treat an expired or type-mismatched code exactly like a missing one.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Code, error)
	FindActive(ctx context.Context, id uuid.UUID, codeType CodeType, now time.Time) (*Code, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountActiveSince(ctx context.Context, userID uuid.UUID, codeType CodeType, since time.Time) (int, error)
}
