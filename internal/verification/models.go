package verification

import (
	"time"

	"github.com/google/uuid"
)

// CodeType scopes a verification code to the single action it authorizes.
type CodeType string

const (
	TypeEmailVerification CodeType = "email_verification"
	TypePasswordReset     CodeType = "password_reset"
)

// Code is a time-boxed, single-use token. The code id itself is the secret
// embedded in verification links; a successful consumption deletes it.
type Code struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      CodeType
	CreatedAt time.Time
	ExpiresAt time.Time
}
