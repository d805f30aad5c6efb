package user

import (
	"context"

	"github.com/google/uuid"
)

// UpdateFields carries the mutable user columns. Nil fields are left
// untouched.
type UpdateFields struct {
	PasswordHash *string
	IsVerified   *bool
}

type CreateParams struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
}

// Repository is the credential store contract consumed by the token
// lifecycle manager and the messaging gateway.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*User, error)
	FindAll(ctx context.Context) ([]*User, error)
}
