package auth

import (
	"fmt"
	"net/mail"
	"strings"

	passwordvalidator "github.com/wagslane/go-password-validator"

	"coachlink/infrastructure"
	"coachlink/internal/user"
)

const (
	minNameLength     = 2
	minPasswordLength = 8

	passwordMinEntropyBits = 30
)

// validateRegister runs every input check before any store is touched.
func validateRegister(params RegisterParams) error {
	if len(params.FirstName) < minNameLength {
		return fmt.Errorf("first name too short: %w", infrastructure.ErrInvalidInput)
	}
	if len(params.LastName) < minNameLength {
		return fmt.Errorf("last name too short: %w", infrastructure.ErrInvalidInput)
	}
	if !validEmail(params.Email) {
		return fmt.Errorf("malformed email: %w", infrastructure.ErrInvalidInput)
	}
	if !user.ValidRole(params.Role) {
		return fmt.Errorf("unknown role %q: %w", params.Role, infrastructure.ErrInvalidInput)
	}
	return validatePassword(params.Password)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password too short: %w", infrastructure.ErrInvalidInput)
	}
	if err := passwordvalidator.Validate(password, passwordMinEntropyBits); err != nil {
		return fmt.Errorf("password is not strong enough: %w", infrastructure.ErrInvalidInput)
	}
	return nil
}

func validEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// normalizeEmail keeps the stored form canonical so lookups and the unique
// index agree on case.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
