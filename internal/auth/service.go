package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"coachlink/infrastructure"
	"coachlink/internal/email"
	"coachlink/internal/sessions"
	"coachlink/internal/user"
	"coachlink/internal/verification"
	"coachlink/pkg/jwt"
)

const (
	// Email verification codes are effectively non-expiring until the user
	// acts; the year-long window is deliberate product policy.
	emailVerifyTTL = 365 * 24 * time.Hour

	resetCodeTTL    = time.Hour
	resetRateWindow = 5 * time.Minute

	// A refresh call made with less than this much session lifetime left
	// extends the session and rotates the refresh token.
	refreshThreshold = 24 * time.Hour

	bcryptCost = 10
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RefreshResult carries a fresh access token and, only when the session was
// extended, a rotated refresh token.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      user.Role
	UserAgent string
}

type LoginParams struct {
	Email     string
	Password  string
	UserAgent string
}

// Service orchestrates registration, login, token rotation, email
// verification and password reset against the three stores and the mailer.
type Service struct {
	users     user.Repository
	codes     verification.Repository
	sessions  sessions.Repository
	mailer    email.Mailer
	tokens    *jwt.Manager
	appOrigin string
	logger    *slog.Logger

	now func() time.Time
}

func NewService(
	users user.Repository,
	codes verification.Repository,
	sessionStore sessions.Repository,
	mailer email.Mailer,
	tokens *jwt.Manager,
	appOrigin string,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:     users,
		codes:     codes,
		sessions:  sessionStore,
		mailer:    mailer,
		tokens:    tokens,
		appOrigin: appOrigin,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*TokenPair, *user.PublicView, error) {
	params.Email = normalizeEmail(params.Email)
	if err := validateRegister(params); err != nil {
		return nil, nil, err
	}

	existing, err := s.users.FindByEmail(ctx, params.Email)
	if err != nil && !errors.Is(err, infrastructure.ErrNotFound) {
		return nil, nil, fmt.Errorf("register: %w", err)
	}
	if existing != nil {
		return nil, nil, fmt.Errorf("email already in use: %w", infrastructure.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, user.CreateParams{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        params.Email,
		PasswordHash: string(hash),
		Role:         params.Role,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("register: %w", err)
	}

	code, err := s.codes.Create(ctx, verification.CreateParams{
		UserID:    newUser.ID,
		Type:      verification.TypeEmailVerification,
		ExpiresAt: s.now().Add(emailVerifyTTL),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create verification code: %w", err)
	}

	s.sendVerificationEmail(newUser, code)

	pair, err := s.startSession(ctx, newUser.ID, params.UserAgent)
	if err != nil {
		return nil, nil, err
	}
	return pair, newUser.Public(), nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*TokenPair, *user.PublicView, error) {
	// Unknown email and wrong password must be indistinguishable.
	found, err := s.users.FindByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, infrastructure.ErrNotFound) {
			return nil, nil, fmt.Errorf("invalid credentials: %w", infrastructure.ErrUnauthorized)
		}
		return nil, nil, fmt.Errorf("login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(params.Password)); err != nil {
		return nil, nil, fmt.Errorf("invalid credentials: %w", infrastructure.ErrUnauthorized)
	}

	// Logins are additive: every device gets its own session.
	pair, err := s.startSession(ctx, found.ID, params.UserAgent)
	if err != nil {
		return nil, nil, err
	}
	return pair, found.Public(), nil
}

func (s *Service) VerifyEmail(ctx context.Context, codeID uuid.UUID) (*user.PublicView, error) {
	code, err := s.codes.FindActive(ctx, codeID, verification.TypeEmailVerification, s.now())
	if err != nil {
		if errors.Is(err, infrastructure.ErrNotFound) {
			return nil, fmt.Errorf("invalid or expired verification code: %w", infrastructure.ErrNotFound)
		}
		return nil, fmt.Errorf("verify email: %w", err)
	}

	verified := true
	updated, err := s.users.Update(ctx, code.UserID, user.UpdateFields{IsVerified: &verified})
	if err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}

	if err := s.codes.Delete(ctx, code.ID); err != nil {
		return nil, fmt.Errorf("consume verification code: %w", err)
	}
	return updated.Public(), nil
}

// Refresh validates a refresh token and issues a new access token. When the
// session has a day or less of life left, the session is extended to a full
// thirty days and a new refresh token is returned alongside; otherwise the
// caller keeps using its existing one.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", infrastructure.ErrUnauthorized)
	}

	session, err := s.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, infrastructure.ErrNotFound) {
			return nil, fmt.Errorf("session not found: %w", infrastructure.ErrUnauthorized)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	now := s.now()
	if session.Expired(now) {
		return nil, fmt.Errorf("session expired: %w", infrastructure.ErrUnauthorized)
	}

	result := &RefreshResult{}
	if session.ExpiresAt.Sub(now) <= refreshThreshold {
		session, err = s.sessions.UpdateExpiry(ctx, session.ID, now.Add(s.tokens.RefreshTTL()))
		if err != nil {
			return nil, fmt.Errorf("extend session: %w", err)
		}
		result.RefreshToken, err = s.tokens.IssueRefreshToken(session.ID)
		if err != nil {
			return nil, fmt.Errorf("issue refresh token: %w", err)
		}
	}

	result.AccessToken, err = s.tokens.IssueAccessToken(session.UserID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return result, nil
}

// RequestPasswordReset never reports failure to the caller. Unknown emails,
// rate-limit hits and mail errors all collapse into the same silent outcome
// so the endpoint cannot be used to enumerate accounts. Failures are still
// logged server-side.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) {
	if err := s.requestPasswordReset(ctx, emailAddr); err != nil {
		s.logger.Warn("password reset request failed", "error", err)
	}
}

func (s *Service) requestPasswordReset(ctx context.Context, emailAddr string) error {
	found, err := s.users.FindByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}

	count, err := s.codes.CountActiveSince(ctx, found.ID, verification.TypePasswordReset, s.now().Add(-resetRateWindow))
	if err != nil {
		return fmt.Errorf("count reset codes: %w", err)
	}
	if count >= 1 {
		return fmt.Errorf("reset already requested: %w", infrastructure.ErrRateLimited)
	}

	code, err := s.codes.Create(ctx, verification.CreateParams{
		UserID:    found.ID,
		Type:      verification.TypePasswordReset,
		ExpiresAt: s.now().Add(resetCodeTTL),
	})
	if err != nil {
		return fmt.Errorf("create reset code: %w", err)
	}

	url := fmt.Sprintf("%s/password/reset?code=%s", s.appOrigin, code.ID)
	msg, err := email.PasswordResetMessage(found.Email, found.FirstName, url)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(msg); err != nil {
		return err
	}
	return nil
}

// ResetPassword replaces the password digest and invalidates every session
// the user owns, forcing re-login on all devices.
func (s *Service) ResetPassword(ctx context.Context, codeID uuid.UUID, newPassword string) (*user.PublicView, error) {
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	code, err := s.codes.FindActive(ctx, codeID, verification.TypePasswordReset, s.now())
	if err != nil {
		if errors.Is(err, infrastructure.ErrNotFound) {
			return nil, fmt.Errorf("invalid or expired reset code: %w", infrastructure.ErrNotFound)
		}
		return nil, fmt.Errorf("reset password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	hashStr := string(hash)
	updated, err := s.users.Update(ctx, code.UserID, user.UpdateFields{PasswordHash: &hashStr})
	if err != nil {
		return nil, fmt.Errorf("reset password: %w", err)
	}

	if err := s.codes.Delete(ctx, code.ID); err != nil {
		return nil, fmt.Errorf("consume reset code: %w", err)
	}
	if err := s.sessions.DeleteAllForUser(ctx, updated.ID); err != nil {
		return nil, fmt.Errorf("invalidate sessions: %w", err)
	}
	return updated.Public(), nil
}

func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	return s.sessions.DeleteByID(ctx, sessionID)
}

func (s *Service) startSession(ctx context.Context, userID uuid.UUID, userAgent string) (*TokenPair, error) {
	session, err := s.sessions.Create(ctx, sessions.CreateParams{
		UserID:    userID,
		UserAgent: userAgent,
		ExpiresAt: s.now().Add(s.tokens.RefreshTTL()),
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	accessToken, err := s.tokens.IssueAccessToken(userID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(session.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) sendVerificationEmail(u *user.User, code *verification.Code) {
	url := fmt.Sprintf("%s/verify-email/%s", s.appOrigin, code.ID)
	msg, err := email.VerificationMessage(u.Email, u.FirstName, url)
	if err != nil {
		s.logger.Error("render verification email", "error", err)
		return
	}
	go func() {
		if err := s.mailer.Send(msg); err != nil {
			s.logger.Warn("send verification email", "to", u.Email, "error", err)
		}
	}()
}
