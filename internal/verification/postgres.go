package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coachlink/infrastructure"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) Create(ctx context.Context, params CreateParams) (*Code, error) {
	code := &Code{
		ID:        uuid.New(),
		UserID:    params.UserID,
		Type:      params.Type,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: params.ExpiresAt,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_codes (id, user_id, type, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		code.ID, code.UserID, code.Type, code.CreatedAt, code.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("create verification code: %w", err)
	}
	return code, nil
}

// FindActive requires an exact type match and expires_at >= now. Expired and
// wrong-typed codes are indistinguishable from missing ones.
func (s *PostgresStorage) FindActive(ctx context.Context, id uuid.UUID, codeType CodeType, now time.Time) (*Code, error) {
	code := &Code{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, created_at, expires_at
		FROM verification_codes
		WHERE id = $1 AND type = $2 AND expires_at >= $3`,
		id, codeType, now).Scan(&code.ID, &code.UserID, &code.Type, &code.CreatedAt, &code.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, infrastructure.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find verification code: %w", err)
	}
	return code, nil
}

func (s *PostgresStorage) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM verification_codes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	return nil
}

func (s *PostgresStorage) CountActiveSince(ctx context.Context, userID uuid.UUID, codeType CodeType, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM verification_codes
		WHERE user_id = $1 AND type = $2 AND created_at >= $3`,
		userID, codeType, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count verification codes: %w", err)
	}
	return count, nil
}
