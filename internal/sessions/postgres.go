package sessions

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

func (s *PostgresStorage) Create(ctx context.Context, params CreateParams) (*Session, error) {
	session := &Session{
		ID:        uuid.New(),
		UserID:    params.UserID,
		UserAgent: params.UserAgent,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: params.ExpiresAt,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.UserID, session.UserAgent, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *PostgresStorage) FindByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	session := &Session{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, user_agent, created_at, expires_at
		FROM sessions WHERE id = $1`,
		id).Scan(&session.ID, &session.UserID, &session.UserAgent, &session.CreatedAt, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, infrastructure.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

func (s *PostgresStorage) UpdateExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) (*Session, error) {
	session := &Session{}
	err := s.db.QueryRowContext(ctx, `
		UPDATE sessions SET expires_at = $2 WHERE id = $1
		RETURNING id, user_id, user_agent, created_at, expires_at`,
		id, expiresAt).Scan(&session.ID, &session.UserID, &session.UserAgent, &session.CreatedAt, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, infrastructure.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update session expiry: %w", err)
	}
	return session, nil
}

func (s *PostgresStorage) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected == 0 {
		return infrastructure.ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}
