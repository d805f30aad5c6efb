package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"coachlink/infrastructure"
	"coachlink/internal/email"
	"coachlink/internal/sessions"
	"coachlink/internal/user"
	"coachlink/internal/verification"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uuid.UUID]*user.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, params user.CreateParams) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == params.Email {
			return nil, fmt.Errorf("duplicate email: %w", infrastructure.ErrConflict)
		}
	}
	u := &user.User{
		ID:           uuid.New(),
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
	}
	s.users[u.ID] = u
	return cloneUser(u), nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, addr string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == addr {
			return cloneUser(u), nil
		}
	}
	return nil, infrastructure.ErrNotFound
}

func (s *fakeUserStore) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, infrastructure.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *fakeUserStore) Update(_ context.Context, id uuid.UUID, fields user.UpdateFields) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, infrastructure.ErrNotFound
	}
	if fields.PasswordHash != nil {
		u.PasswordHash = *fields.PasswordHash
	}
	if fields.IsVerified != nil {
		u.IsVerified = *fields.IsVerified
	}
	return cloneUser(u), nil
}

func (s *fakeUserStore) FindAll(_ context.Context) ([]*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*user.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func cloneUser(u *user.User) *user.User {
	c := *u
	return &c
}

type fakeCodeStore struct {
	mu    sync.Mutex
	now   func() time.Time
	codes map[uuid.UUID]*verification.Code
}

func newFakeCodeStore(now func() time.Time) *fakeCodeStore {
	return &fakeCodeStore{now: now, codes: map[uuid.UUID]*verification.Code{}}
}

func (s *fakeCodeStore) Create(_ context.Context, params verification.CreateParams) (*verification.Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &verification.Code{
		ID:        uuid.New(),
		UserID:    params.UserID,
		Type:      params.Type,
		CreatedAt: s.now(),
		ExpiresAt: params.ExpiresAt,
	}
	s.codes[c.ID] = c
	return c, nil
}

func (s *fakeCodeStore) FindActive(_ context.Context, id uuid.UUID, codeType verification.CodeType, now time.Time) (*verification.Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[id]
	if !ok || c.Type != codeType || c.ExpiresAt.Before(now) {
		return nil, infrastructure.ErrNotFound
	}
	return c, nil
}

func (s *fakeCodeStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, id)
	return nil
}

func (s *fakeCodeStore) CountActiveSince(_ context.Context, userID uuid.UUID, codeType verification.CodeType, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, c := range s.codes {
		if c.UserID == userID && c.Type == codeType && !c.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*sessions.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[uuid.UUID]*sessions.Session{}}
}

func (s *fakeSessionStore) Create(_ context.Context, params sessions.CreateParams) (*sessions.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &sessions.Session{
		ID:        uuid.New(),
		UserID:    params.UserID,
		UserAgent: params.UserAgent,
		ExpiresAt: params.ExpiresAt,
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *fakeSessionStore) FindByID(_ context.Context, id uuid.UUID) (*sessions.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, infrastructure.ErrNotFound
	}
	c := *sess
	return &c, nil
}

func (s *fakeSessionStore) UpdateExpiry(_ context.Context, id uuid.UUID, expiresAt time.Time) (*sessions.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, infrastructure.ErrNotFound
	}
	sess.ExpiresAt = expiresAt
	c := *sess
	return &c, nil
}

func (s *fakeSessionStore) DeleteByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return infrastructure.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *fakeSessionStore) DeleteAllForUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *fakeSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// recordingMailer captures outgoing messages. Send is called from a goroutine
// during registration, so access is guarded.
type recordingMailer struct {
	mu   sync.Mutex
	sent []email.Message
}

func (m *recordingMailer) Send(msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *recordingMailer) last() email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}
