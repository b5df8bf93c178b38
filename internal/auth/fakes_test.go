package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sougas/auth-api/internal/logging"
	"github.com/sougas/auth-api/internal/user"
)

const testTokenTTL = time.Hour

// fakeStore is an in-memory UserStore for tests.
type fakeStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[uuid.UUID]*user.User)}
}

func (s *fakeStore) Create(_ context.Context, fullName, email, phoneNumber, role, passwordHash string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return nil, user.ErrDuplicateEmail
		}
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		FullName:     fullName,
		Email:        email,
		PhoneNumber:  phoneNumber,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u

	clone := *u
	return &clone, nil
}

func (s *fakeStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			clone.PasswordHash = ""
			return &clone, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *fakeStore) GetByEmailWithPassword(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone, nil
}

func (s *fakeStore) GetByEmailAndCode(_ context.Context, email, code string, now time.Time) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email != email || u.VerificationCode == nil || u.VerificationCodeExpire == nil {
			continue
		}
		if *u.VerificationCode == code && u.VerificationCodeExpire.After(now) {
			clone := *u
			clone.PasswordHash = ""
			return &clone, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *fakeStore) SetResetCode(_ context.Context, userID uuid.UUID, code string, expire time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.VerificationCode = &code
	u.VerificationCodeExpire = &expire
	return nil
}

func (s *fakeStore) ClearResetCode(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.VerificationCode = nil
	u.VerificationCodeExpire = nil
	return nil
}

func (s *fakeStore) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.VerificationCode = nil
	u.VerificationCodeExpire = nil
	return nil
}

func (s *fakeStore) UpdateDetails(_ context.Context, userID uuid.UUID, fullName, email, role string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, user.ErrNotFound
	}

	email = strings.ToLower(email)
	for id, other := range s.users {
		if id != userID && other.Email == email {
			return nil, user.ErrDuplicateEmail
		}
	}

	u.FullName = fullName
	u.Email = email
	u.Role = role
	u.UpdatedAt = time.Now()

	clone := *u
	clone.PasswordHash = ""
	return &clone, nil
}

// get returns the stored user for assertions on internal state.
func (s *fakeStore) get(id uuid.UUID) *user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		clone := *u
		return &clone
	}
	return nil
}

// expireCode backdates a pending reset code so it reads as expired.
func (s *fakeStore) expireCode(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok && u.VerificationCodeExpire != nil {
		past := time.Now().Add(-time.Minute)
		u.VerificationCodeExpire = &past
	}
}

// fakeCache is an in-memory ProjectionCache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]user.Public
	hits    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[uuid.UUID]user.Public)}
}

func (c *fakeCache) Get(_ context.Context, userID uuid.UUID) (*user.Public, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.entries[userID]; ok {
		c.hits++
		return &p, nil
	}
	return nil, nil
}

func (c *fakeCache) Set(_ context.Context, u *user.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[u.ID] = u.ToPublic()
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

// fakeMailer records sent emails and can be made to fail.
type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentEmail
	failWith error
}

type sentEmail struct {
	to, subject, text, html string
}

func (m *fakeMailer) SendEmail(_ context.Context, to, subject, text, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, text: text, html: html})
	return nil
}

// fakeSMS records sent messages and can be made to fail.
type fakeSMS struct {
	mu       sync.Mutex
	sent     []sentSMS
	failWith error
}

type sentSMS struct {
	to, text string
}

func (m *fakeSMS) SendSMS(_ context.Context, to, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, sentSMS{to: to, text: text})
	return nil
}

type testEnv struct {
	service *Service
	store   *fakeStore
	cache   *fakeCache
	mailer  *fakeMailer
	sms     *fakeSMS
	tokens  *PasetoService
}

func newTestEnv(t interface{ Fatalf(string, ...any) }) *testEnv {
	tokens, err := NewPasetoService(testPasetoKey)
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}

	store := newFakeStore()
	cache := newFakeCache()
	mailer := &fakeMailer{}
	sms := &fakeSMS{}

	service := NewService(store, cache, tokens, mailer, sms, logging.NewLogger(true), time.Hour)

	return &testEnv{
		service: service,
		store:   store,
		cache:   cache,
		mailer:  mailer,
		sms:     sms,
		tokens:  tokens,
	}
}
