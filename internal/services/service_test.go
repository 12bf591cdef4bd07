package services

import (
	"context"
	"sync"
	"time"

	"github.com/example/authsvc/internal/config"
	"github.com/example/authsvc/internal/store"
)

// captureSender records outgoing codes and tokens instead of delivering them.
type captureSender struct {
	mu            sync.Mutex
	codes         map[string]string
	confirmTokens []string
	resetTokens   []string
}

func newCaptureSender() *captureSender {
	return &captureSender{codes: make(map[string]string)}
}

func (s *captureSender) SendCode(_ context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[phone] = code
	return nil
}

func (s *captureSender) SendConfirmation(_ context.Context, _, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmTokens = append(s.confirmTokens, token)
	return nil
}

func (s *captureSender) SendPasswordReset(_ context.Context, _, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetTokens = append(s.resetTokens, token)
	return nil
}

func (s *captureSender) lastCode(phone string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[phone]
}

type env struct {
	st           store.Store
	cfg          *config.Config
	sender       *captureSender
	verification *VerificationService
	tokens       *TokenService
	sessions     *SessionService
	now          time.Time
}

func newEnv() *env {
	e := &env{
		st:     store.NewMemory(),
		sender: newCaptureSender(),
		now:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	e.cfg = &config.Config{
		JWTSecret:          "test-secret",
		AccessTokenTTL:     time.Hour,
		RefreshTokenTTL:    30 * 24 * time.Hour,
		CodeTTL:            300 * time.Second,
		CodeResendInterval: 30 * time.Second,
		CodeMaxAttempts:    5,
		LockoutDuration:    time.Hour,
		EmailTokenTTL:      24 * time.Hour,
		ResetTokenTTL:      15 * time.Minute,
	}

	clock := func() time.Time { return e.now }
	e.verification = NewVerificationService(e.st, e.cfg, e.sender)
	e.verification.now = clock
	e.tokens = NewTokenService(e.st.Refresh, e.cfg)
	e.tokens.now = clock
	e.sessions = NewSessionService(e.st, e.verification, e.tokens, e.sender, e.cfg)
	e.sessions.now = clock
	return e
}

func (e *env) advance(d time.Duration) {
	e.now = e.now.Add(d)
}
