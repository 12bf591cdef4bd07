package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/authsvc/internal/config"
	"github.com/example/authsvc/internal/models"
	"github.com/example/authsvc/internal/store"
	"github.com/example/authsvc/internal/utils"
)

// TokenService mints signed access tokens and opaque refresh tokens, and
// revokes and rotates refresh tokens.
type TokenService struct {
	refresh store.RefreshTokens
	cfg     *config.Config
	now     func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(refresh store.RefreshTokens, cfg *config.Config) *TokenService {
	return &TokenService{refresh: refresh, cfg: cfg, now: time.Now}
}

// IssueAccess returns a signed short-lived access token for the user.
// Stateless; nothing is persisted.
func (s *TokenService) IssueAccess(userID uuid.UUID) (string, error) {
	return utils.GenerateToken(s.cfg.JWTSecret, userID, s.cfg.AccessTokenTTL)
}

// IssueRefresh generates a high-entropy refresh token and persists it. The
// TTL is doubled when extended is set (remember-me). The token value is
// returned to the caller exactly once. Expired rows belonging to the same
// user are reaped while we are here.
func (s *TokenService) IssueRefresh(ctx context.Context, userID uuid.UUID, extended bool) (string, error) {
	now := s.now()

	if err := s.refresh.DeleteExpiredByUser(ctx, userID, now); err != nil {
		return "", err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	value := hex.EncodeToString(raw)

	ttl := s.cfg.RefreshTokenTTL
	if extended {
		ttl *= 2
	}

	record := models.RefreshToken{
		Token:     value,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.refresh.Create(ctx, &record); err != nil {
		return "", err
	}
	return value, nil
}

// Rotate validates a refresh token, deletes it and issues a replacement with
// a fresh base TTL. Unknown and expired tokens fail with ErrInvalidToken;
// expired rows are deleted on sight.
func (s *TokenService) Rotate(ctx context.Context, token string) (uuid.UUID, string, error) {
	row, err := s.refresh.Find(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return uuid.Nil, "", ErrInvalidToken
		}
		return uuid.Nil, "", err
	}

	if row.ExpiredAt(s.now()) {
		if err := s.refresh.Delete(ctx, token); err != nil {
			return uuid.Nil, "", err
		}
		return uuid.Nil, "", ErrInvalidToken
	}

	if err := s.refresh.Delete(ctx, token); err != nil {
		return uuid.Nil, "", err
	}

	next, err := s.IssueRefresh(ctx, row.UserID, false)
	if err != nil {
		return uuid.Nil, "", err
	}
	return row.UserID, next, nil
}

// RevokeAll deletes every refresh token belonging to the user.
func (s *TokenService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return s.refresh.DeleteByUser(ctx, userID)
}

// RevokeOne deletes a single refresh token. Revoking an absent token is a
// no-op, not an error.
func (s *TokenService) RevokeOne(ctx context.Context, token string) error {
	return s.refresh.Delete(ctx, token)
}
