package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/authsvc/internal/models"
)

// Sentinel errors shared by all implementations.
var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// Users persists identity records.
type Users interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByEmailToken matches a non-expired email confirmation token.
	FindByEmailToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

// Codes persists phone verification codes. Rows are never deleted; the most
// recent row per phone supersedes older ones.
type Codes interface {
	Create(ctx context.Context, code *models.SMSCode) error
	LatestByPhone(ctx context.Context, phone string) (*models.SMSCode, error)
	Save(ctx context.Context, code *models.SMSCode) error
}

// RefreshTokens persists opaque refresh tokens.
type RefreshTokens interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	// Delete removes a single token. Deleting an absent token is a no-op.
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpiredByUser(ctx context.Context, userID uuid.UUID, now time.Time) error
}

// ResetTokens persists single-use password reset tokens.
type ResetTokens interface {
	// Replace removes any existing token for the user and inserts the new one.
	Replace(ctx context.Context, token *models.PasswordResetToken) error
	// FindValid matches a non-expired reset token.
	FindValid(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error)
	Delete(ctx context.Context, token string) error
}

// Store bundles the repositories backing the auth service.
type Store struct {
	Users   Users
	Codes   Codes
	Refresh RefreshTokens
	Reset   ResetTokens
}
