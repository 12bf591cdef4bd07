package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is an opaque long-lived bearer credential. The token value is
// the primary key; the row is deleted on logout, rotation, or revocation.
type RefreshToken struct {
	Token     string    `gorm:"type:char(64);primaryKey" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ExpiredAt reports whether the token is past its expiry at the given time.
func (t *RefreshToken) ExpiredAt(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// PasswordResetToken is a single-use credential for the forgot-password flow.
// At most one live row exists per user; a new request replaces the prior one.
type PasswordResetToken struct {
	Token     string    `gorm:"size:36;primaryKey" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}
