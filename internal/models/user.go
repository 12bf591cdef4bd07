package models

import (
	"time"
)

// Login types for User.LoginType.
const (
	LoginTypePhone = "phone"
	LoginTypeEmail = "email"
)

// User represents a registered identity keyed by phone or email.
type User struct {
	BaseModel
	LoginType         string     `gorm:"size:10;not null" json:"login_type"`
	Phone             *string    `gorm:"size:15;uniqueIndex" json:"phone,omitempty"`
	Email             *string    `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	PasswordHash      string     `json:"-"`
	IsActive          bool       `json:"is_active"`
	BlockedUntil      *time.Time `json:"-"`
	EmailToken        *string    `gorm:"size:36;index" json:"-"`
	EmailTokenExpires *time.Time `json:"-"`
}

// BlockedAt reports whether the account is locked out at the given time.
func (u *User) BlockedAt(now time.Time) bool {
	return u.BlockedUntil != nil && u.BlockedUntil.After(now)
}

// SMSCode keeps track of verification codes sent to phone numbers. Rows are
// append-only; the most recent row per phone is the authoritative one.
type SMSCode struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Phone    string    `gorm:"size:15;index;not null" json:"phone"`
	Code     string    `gorm:"type:char(6);not null" json:"code"`
	SentAt   time.Time `gorm:"not null" json:"sent_at"`
	Attempts int       `gorm:"default:0" json:"attempts"`
}
