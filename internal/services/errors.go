package services

import "errors"

// Domain errors surfaced to handlers. Each maps to a single HTTP status.
var (
	// ErrRateLimited is returned when a verification code was requested for
	// the same phone within the resend window.
	ErrRateLimited = errors.New("code requested too recently")

	// ErrCodeExpired covers a missing code, a code past its TTL, and a code
	// whose attempt budget is exhausted.
	ErrCodeExpired = errors.New("verification code invalid or expired")

	// ErrCodeMismatch is returned when the submitted code differs from the
	// stored one. The attempt counter has already been incremented.
	ErrCodeMismatch = errors.New("verification code mismatch")

	// ErrAccountLocked is returned while an identity is temporarily blocked.
	ErrAccountLocked = errors.New("account temporarily locked")

	// ErrEmailTaken is returned when registering with an email already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidToken covers unknown, expired and already-used confirmation,
	// reset and refresh tokens.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidCredentials is returned on a failed email/password login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingRegistrationFields is returned when first-time phone
	// verification arrives without the email and password needed to register.
	ErrMissingRegistrationFields = errors.New("email and password required for registration")
)
