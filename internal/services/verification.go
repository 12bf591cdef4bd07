package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/example/authsvc/internal/config"
	"github.com/example/authsvc/internal/models"
	"github.com/example/authsvc/internal/store"
)

// VerificationService issues and validates one-time phone codes with rate
// limiting and attempt lockout.
type VerificationService struct {
	store store.Store
	cfg   *config.Config
	sms   SMSSender
	now   func() time.Time
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(st store.Store, cfg *config.Config, sms SMSSender) *VerificationService {
	return &VerificationService{store: st, cfg: cfg, sms: sms, now: time.Now}
}

// Issue generates a fresh six-digit code for the phone and hands it to the
// SMS sender. Fails with ErrRateLimited when a code was already issued within
// the resend window.
func (s *VerificationService) Issue(ctx context.Context, phone string) error {
	now := s.now()

	last, err := s.store.Codes.LatestByPhone(ctx, phone)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if last != nil && now.Sub(last.SentAt) < s.cfg.CodeResendInterval {
		return ErrRateLimited
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	record := models.SMSCode{Phone: phone, Code: code, SentAt: now}
	if err := s.store.Codes.Create(ctx, &record); err != nil {
		return err
	}

	return s.sms.SendCode(ctx, phone, code)
}

// Verify checks the submitted code against the most recently issued one.
//
// Fails with ErrCodeExpired when no code exists, the code is past its TTL, or
// the attempt budget was already exhausted. A wrong code increments the
// attempt counter before returning ErrCodeMismatch; the increment that
// exhausts the budget also locks any existing identity for the lockout
// duration. A match resets the counter to zero.
func (s *VerificationService) Verify(ctx context.Context, phone, submitted string) error {
	now := s.now()

	code, err := s.store.Codes.LatestByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCodeExpired
		}
		return err
	}

	if now.Sub(code.SentAt) > s.cfg.CodeTTL || code.Attempts >= s.cfg.CodeMaxAttempts {
		return ErrCodeExpired
	}

	if code.Code != submitted {
		code.Attempts++
		if err := s.store.Codes.Save(ctx, code); err != nil {
			return err
		}
		if code.Attempts >= s.cfg.CodeMaxAttempts {
			if err := s.lockAccount(ctx, phone, now); err != nil {
				return err
			}
		}
		return ErrCodeMismatch
	}

	code.Attempts = 0
	if err := s.store.Codes.Save(ctx, code); err != nil {
		return err
	}
	return nil
}

func (s *VerificationService) lockAccount(ctx context.Context, phone string, now time.Time) error {
	user, err := s.store.Users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	until := now.Add(s.cfg.LockoutDuration)
	user.BlockedUntil = &until
	return s.store.Users.Save(ctx, user)
}

func generateCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
