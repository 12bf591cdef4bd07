package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/authsvc/internal/config"
	"github.com/example/authsvc/internal/models"
	"github.com/example/authsvc/internal/store"
	"github.com/example/authsvc/internal/utils"
)

// SessionService sequences the verification engine, token service and
// credential store for every public auth operation.
type SessionService struct {
	store        store.Store
	verification *VerificationService
	tokens       *TokenService
	mail         MailSender
	cfg          *config.Config
	now          func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(st store.Store, verification *VerificationService, tokens *TokenService, mail MailSender, cfg *config.Config) *SessionService {
	return &SessionService{
		store:        st,
		verification: verification,
		tokens:       tokens,
		mail:         mail,
		cfg:          cfg,
		now:          time.Now,
	}
}

// AuthResult carries the freshly minted token pair and the authenticated user.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// SendCode issues a verification code for the phone. No identity is required.
func (s *SessionService) SendCode(ctx context.Context, phone string) error {
	return s.verification.Issue(ctx, phone)
}

// VerifyPhoneInput captures the verify-phone request.
type VerifyPhoneInput struct {
	Phone      string
	Code       string
	Email      string
	Password   string
	RememberMe bool
}

// VerifyPhone validates the code, registering a new identity on first contact
// and issuing a token pair on success.
func (s *SessionService) VerifyPhone(ctx context.Context, in VerifyPhoneInput) (*AuthResult, error) {
	if err := s.verification.Verify(ctx, in.Phone, in.Code); err != nil {
		return nil, err
	}

	user, err := s.store.Users.FindByPhone(ctx, in.Phone)
	switch {
	case errors.Is(err, store.ErrNotFound):
		user, err = s.registerByPhone(ctx, in)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if user.BlockedAt(s.now()) {
			return nil, ErrAccountLocked
		}
	}

	return s.issueTokens(ctx, user, in.RememberMe)
}

func (s *SessionService) registerByPhone(ctx context.Context, in VerifyPhoneInput) (*models.User, error) {
	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingRegistrationFields
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	phone := in.Phone
	email := in.Email
	user := &models.User{
		LoginType:    models.LoginTypePhone,
		Phone:        &phone,
		Email:        &email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		// A concurrent registration for the same phone or email wins the
		// uniqueness race; surface it like any other taken-credential failure.
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// RegisterByEmail creates an inactive identity and queues a confirmation
// email with a token valid for the configured window.
func (s *SessionService) RegisterByEmail(ctx context.Context, email, password string) error {
	if _, err := s.store.Users.FindByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	token := uuid.NewString()
	expires := s.now().Add(s.cfg.EmailTokenTTL)
	user := &models.User{
		LoginType:         models.LoginTypeEmail,
		Email:             &email,
		PasswordHash:      hash,
		IsActive:          false,
		EmailToken:        &token,
		EmailTokenExpires: &expires,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrEmailTaken
		}
		return err
	}

	return s.mail.SendConfirmation(ctx, email, token)
}

// ConfirmEmail activates the identity behind a confirmation token, clears the
// token and revokes every existing refresh token. A fresh login is required
// after confirmation.
func (s *SessionService) ConfirmEmail(ctx context.Context, token string) error {
	user, err := s.store.Users.FindByEmailToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	user.IsActive = true
	user.EmailToken = nil
	user.EmailTokenExpires = nil
	if err := s.store.Users.Save(ctx, user); err != nil {
		return err
	}

	return s.tokens.RevokeAll(ctx, user.ID)
}

// LoginByEmail authenticates an active email identity and issues tokens.
func (s *SessionService) LoginByEmail(ctx context.Context, email, password string, rememberMe bool) (*AuthResult, error) {
	user, err := s.store.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.LoginType != models.LoginTypeEmail || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user, rememberMe)
}

// ForgotPassword upserts a reset token when the email belongs to an identity.
// It reports success either way so responses do not leak account existence.
func (s *SessionService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.store.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	token := uuid.NewString()
	record := models.PasswordResetToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.cfg.ResetTokenTTL),
	}
	if err := s.store.Reset.Replace(ctx, &record); err != nil {
		return err
	}

	return s.mail.SendPasswordReset(ctx, email, token)
}

// ResetPassword consumes a reset token: rehashes the password, revokes every
// refresh token for the identity and deletes the reset token.
func (s *SessionService) ResetPassword(ctx context.Context, token, newPassword string) error {
	reset, err := s.store.Reset.FindValid(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	user, err := s.store.Users.FindByID(ctx, reset.UserID)
	if err != nil {
		return err
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.store.Users.Save(ctx, user); err != nil {
		return err
	}

	if err := s.tokens.RevokeAll(ctx, user.ID); err != nil {
		return err
	}
	return s.store.Reset.Delete(ctx, token)
}

// Refresh rotates a refresh token and mints a new access token.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, rotated, err := s.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{AccessToken: access, RefreshToken: rotated, User: user}, nil
}

// Logout revokes a single refresh token. Always succeeds; revoking an
// unknown token is a no-op.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.RevokeOne(ctx, refreshToken)
}

// Me returns the identity behind an authenticated user ID.
func (s *SessionService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.store.Users.FindByID(ctx, userID)
}

func (s *SessionService) issueTokens(ctx context.Context, user *models.User, rememberMe bool) (*AuthResult, error) {
	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(ctx, user.ID, rememberMe)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}
