package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/authsvc/internal/models"
	"github.com/example/authsvc/internal/store"
	"github.com/example/authsvc/internal/utils"
)

const (
	testEmail    = "user@example.com"
	testPassword = "hunter22"
)

func (e *env) sendAndGetCode(t *testing.T, phone string) string {
	t.Helper()
	require.NoError(t, e.sessions.SendCode(context.Background(), phone))
	return e.sender.lastCode(phone)
}

func TestVerifyPhoneRegistersNewIdentity(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	code := e.sendAndGetCode(t, testPhone)

	result, err := e.sessions.VerifyPhone(ctx, VerifyPhoneInput{
		Phone:    testPhone,
		Code:     code,
		Email:    testEmail,
		Password: testPassword,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	require.NotNil(t, result.User.Phone)
	assert.Equal(t, testPhone, *result.User.Phone)
	assert.Equal(t, models.LoginTypePhone, result.User.LoginType)
	assert.True(t, result.User.IsActive)
	assert.True(t, utils.CheckPassword(result.User.PasswordHash, testPassword))
}

func TestVerifyPhoneRequiresRegistrationFields(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	code := e.sendAndGetCode(t, testPhone)

	_, err := e.sessions.VerifyPhone(ctx, VerifyPhoneInput{Phone: testPhone, Code: code})
	assert.ErrorIs(t, err, ErrMissingRegistrationFields)
}

func TestVerifyPhoneExistingIdentitySkipsRegistration(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	code := e.sendAndGetCode(t, testPhone)
	_, err := e.sessions.VerifyPhone(ctx, VerifyPhoneInput{
		Phone: testPhone, Code: code, Email: testEmail, Password: testPassword,
	})
	require.NoError(t, err)

	e.advance(31 * time.Second)
	code = e.sendAndGetCode(t, testPhone)
	result, err := e.sessions.VerifyPhone(ctx, VerifyPhoneInput{Phone: testPhone, Code: code})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
}

func TestVerifyPhoneLockedAccount(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	phone := testPhone
	until := e.now.Add(30 * time.Minute)
	user := &models.User{LoginType: models.LoginTypePhone, Phone: &phone, IsActive: true, BlockedUntil: &until}
	require.NoError(t, e.st.Users.Create(ctx, user))

	code := e.sendAndGetCode(t, phone)
	_, err := e.sessions.VerifyPhone(ctx, VerifyPhoneInput{Phone: phone, Code: code})
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestVerifyPhoneLockExpires(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	phone := testPhone
	until := e.now.Add(30 * time.Minute)
	user := &models.User{LoginType: models.LoginTypePhone, Phone: &phone, IsActive: true, BlockedUntil: &until}
	require.NoError(t, e.st.Users.Create(ctx, user))

	e.advance(31 * time.Minute)
	code := e.sendAndGetCode(t, phone)
	_, err := e.sessions.VerifyPhone(ctx, VerifyPhoneInput{Phone: phone, Code: code})
	assert.NoError(t, err)
}

func TestRegisterByEmailTwiceFails(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.sessions.RegisterByEmail(ctx, testEmail, testPassword))
	assert.ErrorIs(t, e.sessions.RegisterByEmail(ctx, testEmail, testPassword), ErrEmailTaken)
}

func TestRegisterByEmailCreatesInactiveIdentity(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.sessions.RegisterByEmail(ctx, testEmail, testPassword))

	user, err := e.st.Users.FindByEmail(ctx, testEmail)
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.Equal(t, models.LoginTypeEmail, user.LoginType)
	require.NotNil(t, user.EmailToken)
	require.NotNil(t, user.EmailTokenExpires)
	assert.Equal(t, e.now.Add(24*time.Hour), *user.EmailTokenExpires)
	require.Len(t, e.sender.confirmTokens, 1)
	assert.Equal(t, *user.EmailToken, e.sender.confirmTokens[0])
}

func TestConfirmEmailActivatesAndRevokesSessions(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.sessions.RegisterByEmail(ctx, testEmail, testPassword))
	user, err := e.st.Users.FindByEmail(ctx, testEmail)
	require.NoError(t, err)

	// A refresh token issued before confirmation must not survive it.
	stale, err := e.tokens.IssueRefresh(ctx, user.ID, false)
	require.NoError(t, err)

	require.NoError(t, e.sessions.ConfirmEmail(ctx, e.sender.confirmTokens[0]))

	confirmed, err := e.st.Users.FindByEmail(ctx, testEmail)
	require.NoError(t, err)
	assert.True(t, confirmed.IsActive)
	assert.Nil(t, confirmed.EmailToken)
	assert.Nil(t, confirmed.EmailTokenExpires)

	_, err = e.st.Refresh.Find(ctx, stale)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The token is single-use.
	assert.ErrorIs(t, e.sessions.ConfirmEmail(ctx, e.sender.confirmTokens[0]), ErrInvalidToken)
}

func TestConfirmEmailExpiredToken(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.sessions.RegisterByEmail(ctx, testEmail, testPassword))

	e.advance(25 * time.Hour)
	assert.ErrorIs(t, e.sessions.ConfirmEmail(ctx, e.sender.confirmTokens[0]), ErrInvalidToken)
}

func TestLoginByEmail(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.sessions.RegisterByEmail(ctx, testEmail, testPassword))

	// Unconfirmed accounts cannot log in.
	_, err := e.sessions.LoginByEmail(ctx, testEmail, testPassword, false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, e.sessions.ConfirmEmail(ctx, e.sender.confirmTokens[0]))

	_, err = e.sessions.LoginByEmail(ctx, testEmail, "wrong-password", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = e.sessions.LoginByEmail(ctx, "nobody@example.com", testPassword, false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	result, err := e.sessions.LoginByEmail(ctx, testEmail, testPassword, false)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
}

func TestLoginRememberMeDoublesRefreshTTL(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.sessions.RegisterByEmail(ctx, testEmail, testPassword))
	require.NoError(t, e.sessions.ConfirmEmail(ctx, e.sender.confirmTokens[0]))

	short, err := e.sessions.LoginByEmail(ctx, testEmail, testPassword, false)
	require.NoError(t, err)
	long, err := e.sessions.LoginByEmail(ctx, testEmail, testPassword, true)
	require.NoError(t, err)

	shortRow, err := e.st.Refresh.Find(ctx, short.RefreshToken)
	require.NoError(t, err)
	longRow, err := e.st.Refresh.Find(ctx, long.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, e.now.Add(30*24*time.Hour), shortRow.ExpiresAt)
	assert.Equal(t, e.now.Add(60*24*time.Hour), longRow.ExpiresAt)
}

func TestForgotPasswordUnknownEmailSucceeds(t *testing.T) {
	e := newEnv()

	assert.NoError(t, e.sessions.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Empty(t, e.sender.resetTokens)
}

func TestForgotPasswordReplacesPriorToken(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.sessions.RegisterByEmail(ctx, testEmail, testPassword))

	require.NoError(t, e.sessions.ForgotPassword(ctx, testEmail))
	require.NoError(t, e.sessions.ForgotPassword(ctx, testEmail))
	require.Len(t, e.sender.resetTokens, 2)

	// Only the most recent token is usable.
	_, err := e.st.Reset.FindValid(ctx, e.sender.resetTokens[0], e.now)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = e.st.Reset.FindValid(ctx, e.sender.resetTokens[1], e.now)
	assert.NoError(t, err)
}

func TestResetPasswordInvalidatesSessionsAndToken(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.sessions.RegisterByEmail(ctx, testEmail, testPassword))
	require.NoError(t, e.sessions.ConfirmEmail(ctx, e.sender.confirmTokens[0]))

	login, err := e.sessions.LoginByEmail(ctx, testEmail, testPassword, false)
	require.NoError(t, err)

	require.NoError(t, e.sessions.ForgotPassword(ctx, testEmail))
	resetToken := e.sender.resetTokens[0]

	require.NoError(t, e.sessions.ResetPassword(ctx, resetToken, "new-password"))

	// Old password no longer works, new one does.
	_, err = e.sessions.LoginByEmail(ctx, testEmail, testPassword, false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.sessions.LoginByEmail(ctx, testEmail, "new-password", false)
	assert.NoError(t, err)

	// Refresh tokens issued before the reset are revoked.
	_, err = e.sessions.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// The reset token is single-use.
	assert.ErrorIs(t, e.sessions.ResetPassword(ctx, resetToken, "another-one"), ErrInvalidToken)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.sessions.RegisterByEmail(ctx, testEmail, testPassword))
	require.NoError(t, e.sessions.ForgotPassword(ctx, testEmail))

	e.advance(16 * time.Minute)
	err := e.sessions.ResetPassword(ctx, e.sender.resetTokens[0], "new-password")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRotatesAndReturnsUser(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.sessions.RegisterByEmail(ctx, testEmail, testPassword))
	require.NoError(t, e.sessions.ConfirmEmail(ctx, e.sender.confirmTokens[0]))
	login, err := e.sessions.LoginByEmail(ctx, testEmail, testPassword, false)
	require.NoError(t, err)

	refreshed, err := e.sessions.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, login.User.ID, refreshed.User.ID)

	// The consumed token cannot be replayed.
	_, err = e.sessions.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutIsIdempotent(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.sessions.RegisterByEmail(ctx, testEmail, testPassword))
	require.NoError(t, e.sessions.ConfirmEmail(ctx, e.sender.confirmTokens[0]))
	login, err := e.sessions.LoginByEmail(ctx, testEmail, testPassword, false)
	require.NoError(t, err)

	assert.NoError(t, e.sessions.Logout(ctx, login.RefreshToken))
	assert.NoError(t, e.sessions.Logout(ctx, login.RefreshToken))
	assert.NoError(t, e.sessions.Logout(ctx, "never-issued"))

	_, err = e.sessions.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMeReturnsIdentity(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.sessions.RegisterByEmail(ctx, testEmail, testPassword))
	user, err := e.st.Users.FindByEmail(ctx, testEmail)
	require.NoError(t, err)

	got, err := e.sessions.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}
