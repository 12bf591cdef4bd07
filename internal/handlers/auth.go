package handlers

import (
	"errors"
	"net/mail"

	"github.com/gofiber/fiber/v2"

	"github.com/example/authsvc/internal/middleware"
	"github.com/example/authsvc/internal/models"
	"github.com/example/authsvc/internal/services"
	"github.com/example/authsvc/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	sessions *services.SessionService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type sendCodeRequest struct {
	Phone string `json:"phone"`
}

// SendCode issues a verification code for the phone number.
func (h *AuthHandler) SendCode(c *fiber.Ctx) error {
	var req sendCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if !utils.ValidPhone(req.Phone) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone number")
	}

	if err := h.sessions.SendCode(c.UserContext(), req.Phone); err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{"message": "code sent"})
}

type verifyPhoneRequest struct {
	Phone      string `json:"phone"`
	Code       string `json:"code"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// VerifyPhone validates a code, registering the identity on first contact.
func (h *AuthHandler) VerifyPhone(c *fiber.Ctx) error {
	var req verifyPhoneRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if !utils.ValidPhone(req.Phone) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone number")
	}
	if !utils.ValidCode(req.Code) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid code format")
	}

	result, err := h.sessions.VerifyPhone(c.UserContext(), services.VerifyPhoneInput{
		Phone:      req.Phone,
		Code:       req.Code,
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(authResponse(result))
}

type emailRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterEmail creates an inactive identity pending email confirmation.
func (h *AuthHandler) RegisterEmail(c *fiber.Ctx) error {
	var req emailRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validateEmailPassword(req.Email, req.Password); err != nil {
		return err
	}

	if err := h.sessions.RegisterByEmail(c.UserContext(), req.Email, req.Password); err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{"message": "confirmation sent"})
}

// ConfirmEmail activates an identity from a confirmation link.
func (h *AuthHandler) ConfirmEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token is required")
	}

	if err := h.sessions.ConfirmEmail(c.UserContext(), token); err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{"message": "email confirmed"})
}

type emailLoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// LoginEmail authenticates by email and password.
func (h *AuthHandler) LoginEmail(c *fiber.Ctx) error {
	var req emailLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.sessions.LoginByEmail(c.UserContext(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(authResponse(result))
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword starts the reset flow. The response never reveals whether
// the email belongs to an account.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email is required")
	}

	if err := h.sessions.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{"message": "if the email exists, a reset link was sent"})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword consumes a reset token and updates the password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Token == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token is required")
	}
	if len(req.NewPassword) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	if err := h.sessions.ResetPassword(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{"message": "password updated"})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token and returns a new token pair.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.RefreshToken == "" {
		return fiber.NewError(fiber.StatusBadRequest, "refresh_token is required")
	}

	result, err := h.sessions.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid refresh token")
		}
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
	})
}

// Logout revokes a single refresh token. Idempotent.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.sessions.Logout(c.UserContext(), req.RefreshToken); err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{"message": "logged out"})
}

// Me returns the public identity summary for the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	user, err := h.sessions.Me(c.UserContext(), userID)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{"user": publicUser(user)})
}

func validateEmailPassword(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid email address")
	}
	if len(password) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
	}
	return nil
}

func authResponse(result *services.AuthResult) fiber.Map {
	return fiber.Map{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user":          publicUser(result.User),
	}
}

// publicUser exposes the identity summary. The password hash and internal
// token columns never leave the service.
func publicUser(user *models.User) fiber.Map {
	return fiber.Map{
		"id":        user.ID,
		"phone":     user.Phone,
		"email":     user.Email,
		"is_active": user.IsActive,
	}
}

func mapDomainError(err error) error {
	switch {
	case errors.Is(err, services.ErrRateLimited):
		return fiber.NewError(fiber.StatusTooManyRequests, "too many requests")
	case errors.Is(err, services.ErrCodeExpired), errors.Is(err, services.ErrCodeMismatch):
		return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired code")
	case errors.Is(err, services.ErrAccountLocked):
		return fiber.NewError(fiber.StatusLocked, "account temporarily locked")
	case errors.Is(err, services.ErrEmailTaken):
		return fiber.NewError(fiber.StatusBadRequest, "email already registered")
	case errors.Is(err, services.ErrInvalidToken):
		return fiber.NewError(fiber.StatusBadRequest, "invalid or expired token")
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrMissingRegistrationFields):
		return fiber.NewError(fiber.StatusBadRequest, "email and password required for registration")
	default:
		return err
	}
}
