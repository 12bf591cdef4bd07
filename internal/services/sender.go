package services

import (
	"context"
	"log/slog"
)

// SMSSender delivers verification codes to phone numbers.
type SMSSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// MailSender delivers confirmation and password-reset emails.
type MailSender interface {
	SendConfirmation(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogSender is a stub delivery implementation that writes messages to the
// structured logger until a real SMS/email provider is wired in.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a logging delivery stub.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// SendCode logs the verification code instead of sending an SMS.
func (s *LogSender) SendCode(_ context.Context, phone, code string) error {
	s.logger.Info("sms code issued", "phone", phone, "code", code)
	return nil
}

// SendConfirmation logs the email confirmation token.
func (s *LogSender) SendConfirmation(_ context.Context, email, token string) error {
	s.logger.Info("confirmation email queued", "email", email, "token", token)
	return nil
}

// SendPasswordReset logs the password reset token.
func (s *LogSender) SendPasswordReset(_ context.Context, email, token string) error {
	s.logger.Info("password reset email queued", "email", email, "token", token)
	return nil
}
