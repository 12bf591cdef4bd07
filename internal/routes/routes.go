package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/authsvc/internal/config"
	"github.com/example/authsvc/internal/handlers"
	"github.com/example/authsvc/internal/middleware"
	"github.com/example/authsvc/internal/services"
	"github.com/example/authsvc/internal/store"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cache *redis.Client, cfg *config.Config, logger *slog.Logger) {
	st := store.NewGorm(db)
	sender := services.NewLogSender(logger)

	verification := services.NewVerificationService(st, cfg, sender)
	tokens := services.NewTokenService(st.Refresh, cfg)
	sessions := services.NewSessionService(st, verification, tokens, sender, cfg)

	authHandler := handlers.NewAuthHandler(sessions)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	auth := api.Group("/auth")

	phone := auth.Group("/phone")
	phone.Post("/send-code", middleware.SendCodeRateLimit(cache, cfg.SendCodeRateLimit), authHandler.SendCode)
	phone.Post("/verify", authHandler.VerifyPhone)

	email := auth.Group("/email")
	email.Post("/register", authHandler.RegisterEmail)
	email.Get("/confirm", authHandler.ConfirmEmail)
	email.Post("/login", authHandler.LoginEmail)
	email.Post("/forgot", authHandler.ForgotPassword)
	email.Post("/reset", authHandler.ResetPassword)

	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)
}
