package routes

import (
	"github.com/gofiber/fiber/v2"

	"kiwi/internal/handlers"
	"kiwi/internal/middleware"
)

func SetupRoutes(app *fiber.App) {
	// API routes
	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")

	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	// Password reset flow with OTP
	auth.Post("/forgot-password", handlers.ForgotPassword)
	auth.Post("/reset-password", handlers.ResetPassword)

	// Current user
	auth.Get("/user", middleware.Protected(), handlers.GetCurrentUser)

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Kiwi API v1.0",
			"status":  "running",
		})
	})
}
