package routes

import (
	"github.com/gofiber/fiber/v2"

	"kiwi/internal/handlers"
	"kiwi/internal/middleware"
)

func SetupKYCRoutes(app *fiber.App) {
	kyc := app.Group("/api/auth/kyc", middleware.Protected())

	kyc.Post("/submit", handlers.SubmitKYC)
	kyc.Post("/resubmit", handlers.ResubmitKYC)
	kyc.Get("/status", handlers.GetKYCStatus)
}
