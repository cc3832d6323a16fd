package routes

import (
	"github.com/gofiber/fiber/v2"

	"kiwi/internal/handlers"
	"kiwi/internal/middleware"
)

func SetupContractRoutes(app *fiber.App) {
	contracts := app.Group("/api/contracts")

	// Lookup by QR deep link or access code. Public: anonymous buyers can
	// preview a listing before signing up.
	contracts.Get("/lookup", middleware.OptionalAuth(), handlers.LookupContract)
	contracts.Post("/lookup", middleware.OptionalAuth(), handlers.LookupContract)

	protected := contracts.Group("", middleware.Protected())

	// Create and publish a listing
	protected.Post("/create", handlers.CreateContract)

	// My listings (seller side)
	protected.Get("/", handlers.GetMyContracts)

	// Every contract I participate in, both sides
	protected.Get("/my-transactions", handlers.GetMyTransactions)

	// Contract detail and tracking
	protected.Get("/:id", handlers.GetContract)
	protected.Get("/:id/tracking", handlers.GetContractTracking)

	// Payment and lifecycle actions
	protected.Post("/:id/initiate-payment", handlers.InitiatePayment)
	protected.Post("/:id/confirm-payment", handlers.ConfirmPayment)
	protected.Post("/:id/confirm-shipment", handlers.ConfirmShipment)
	protected.Post("/:id/release-funds", handlers.ReleaseFunds)
	protected.Post("/:id/complete", handlers.CompleteContract)

	// Dispute
	protected.Post("/:id/dispute", handlers.ReportProblem)
}
