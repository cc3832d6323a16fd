package routes

import (
	"github.com/gofiber/fiber/v2"

	"kiwi/internal/handlers"
	"kiwi/internal/middleware"
)

func SetupNotificationRoutes(app *fiber.App) {
	notifications := app.Group("/api/notifications", middleware.Protected())

	notifications.Get("/", handlers.GetNotifications)
	notifications.Get("/unread-count", handlers.GetUnreadCount)
	notifications.Post("/mark-all-read", handlers.MarkAllNotificationsRead)
	notifications.Post("/:id/mark-read", handlers.MarkNotificationRead)
	notifications.Delete("/:id", handlers.DeleteNotification)
}
