package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"kiwi/internal/database"
	"kiwi/internal/models"
)

// GetNotifications returns the user's notifications, newest first.
// ?unread=true filters to unread only.
func GetNotifications(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	query := database.DB.Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error al obtener notificaciones",
		})
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// GetUnreadCount returns the badge count.
func GetUnreadCount(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var count int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error al contar notificaciones",
		})
	}

	return c.JSON(fiber.Map{
		"unread_count": count,
	})
}

// MarkNotificationRead marks one of the user's notifications as read.
func MarkNotificationRead(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	notifID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ID de notificación inválido",
		})
	}

	now := time.Now()
	result := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notifID, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error al actualizar la notificación",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notificación no encontrada",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Notificación marcada como leída",
	})
}

// MarkAllNotificationsRead marks every unread notification of the user.
func MarkAllNotificationsRead(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	now := time.Now()
	result := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error al actualizar las notificaciones",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Todas las notificaciones marcadas como leídas",
		"updated": result.RowsAffected,
	})
}

// DeleteNotification removes one of the user's notifications.
func DeleteNotification(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	notifID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ID de notificación inválido",
		})
	}

	result := database.DB.Where("id = ? AND user_id = ?", notifID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error al eliminar la notificación",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notificación no encontrada",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Notificación eliminada",
	})
}
