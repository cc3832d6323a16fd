package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kiwi/internal/escrow"
)

// serviceError maps a service-layer error onto the HTTP response. Wrapped
// sentinel errors carry the user-facing Spanish detail in their message.
func serviceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Error interno del servidor"

	switch {
	case errors.Is(err, escrow.ErrInvalidInput),
		errors.Is(err, escrow.ErrValidation),
		errors.Is(err, escrow.ErrIllegalTransition):
		status = fiber.StatusBadRequest
		message = err.Error()
	case errors.Is(err, escrow.ErrAuthRequired):
		status = fiber.StatusUnauthorized
		message = "Autenticación requerida"
	case errors.Is(err, escrow.ErrPermissionDenied):
		status = fiber.StatusForbidden
		message = err.Error()
	case errors.Is(err, escrow.ErrNotFound):
		status = fiber.StatusNotFound
		message = "Contrato no encontrado"
	case errors.Is(err, escrow.ErrConflict):
		status = fiber.StatusConflict
		message = err.Error()
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
