package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"kiwi/internal/services"
)

func contractIDParam(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// InitiatePayment creates (or returns) the pending bank voucher for the
// buyer, with the QR the banking app scans.
func InitiatePayment(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	contractID, ok := contractIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ID de contrato inválido",
		})
	}

	payment, err := escrowService.InitiatePayment(userID, contractID)
	if err != nil {
		return serviceError(c, err)
	}

	qrImage, err := services.QRCodeImage(payment.QRCodeData)
	if err != nil {
		log.Printf("Failed to render payment QR: %v", err)
	}

	return c.JSON(fiber.Map{
		"payment": fiber.Map{
			"id":          payment.ID,
			"contract_id": payment.ContractID,
			"reference":   payment.Reference,
			"amount":      payment.Amount,
			"currency":    "BOB",
			"status":      payment.Status,
			"created_at":  payment.CreatedAt,
		},
		"qr_image": qrImage,
	})
}

// ConfirmPayment confirms the pending voucher and locks the funds.
func ConfirmPayment(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	contractID, ok := contractIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ID de contrato inválido",
		})
	}

	contract, err := escrowService.ConfirmPayment(userID, contractID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Pago confirmado. Los fondos están en custodia.",
		"contract": contractResponse(contract, userID),
	})
}

// ConfirmShipment marks the product as dispatched (seller action).
func ConfirmShipment(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	contractID, ok := contractIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ID de contrato inválido",
		})
	}

	contract, err := escrowService.ConfirmShipment(userID, contractID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Envío confirmado. El comprador ha sido notificado.",
		"contract": contractResponse(contract, userID),
	})
}

// ReleaseFunds confirms receipt and releases the escrowed funds (buyer action).
func ReleaseFunds(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	contractID, ok := contractIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ID de contrato inválido",
		})
	}

	contract, err := escrowService.ReleaseFunds(userID, contractID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Recepción confirmada. Los fondos serán liberados al vendedor.",
		"contract": contractResponse(contract, userID),
	})
}

// CompleteContract stamps the payout as done (seller action).
func CompleteContract(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	contractID, ok := contractIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ID de contrato inválido",
		})
	}

	contract, err := escrowService.Complete(userID, contractID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Transacción completada.",
		"contract": contractResponse(contract, userID),
	})
}
