package handlers

import (
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"kiwi/internal/escrow"
	"kiwi/internal/models"
	"kiwi/internal/services"
)

var (
	escrowService     *escrow.EscrowService
	cloudinaryService *services.CloudinaryService
)

// InitContractHandlers wires the contract handlers to their services.
func InitContractHandlers(svc *escrow.EscrowService, cloud *services.CloudinaryService) {
	escrowService = svc
	cloudinaryService = cloud
}

type LookupContractRequest struct {
	Input string `json:"input" validate:"required"`
}

type ReportProblemRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// currentUserID reads the authenticated user from locals. Returns 0 on
// routes behind OptionalAuth when no token was presented.
func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("user_id").(uint); ok {
		return id
	}
	return 0
}

// CreateContract handles the multipart listing form: photos go to Cloudinary
// first, then the contract is created and published in one step.
func CreateContract(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Formulario inválido",
		})
	}

	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "El precio debe ser un número",
		})
	}

	photos := form.File["photos"]
	if len(photos) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Se requiere al menos una foto",
		})
	}

	uploads, err := cloudinaryService.UploadImages(photos, services.FolderContractPhotos)
	if err != nil {
		log.Printf("❌ Photo upload failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "No se pudieron subir las fotos",
		})
	}

	input := escrow.CreateContractInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Price:       price,
		Condition:   c.FormValue("condition"),
	}
	for _, up := range uploads {
		input.Photos = append(input.Photos, escrow.PhotoInput{
			URL:      up.SecureURL,
			PublicID: up.PublicID,
		})
	}

	contract, err := escrowService.Create(userID, input)
	if err != nil {
		// The listing failed after the upload; don't leave orphan photos.
		for _, up := range uploads {
			if delErr := cloudinaryService.DeleteFile(up.PublicID); delErr != nil {
				log.Printf("Failed to roll back upload %s: %v", up.PublicID, delErr)
			}
		}
		return serviceError(c, err)
	}

	qrImage, err := services.QRCodeImage(contract.QRCodeData)
	if err != nil {
		log.Printf("Failed to render contract QR: %v", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Contrato creado exitosamente",
		"contract": contractResponse(contract, userID),
		"qr_image": qrImage,
	})
}

// GetMyContracts lists the caller's own listings.
func GetMyContracts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	contracts, err := escrowService.ListForSeller(userID)
	if err != nil {
		return serviceError(c, err)
	}

	out := make([]fiber.Map, 0, len(contracts))
	for i := range contracts {
		out = append(out, contractResponse(&contracts[i], userID))
	}

	return c.JSON(fiber.Map{
		"contracts": out,
		"count":     len(out),
	})
}

// GetMyTransactions lists every contract the caller participates in.
func GetMyTransactions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	transactions, err := escrowService.MyTransactions(userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// GetContract fetches a single contract by id for a participant.
func GetContract(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	contractID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ID de contrato inválido",
		})
	}

	contract, err := escrowService.LookupByID(userID, uint(contractID))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"contract": contractResponse(contract, userID),
	})
}

// LookupContract resolves a scanned QR or a typed access code. The route is
// public: anonymous callers can preview a listing, authenticated non-sellers
// claim the buyer slot on first open.
func LookupContract(c *fiber.Ctx) error {
	input := c.Query("code", c.Query("input"))
	if input == "" {
		req := new(LookupContractRequest)
		if err := c.BodyParser(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Cuerpo de solicitud inválido",
			})
		}
		input = req.Input
	}

	lookup, err := escrow.ResolveInput(input)
	if err != nil {
		return serviceError(c, err)
	}

	userID := currentUserID(c)

	var contract *models.Contract
	switch lookup.Kind {
	case escrow.KindID:
		id, parseErr := strconv.ParseUint(lookup.Value, 10, 32)
		if parseErr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "ID de contrato inválido",
			})
		}
		if userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Inicia sesión para abrir un contrato por ID",
			})
		}
		contract, err = escrowService.LookupByID(userID, uint(id))
	case escrow.KindCode:
		contract, err = escrowService.LookupByCode(userID, lookup.Value)
	}
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"contract": contractResponse(contract, userID),
	})
}

// GetContractTracking serves the progress screen: timeline steps plus the
// actions the caller's role may currently take.
func GetContractTracking(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	contractID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ID de contrato inválido",
		})
	}

	contract, err := escrowService.LookupByID(userID, uint(contractID))
	if err != nil {
		return serviceError(c, err)
	}

	steps, halted := escrow.Timeline(contract.Status)
	actions := escrow.PermittedActions(contract.Status)

	role := "seller"
	if contract.SellerID != userID {
		role = "buyer"
	}

	return c.JSON(fiber.Map{
		"contract_id": contract.ID,
		"status":      contract.Status,
		"role":        role,
		"timeline":    steps,
		"halted":      halted,
		"actions":     actions,
	})
}

// ReportProblem opens a dispute on the contract.
func ReportProblem(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	contractID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ID de contrato inválido",
		})
	}

	req := new(ReportProblemRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cuerpo de solicitud inválido",
		})
	}

	contract, err := escrowService.OpenDispute(userID, uint(contractID), req.Reason)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Disputa registrada. Nuestro equipo revisará el caso.",
		"contract": contractResponse(contract, userID),
	})
}

// contractResponse shapes a contract for the client, hiding the access code
// from everyone but the seller.
func contractResponse(contract *models.Contract, viewerID uint) fiber.Map {
	photos := make([]fiber.Map, 0, len(contract.Photos))
	for _, p := range contract.Photos {
		photos = append(photos, fiber.Map{
			"id":    p.ID,
			"image": p.Image,
			"order": p.Order,
		})
	}

	resp := fiber.Map{
		"id":           contract.ID,
		"title":        contract.Title,
		"description":  contract.Description,
		"price":        contract.Price,
		"currency":     "BOB",
		"condition":    contract.Condition,
		"status":       contract.Status,
		"seller_id":    contract.SellerID,
		"seller_name":  contract.Seller.DisplayName(),
		"buyer_id":     contract.BuyerID,
		"photos":       photos,
		"main_photo":   contract.MainPhoto(),
		"qr_code_data": contract.QRCodeData,
		"created_at":   contract.CreatedAt,
		"updated_at":   contract.UpdatedAt,
	}

	if contract.Buyer != nil {
		resp["buyer_name"] = contract.Buyer.DisplayName()
	}
	if viewerID == contract.SellerID {
		resp["access_code"] = contract.AccessCode
		resp["share_text"] = fmt.Sprintf("Compra \"%s\" en Kiwi con el código %s", contract.Title, contract.AccessCode)
	}

	return resp
}
