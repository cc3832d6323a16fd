package handlers

import (
	"log"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"kiwi/internal/database"
	"kiwi/internal/models"
	"kiwi/internal/services"
)

var validDocumentTypes = map[models.KYCDocumentType]bool{
	models.DocumentCI:       true,
	models.DocumentPassport: true,
	models.DocumentLicense:  true,
}

// SubmitKYC receives the document photos and selfie as multipart form data.
// A pending or approved submission blocks a new one; a rejected submission
// is replaced.
func SubmitKYC(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	docType := models.KYCDocumentType(c.FormValue("document_type"))
	if !validDocumentTypes[docType] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Tipo de documento inválido. Usa CI, Passport o License",
		})
	}

	var existing models.KYCVerification
	err := database.DB.Where("user_id = ?", userID).Order("submitted_at DESC").First(&existing).Error
	if err == nil && existing.Status != models.KYCRejected {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Ya tienes una verificación en proceso o aprobada",
		})
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error de base de datos",
		})
	}

	front, err := c.FormFile("document_front")
	if err != nil {
		return kycMissingFile(c, "document_front")
	}
	back, err := c.FormFile("document_back")
	if err != nil {
		return kycMissingFile(c, "document_back")
	}
	selfie, err := c.FormFile("selfie_image")
	if err != nil {
		return kycMissingFile(c, "selfie_image")
	}

	uploads, err := uploadKYCFiles(front, back, selfie)
	if err != nil {
		log.Printf("❌ KYC upload failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "No se pudieron subir los documentos",
		})
	}

	verification := models.KYCVerification{
		UserID:                userID,
		DocumentType:          docType,
		DocumentFront:         uploads[0].SecureURL,
		DocumentFrontPublicID: uploads[0].PublicID,
		DocumentBack:          uploads[1].SecureURL,
		DocumentBackPublicID:  uploads[1].PublicID,
		SelfieImage:           uploads[2].SecureURL,
		SelfieImagePublicID:   uploads[2].PublicID,
		Status:                models.KYCPending,
	}

	if err := database.DB.Create(&verification).Error; err != nil {
		for _, up := range uploads {
			if delErr := cloudinaryService.DeleteFile(up.PublicID); delErr != nil {
				log.Printf("Failed to roll back KYC upload %s: %v", up.PublicID, delErr)
			}
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error al registrar la verificación",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Documentos recibidos. Tu verificación está en revisión.",
		"verification": fiber.Map{
			"id":            verification.ID,
			"document_type": verification.DocumentType,
			"status":        verification.Status,
			"submitted_at":  verification.SubmittedAt,
		},
	})
}

// ResubmitKYC replaces a rejected submission with fresh documents. The old
// files are removed from Cloudinary once the new submission is stored.
func ResubmitKYC(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var previous models.KYCVerification
	err := database.DB.Where("user_id = ?", userID).Order("submitted_at DESC").First(&previous).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No tienes una verificación previa. Usa el envío inicial.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error de base de datos",
		})
	}
	if previous.Status != models.KYCRejected {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Solo puedes reenviar documentos después de un rechazo",
		})
	}

	if err := SubmitKYC(c); err != nil {
		return err
	}
	if c.Response().StatusCode() != fiber.StatusCreated {
		return nil
	}

	// The new submission is in; the rejected one and its files can go.
	for _, publicID := range []string{previous.DocumentFrontPublicID, previous.DocumentBackPublicID, previous.SelfieImagePublicID} {
		if publicID == "" {
			continue
		}
		if delErr := cloudinaryService.DeleteFile(publicID); delErr != nil {
			log.Printf("Failed to delete old KYC file %s: %v", publicID, delErr)
		}
	}
	if delErr := database.DB.Delete(&previous).Error; delErr != nil {
		log.Printf("Failed to delete rejected KYC submission %d: %v", previous.ID, delErr)
	}

	return nil
}

// GetKYCStatus returns the state of the user's latest submission.
func GetKYCStatus(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var verification models.KYCVerification
	err := database.DB.Where("user_id = ?", userID).Order("submitted_at DESC").First(&verification).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(fiber.Map{
				"kyc_status": "not_submitted",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error de base de datos",
		})
	}

	status := "pending"
	switch verification.Status {
	case models.KYCApproved:
		status = "verified"
	case models.KYCRejected:
		status = "rejected"
	}

	resp := fiber.Map{
		"kyc_status":    status,
		"document_type": verification.DocumentType,
		"submitted_at":  verification.SubmittedAt,
	}
	if verification.Status == models.KYCRejected {
		resp["rejection_reason"] = verification.RejectionReason
	}

	return c.JSON(resp)
}

func uploadKYCFiles(files ...*multipart.FileHeader) ([]*services.UploadResult, error) {
	return cloudinaryService.UploadImages(files, services.FolderKYCDocuments)
}

func kycMissingFile(c *fiber.Ctx, field string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Falta el archivo " + field,
	})
}
