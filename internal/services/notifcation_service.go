package services

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"kiwi/internal/models"
)

type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// CreateNotification writes a notification through db, which may be a
// transaction handle so the write commits or rolls back with the status
// change that produced it.
func (s *NotificationService) CreateNotification(db *gorm.DB, userID uint, notifType models.NotificationType, title, message string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		jsonBytes, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
		dataJSON = string(jsonBytes)
	}

	notification := models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Data:    dataJSON,
		IsRead:  false,
	}

	if err := db.Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// NotifyBuyerAssigned notifies the seller when a buyer locates the listing
func (s *NotificationService) NotifyBuyerAssigned(db *gorm.DB, sellerID uint, buyerName, contractTitle string, contractID uint) error {
	return s.CreateNotification(
		db,
		sellerID,
		models.NotificationBuyerAssigned,
		"Comprador interesado",
		fmt.Sprintf("%s ha abierto tu contrato \"%s\"", buyerName, contractTitle),
		map[string]interface{}{
			"contract_id":    contractID,
			"contract_title": contractTitle,
			"buyer_name":     buyerName,
		},
	)
}

// NotifyFundsLocked notifies the seller when the buyer's payment is confirmed
func (s *NotificationService) NotifyFundsLocked(db *gorm.DB, sellerID uint, buyerName string, amount float64, contractTitle string, contractID uint) error {
	return s.CreateNotification(
		db,
		sellerID,
		models.NotificationFundsLocked,
		"Pago en custodia",
		fmt.Sprintf("%s pagó Bs %.2f por \"%s\". Los fondos están en custodia, ya puedes enviar el producto.", buyerName, amount, contractTitle),
		map[string]interface{}{
			"contract_id":    contractID,
			"contract_title": contractTitle,
			"buyer_name":     buyerName,
			"amount":         amount,
		},
	)
}

// NotifyProductShipped notifies the buyer when the seller confirms shipment
func (s *NotificationService) NotifyProductShipped(db *gorm.DB, buyerID uint, sellerName, contractTitle string, contractID uint) error {
	return s.CreateNotification(
		db,
		buyerID,
		models.NotificationProductShipped,
		"Producto enviado",
		fmt.Sprintf("%s ha despachado \"%s\". Confirma la recepción cuando llegue.", sellerName, contractTitle),
		map[string]interface{}{
			"contract_id":    contractID,
			"contract_title": contractTitle,
			"seller_name":    sellerName,
		},
	)
}

// NotifyFundsReleased notifies the seller when the buyer releases the funds
func (s *NotificationService) NotifyFundsReleased(db *gorm.DB, sellerID uint, buyerName string, amount float64, contractID uint) error {
	return s.CreateNotification(
		db,
		sellerID,
		models.NotificationFundsReleased,
		"Fondos liberados",
		fmt.Sprintf("%s confirmó la recepción. Bs %.2f serán transferidos a tu cuenta.", buyerName, amount),
		map[string]interface{}{
			"contract_id": contractID,
			"buyer_name":  buyerName,
			"amount":      amount,
		},
	)
}

// NotifyContractCompleted notifies the buyer when the payout goes through
func (s *NotificationService) NotifyContractCompleted(db *gorm.DB, buyerID uint, contractTitle string, contractID uint) error {
	return s.CreateNotification(
		db,
		buyerID,
		models.NotificationContractCompleted,
		"Transacción completada",
		fmt.Sprintf("La transacción \"%s\" ha finalizado. Gracias por usar Kiwi.", contractTitle),
		map[string]interface{}{
			"contract_id":    contractID,
			"contract_title": contractTitle,
		},
	)
}

// NotifyDisputeOpened notifies the counterparty when a dispute is filed
func (s *NotificationService) NotifyDisputeOpened(db *gorm.DB, userID uint, raisedByName, reason string, contractID uint) error {
	return s.CreateNotification(
		db,
		userID,
		models.NotificationDisputeOpened,
		"Disputa abierta",
		fmt.Sprintf("%s ha reportado un problema: %s", raisedByName, reason),
		map[string]interface{}{
			"contract_id":    contractID,
			"raised_by_name": raisedByName,
			"reason":         reason,
		},
	)
}

// NotifyPaymentRefunded notifies a party when the dispute resolves to a refund
func (s *NotificationService) NotifyPaymentRefunded(db *gorm.DB, userID uint, amount float64, contractTitle string, contractID uint) error {
	return s.CreateNotification(
		db,
		userID,
		models.NotificationPaymentRefunded,
		"Pago reembolsado",
		fmt.Sprintf("El pago de Bs %.2f por \"%s\" ha sido reembolsado al comprador.", amount, contractTitle),
		map[string]interface{}{
			"contract_id":    contractID,
			"contract_title": contractTitle,
			"amount":         amount,
		},
	)
}
