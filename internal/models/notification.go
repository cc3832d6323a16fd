package models

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationBuyerAssigned     NotificationType = "BUYER_ASSIGNED"
	NotificationFundsLocked       NotificationType = "FUNDS_LOCKED"
	NotificationProductShipped    NotificationType = "PRODUCT_SHIPPED"
	NotificationFundsReleased     NotificationType = "FUNDS_RELEASED"
	NotificationContractCompleted NotificationType = "CONTRACT_COMPLETED"
	NotificationDisputeOpened     NotificationType = "DISPUTE_OPENED"
	NotificationPaymentRefunded   NotificationType = "PAYMENT_REFUNDED"
)

type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    uint             `json:"user_id" gorm:"not null;index"`
	Type      NotificationType `json:"type" gorm:"type:varchar(50);not null"`
	Title     string           `json:"title" gorm:"type:varchar(255);not null"`
	Message   string           `json:"message" gorm:"type:text;not null"`
	IsRead    bool             `json:"is_read" gorm:"default:false;index"`
	Data      string           `json:"data" gorm:"type:json"`
	CreatedAt time.Time        `json:"created_at"`
	ReadAt    *time.Time       `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate hook
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	n.CreatedAt = time.Now()
	return nil
}
