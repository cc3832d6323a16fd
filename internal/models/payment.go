package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentConfirmed PaymentStatus = "CONFIRMED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment is one payment attempt against a contract. At most one PENDING
// payment exists per contract at a time; confirming it locks the contract.
type Payment struct {
	ID         uint          `gorm:"primarykey" json:"id"`
	ContractID uint          `gorm:"not null;index" json:"contract_id"`
	Reference  string        `gorm:"type:varchar(40);uniqueIndex;not null" json:"payment_reference"`
	Amount     float64       `gorm:"not null" json:"amount"`
	Status     PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	// QRCodeData is the bank voucher payload the buyer scans to pay.
	QRCodeData  string     `gorm:"type:text" json:"qr_code_data"`
	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`

	Contract Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}
