package models

import (
	"time"
)

type ContractStatus string

const (
	ContractDraft           ContractStatus = "DRAFT"
	ContractAwaitingPayment ContractStatus = "AWAITING_PAYMENT"
	ContractLocked          ContractStatus = "LOCKED"
	ContractInTransit       ContractStatus = "IN_TRANSIT"
	ContractReleased        ContractStatus = "RELEASED"
	ContractCompleted       ContractStatus = "COMPLETED"
	ContractDisputed        ContractStatus = "DISPUTED"
	ContractRefunded        ContractStatus = "REFUNDED"
)

// IsTerminal reports whether no further transition can leave the status.
// DISPUTED is not terminal: it can still resolve to RELEASED or REFUNDED.
func (s ContractStatus) IsTerminal() bool {
	return s == ContractCompleted || s == ContractRefunded
}

// Product condition choices shown on the listing form.
const (
	ConditionNew        = "Nuevo"
	ConditionLikeNew    = "Usado - como nuevo"
	ConditionGood       = "Usado - buen estado"
	ConditionAcceptable = "Usado - aceptable"
)

var ContractConditions = []string{
	ConditionNew,
	ConditionLikeNew,
	ConditionGood,
	ConditionAcceptable,
}

type Contract struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	SellerID    uint    `gorm:"not null;index" json:"seller_id"`
	BuyerID     *uint   `gorm:"index" json:"buyer_id,omitempty"`
	Title       string  `gorm:"type:varchar(255);not null" json:"title"`
	Description string  `gorm:"type:text" json:"description,omitempty"`
	Price       float64 `gorm:"not null" json:"price"`
	Condition   string  `gorm:"type:varchar(50);not null" json:"condition"`

	// AccessCode is the short human-enterable identifier; stored uppercase.
	AccessCode string `gorm:"type:varchar(10);uniqueIndex;not null" json:"access_code"`
	// QRCodeData holds the deep link encoded in the listing QR.
	QRCodeData string `gorm:"type:text" json:"qr_code_data"`

	Status ContractStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Seller User            `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Buyer  *User           `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Photos []ContractPhoto `gorm:"foreignKey:ContractID" json:"photos,omitempty"`
}

func (Contract) TableName() string {
	return "contracts"
}

type ContractPhoto struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	ContractID uint   `gorm:"not null;index" json:"contract_id"`
	Image      string `gorm:"type:text;not null" json:"image"`
	PublicID   string `gorm:"type:text" json:"-"`
	// Order 0 is the main photo.
	Order      int       `gorm:"column:display_order;not null;default:0" json:"order"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (ContractPhoto) TableName() string {
	return "contract_photos"
}

// MainPhoto returns the URL of the order-0 photo, or "" when there is none.
func (c *Contract) MainPhoto() string {
	for _, p := range c.Photos {
		if p.Order == 0 {
			return p.Image
		}
	}
	if len(c.Photos) > 0 {
		return c.Photos[0].Image
	}
	return ""
}
