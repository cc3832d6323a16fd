package models

import (
	"time"

	"gorm.io/gorm"
)

type KYCStatus string
type KYCDocumentType string

const (
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

const (
	DocumentCI       KYCDocumentType = "CI"
	DocumentPassport KYCDocumentType = "Passport"
	DocumentLicense  KYCDocumentType = "License"
)

// KYCVerification is one identity-verification submission: document front
// and back plus a selfie, reviewed out of band.
type KYCVerification struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	UserID       uint            `gorm:"not null;index" json:"user_id"`
	DocumentType KYCDocumentType `gorm:"type:varchar(20);not null" json:"document_type"`

	DocumentFront         string `gorm:"type:text;not null" json:"document_front"`
	DocumentFrontPublicID string `gorm:"type:text" json:"-"`
	DocumentBack          string `gorm:"type:text;not null" json:"document_back"`
	DocumentBackPublicID  string `gorm:"type:text" json:"-"`
	SelfieImage           string `gorm:"type:text;not null" json:"selfie_image"`
	SelfieImagePublicID   string `gorm:"type:text" json:"-"`

	Status          KYCStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	RejectionReason string    `gorm:"type:text" json:"rejection_reason,omitempty"`

	SubmittedAt time.Time      `gorm:"autoCreateTime" json:"submitted_at"`
	ReviewedAt  *time.Time     `json:"reviewed_at,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (KYCVerification) TableName() string {
	return "kyc_verifications"
}
