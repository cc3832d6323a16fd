package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	Username  string `gorm:"uniqueIndex;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string `gorm:"type:varchar(100)" json:"first_name"`
	LastName  string `gorm:"type:varchar(100)" json:"last_name"`
	Phone     string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	CINumber  string `gorm:"type:varchar(20);index" json:"ci_number,omitempty"`
	Password  string `gorm:"not null" json:"-"`

	// IsVerified flips when a KYC submission is approved.
	IsVerified bool `gorm:"default:false" json:"is_verified"`

	// Password-reset OTP, emailed on forgot-password.
	ResetOTP       string     `gorm:"index" json:"-"`
	ResetOTPExpiry *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName returns "First Last" when both are present, otherwise the username.
func (u *User) DisplayName() string {
	if u.FirstName != "" && u.LastName != "" {
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return u.Username
}
