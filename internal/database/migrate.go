package database

import (
	"fmt"
	"log"

	"kiwi/internal/models"
)

func Migrate() error {
	log.Println("Running database migrations...")

	err := DB.AutoMigrate(
		&models.User{},
		&models.Contract{},
		&models.ContractPhoto{},
		&models.Payment{},
		&models.Notification{},
		&models.KYCVerification{},
	)

	if err != nil {
		log.Printf("Error migrating database: %v", err)
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Println("Database migration completed successfully")
	return nil
}
