package database

import (
	"fmt"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for every cookbook model
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	log.Info("Database schema migrated")
	return nil
}
