package db

import (
	"fmt"

	"github.com/linebid/linebid/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Operation{},
		&models.User{},
		&models.ShiftCode{},
		&models.BidPeriod{},
		&models.Schedule{},
		&models.ScheduleDay{},
		&models.BidLine{},
		&models.FavoriteLine{},
		&models.MetricsResult{},
		&models.ActivityLog{},
		&models.Holiday{},
		&models.Notification{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
