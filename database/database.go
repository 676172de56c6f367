package database

import (
	"fmt"
	"time"

	"owner-console/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.EditorSession{}); err != nil {
		return fmt.Errorf("failed to migrate editor sessions: %w", err)
	}
	return nil
}

// StaleSessions returns the saved editor sessions last touched before cutoff,
// oldest first.
func StaleSessions(db *gorm.DB, cutoff time.Time) ([]models.EditorSession, error) {
	var rows []models.EditorSession
	if err := db.Where("updated_at < ?", cutoff).Order("updated_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list stale editor sessions: %w", err)
	}
	return rows, nil
}
