package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"murmur/internal/middleware"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SchemaVersion is bumped whenever PersistentModels changes shape.
const SchemaVersion = 1

// MigrationLog records each schema version applied to the database.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the database table name for MigrationLog.
func (MigrationLog) TableName() string {
	return "migration_logs"
}

// Migrate brings the schema up to SchemaVersion and records it.
func Migrate(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)

	if err := tx.AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("failed to ensure migration log table: %w", err)
	}
	if err := tx.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&MigrationLog{Version: SchemaVersion})
	if res.Error != nil {
		return fmt.Errorf("failed to record schema version %d: %w", SchemaVersion, res.Error)
	}
	if res.RowsAffected > 0 {
		middleware.Logger.InfoContext(ctx, "Database migration completed", slog.Int("version", SchemaVersion))
	}
	return nil
}

// CurrentVersion returns the highest applied schema version, or 0.
func CurrentVersion(ctx context.Context, db *gorm.DB) (int, error) {
	var log MigrationLog
	err := db.WithContext(ctx).Order("version DESC").First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		if !db.Migrator().HasTable(&MigrationLog{}) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return log.Version, nil
}
