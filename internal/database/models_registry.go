package database

import "murmur/internal/models"

// PersistentModels returns the schema-managed GORM models in dependency order.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Follow{},
		&models.Post{},
		&models.Attachment{},
		&models.Like{},
		&models.Repost{},
		&models.Comment{},
	}
}
