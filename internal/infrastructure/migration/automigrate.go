// Package migration maintains the registry of models managed by AutoMigrate.
package migration

import (
	"gorm.io/gorm"

	"verge/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists every persistence model in migration order.
func AutoMigrateModels() []any {
	return []any{
		&models.PlanModel{},
		&models.UserModel{},
		&models.UserTrafficModel{},
	}
}

// Run applies AutoMigrate for all registered models.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(AutoMigrateModels()...)
}
