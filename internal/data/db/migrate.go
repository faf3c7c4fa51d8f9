package db

import (
	"fmt"

	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&health.FoodItem{},
		&health.FoodLog{},
		&health.MetricLog{},
		&health.ActivityType{},
		&health.ActivityLog{},
	)
}

// EnsureHealthIndexes creates the partial expression indexes gorm tags cannot
// express. Every statement is valid on Postgres and SQLite.
func EnsureHealthIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_food_item_owner_name",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_food_item_owner_name
				ON food_item (owner_id, lower(name))
				WHERE deleted_at IS NULL AND owner_id IS NOT NULL;`,
		},
		{
			name: "idx_food_item_public_name",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_food_item_public_name
				ON food_item (lower(name))
				WHERE deleted_at IS NULL AND owner_id IS NULL;`,
		},
		{
			name: "idx_activity_type_owner_name",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_activity_type_owner_name
				ON activity_type (owner_id, lower(name))
				WHERE deleted_at IS NULL AND owner_id IS NOT NULL;`,
		},
		{
			name: "idx_activity_type_public_name",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_activity_type_public_name
				ON activity_type (lower(name))
				WHERE deleted_at IS NULL AND owner_id IS NULL;`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}

// Migrate runs AutoMigrateAll then EnsureHealthIndexes.
func Migrate(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureHealthIndexes(db)
}
