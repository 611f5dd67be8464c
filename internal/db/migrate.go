package db

import (
	"github.com/karndiy/gold-vertical-panel/internal/models"
)

// AutoMigrate creates the ledger tables. Running it against an existing
// database is a no-op.
func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.ProcessedUpdate{},
		&models.WorkflowRun{},
	)
}
