package persistence

import (
	"testing"

	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with every model migrated.
// One connection keeps all queries on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(
		&models.OrderWorkflowModel{},
		&models.QueueJobModel{},
		&models.ProductSnapshotModel{},
		&models.ForwarderCredentialModel{},
		&models.DutyRateModel{},
	)
	require.NoError(t, err)
	return db
}
