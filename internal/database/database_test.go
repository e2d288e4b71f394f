package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/freelance-crm/relation-bot/internal/config"
	"github.com/freelance-crm/relation-bot/internal/database"
	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestNewDatabase_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{Driver: "sqlite", Path: "file:newdb?mode=memory&cache=shared"}

	db, err := database.NewDatabase(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	assert.True(t, db.Migrator().HasTable(&domain.Project{}))
	assert.True(t, db.Migrator().HasTable(&domain.ReportArchive{}))
	assert.Nil(t, database.TxOptions(db))
	assert.Nil(t, database.ReadOnlyTxOptions(db))
}

func TestHealthCheckWithStats(t *testing.T) {
	db := testutil.SetupTestDB(t)

	require.NoError(t, database.HealthCheck(db))
	stats, err := database.HealthCheckWithStats(db)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	boom := errors.New("boom")

	err := database.Transaction(context.Background(), db, database.TxOptions(db), func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&domain.Client{CompanyName: "Rolled Back"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&domain.Client{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransaction_AcceptsOptions(t *testing.T) {
	db := testutil.SetupTestDB(t)

	err := database.Transaction(context.Background(), db, &sql.TxOptions{}, func(tx *gorm.DB) error {
		return tx.Create(&domain.Client{CompanyName: "Committed"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.Client{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEmbeddedMigrations(t *testing.T) {
	versions, err := database.EmbeddedMigrations()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, versions)
}

func TestMigrate_Rejections(t *testing.T) {
	_, err := database.OpenMigrationDB(context.Background(), &config.DatabaseConfig{Driver: "sqlite"})
	assert.Error(t, err)

	err = database.Migrate(context.Background(), nil, "sideways")
	assert.ErrorContains(t, err, "unknown migrate command")

	err = database.Migrate(context.Background(), nil, "create")
	assert.ErrorContains(t, err, "requires a migration name")
}
