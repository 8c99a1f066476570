package repositories

import (
	"fmt"
	"testing"

	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a per-test in-memory database. A single connection
// serializes concurrent transactions the way row locks do in postgres.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.UserBalance{},
		&models.LedgerTransaction{},
		&models.ExchangeItem{},
		&models.ExchangeTransaction{},
		&models.UserExchangeItem{},
		&models.Gacha{},
		&models.DrawResult{},
		&models.DrawPaymentRecord{},
	))
	return db
}
