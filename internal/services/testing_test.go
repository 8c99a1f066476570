package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

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

// stubPaymentGateway answers every confirmation the same way.
type stubPaymentGateway struct {
	confirmed bool
	amount    int64
	err       error
}

func (s *stubPaymentGateway) ConfirmPayment(_ context.Context, _ string) (*PaymentConfirmation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &PaymentConfirmation{Confirmed: s.confirmed, Amount: s.amount}, nil
}

// stubDrawEngine returns a fixed selection.
type stubDrawEngine struct {
	items []models.DrawnItem
	err   error
}

func (s *stubDrawEngine) ExecuteDrawLogic(_ context.Context, _ uint, count int) ([]models.DrawnItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.items != nil {
		return s.items, nil
	}
	items := make([]models.DrawnItem, count)
	for i := range items {
		items[i] = models.DrawnItem{ItemID: uint(i + 1), Name: "voice clip", Rarity: "N"}
	}
	return items, nil
}
