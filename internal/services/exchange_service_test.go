package services

import (
	"testing"
	"time"

	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/Goro-naka/koepon-sub001/internal/repositories"
	"github.com/Goro-naka/koepon-sub001/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newExchangeFixture(t *testing.T) (*gorm.DB, *repositories.LedgerRepository, *ExchangeService) {
	t.Helper()
	db := setupTestDB(t)
	ledger := repositories.NewLedgerRepository(db)
	repo := repositories.NewExchangeRepository(db, ledger)
	return db, ledger, NewExchangeService(repo, ledger)
}

func newCatalogItem(t *testing.T, db *gorm.DB, mutate func(*models.ExchangeItem)) *models.ExchangeItem {
	t.Helper()
	now := time.Now().UTC()
	item := &models.ExchangeItem{
		IssuerID:     7,
		Name:         "signed cheki",
		MedalCost:    100,
		TotalStock:   10,
		CurrentStock: 10,
		StartsAt:     now.Add(-time.Hour),
		EndsAt:       now.Add(time.Hour),
		IsActive:     true,
	}
	if mutate != nil {
		mutate(item)
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestExchangeServiceSuccess(t *testing.T) {
	db, ledger, svc := newExchangeFixture(t)
	item := newCatalogItem(t, db, nil)

	_, err := ledger.Credit(1, 7, 500, models.TxTypeDrawReward, "seed")
	require.NoError(t, err)

	exchangeTx, err := svc.ExecuteExchange(1, item.ID, 2)
	require.NoError(t, err)
	require.Equal(t, models.ExchangeStatusCompleted, exchangeTx.Status)
	require.Equal(t, int64(200), exchangeTx.MedalCost)

	balance, err := ledger.GetBalance(1, 7)
	require.NoError(t, err)
	require.Equal(t, int64(300), balance)

	inventory, err := svc.GetInventory(1)
	require.NoError(t, err)
	require.Len(t, inventory, 1)
}

// A request rejected during validation never reaches execution, so no
// FAILED row is written for it.
func TestExchangeServiceValidationLeavesNoTrace(t *testing.T) {
	db, ledger, svc := newExchangeFixture(t)
	item := newCatalogItem(t, db, nil)

	_, err := ledger.Credit(1, 7, 50, models.TxTypeDrawReward, "seed")
	require.NoError(t, err)

	_, err = svc.ExecuteExchange(1, item.ID, 1)
	require.True(t, errors.HasCode(err, errors.ErrCodeInsufficientBalance))

	var count int64
	require.NoError(t, db.Model(&models.ExchangeTransaction{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

// Validation reports the window violation before looking at stock,
// limits, or balance, and stock before balance.
func TestExchangeServiceValidationOrder(t *testing.T) {
	db, _, svc := newExchangeFixture(t)

	// Expired item, zero stock, zero balance: window wins.
	expired := newCatalogItem(t, db, func(i *models.ExchangeItem) {
		i.EndsAt = time.Now().UTC().Add(-time.Minute)
		i.CurrentStock = 0
	})
	_, err := svc.ExecuteExchange(1, expired.ID, 1)
	require.True(t, errors.HasCode(err, errors.ErrCodeExchangePeriodExpired))

	// Open item, zero stock, zero balance: stock wins.
	empty := newCatalogItem(t, db, func(i *models.ExchangeItem) {
		i.CurrentStock = 0
	})
	_, err = svc.ExecuteExchange(1, empty.ID, 1)
	require.True(t, errors.HasCode(err, errors.ErrCodeOutOfStock))
}

func TestExchangeServiceDailyLimit(t *testing.T) {
	db, ledger, svc := newExchangeFixture(t)
	item := newCatalogItem(t, db, func(i *models.ExchangeItem) {
		i.DailyLimit = 1
	})

	_, err := ledger.Credit(1, 7, 1000, models.TxTypeDrawReward, "seed")
	require.NoError(t, err)

	_, err = svc.ExecuteExchange(1, item.ID, 1)
	require.NoError(t, err)

	_, err = svc.ExecuteExchange(1, item.ID, 1)
	require.True(t, errors.HasCode(err, errors.ErrCodeDailyLimitExceeded))
}

func TestExchangeServiceQuantityValidation(t *testing.T) {
	_, _, svc := newExchangeFixture(t)

	_, err := svc.ExecuteExchange(1, 1, 0)
	require.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	_, err = svc.ExecuteExchange(1, 1, -1)
	require.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestExchangeServiceUnknownItem(t *testing.T) {
	_, _, svc := newExchangeFixture(t)

	_, err := svc.ExecuteExchange(1, 9999, 1)
	require.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestExchangeServiceListItems(t *testing.T) {
	db, _, svc := newExchangeFixture(t)
	newCatalogItem(t, db, nil)
	newCatalogItem(t, db, func(i *models.ExchangeItem) {
		i.EndsAt = time.Now().UTC().Add(-time.Minute)
	})
	newCatalogItem(t, db, func(i *models.ExchangeItem) {
		i.IsActive = false
	})

	items, err := svc.ListItems()
	require.NoError(t, err)
	require.Len(t, items, 1)
}
