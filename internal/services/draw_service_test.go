package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/Goro-naka/koepon-sub001/internal/repositories"
	"github.com/Goro-naka/koepon-sub001/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDrawFixture(t *testing.T, gateway PaymentGateway, engine DrawEngine) (*gorm.DB, *repositories.LedgerRepository, *DrawService, *models.Gacha) {
	t.Helper()
	db := setupTestDB(t)
	ledger := repositories.NewLedgerRepository(db)
	repo := repositories.NewDrawRepository(db, ledger)

	gacha := &models.Gacha{IssuerID: 7, Name: "anniversary gacha", IsActive: true}
	require.NoError(t, repo.CreateGacha(gacha))

	policy := RateRewardPolicy{Rate: 10, TenDrawBonus: 50}
	return db, ledger, NewDrawService(repo, gateway, engine, policy), gacha
}

func TestSettleDrawSuccess(t *testing.T) {
	_, ledger, svc, gacha := newDrawFixture(t,
		&stubPaymentGateway{confirmed: true, amount: 3000},
		&stubDrawEngine{})

	result, err := svc.SettleDraw(context.Background(), 1, gacha.ID, 10, "pay-001")
	require.NoError(t, err)
	require.NotEmpty(t, result.PublicID)
	require.Equal(t, 10, result.Count)
	// 3000 * 10% + ten-draw bonus 50
	require.Equal(t, int64(350), result.MedalsEarned)

	var items []models.DrawnItem
	require.NoError(t, json.Unmarshal([]byte(result.Items), &items))
	require.Len(t, items, 10)

	balance, err := ledger.GetBalance(1, 7)
	require.NoError(t, err)
	require.Equal(t, int64(350), balance)
}

func TestSettleDrawIdempotency(t *testing.T) {
	db, ledger, svc, gacha := newDrawFixture(t,
		&stubPaymentGateway{confirmed: true, amount: 300},
		&stubDrawEngine{})

	first, err := svc.SettleDraw(context.Background(), 1, gacha.ID, 1, "pay-001")
	require.NoError(t, err)

	_, err = svc.SettleDraw(context.Background(), 1, gacha.ID, 1, "pay-001")
	require.True(t, errors.HasCode(err, errors.ErrCodePaymentAlreadyUsed))

	// Exactly one record, one result, one credit.
	var records int64
	require.NoError(t, db.Model(&models.DrawPaymentRecord{}).Count(&records).Error)
	require.Equal(t, int64(1), records)

	var credits int64
	require.NoError(t, db.Model(&models.LedgerTransaction{}).
		Where("type = ?", models.TxTypeDrawReward).Count(&credits).Error)
	require.Equal(t, int64(1), credits)

	balance, err := ledger.GetBalance(1, 7)
	require.NoError(t, err)
	require.Equal(t, int64(30), balance)

	// The caller holding PAYMENT_ALREADY_USED fetches the existing
	// result by reference.
	existing, err := svc.GetResultByPaymentReference("pay-001")
	require.NoError(t, err)
	require.Equal(t, first.PublicID, existing.PublicID)
}

func TestSettleDrawConcurrent(t *testing.T) {
	db, _, svc, gacha := newDrawFixture(t,
		&stubPaymentGateway{confirmed: true, amount: 300},
		&stubDrawEngine{})

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SettleDraw(context.Background(), 1, gacha.ID, 1, "pay-race")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, alreadyUsed := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.HasCode(err, errors.ErrCodePaymentAlreadyUsed):
			alreadyUsed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, alreadyUsed)

	var records int64
	require.NoError(t, db.Model(&models.DrawPaymentRecord{}).Count(&records).Error)
	require.Equal(t, int64(1), records)
}

func TestSettleDrawPaymentNotConfirmed(t *testing.T) {
	db, ledger, svc, gacha := newDrawFixture(t,
		&stubPaymentGateway{confirmed: false},
		&stubDrawEngine{})

	_, err := svc.SettleDraw(context.Background(), 1, gacha.ID, 1, "pay-001")
	require.True(t, errors.HasCode(err, errors.ErrCodePaymentNotConfirmed))

	var records int64
	require.NoError(t, db.Model(&models.DrawPaymentRecord{}).Count(&records).Error)
	require.Equal(t, int64(0), records)

	balance, err := ledger.GetBalance(1, 7)
	require.NoError(t, err)
	require.Equal(t, int64(0), balance)
}

func TestSettleDrawValidation(t *testing.T) {
	_, _, svc, gacha := newDrawFixture(t,
		&stubPaymentGateway{confirmed: true, amount: 300},
		&stubDrawEngine{})

	_, err := svc.SettleDraw(context.Background(), 1, gacha.ID, 0, "pay-001")
	require.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	_, err = svc.SettleDraw(context.Background(), 1, gacha.ID, 1, "")
	require.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	_, err = svc.SettleDraw(context.Background(), 1, 9999, 1, "pay-001")
	require.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestSettleDrawInactiveGacha(t *testing.T) {
	db, _, svc, gacha := newDrawFixture(t,
		&stubPaymentGateway{confirmed: true, amount: 300},
		&stubDrawEngine{})

	require.NoError(t, db.Model(gacha).Update("is_active", false).Error)

	_, err := svc.SettleDraw(context.Background(), 1, gacha.ID, 1, "pay-001")
	require.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}
