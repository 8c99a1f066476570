package repositories

import (
	"fmt"

	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/Goro-naka/koepon-sub001/pkg/errors"
	"gorm.io/gorm"
)

// DrawRepository owns gachas, draw results, and the payment records that
// anchor settlement idempotency. The unique index on payment_reference
// makes check-and-insert a single atomic operation.
type DrawRepository struct {
	db     *gorm.DB
	ledger *LedgerRepository
}

func NewDrawRepository(db *gorm.DB, ledger *LedgerRepository) *DrawRepository {
	return &DrawRepository{db: db, ledger: ledger}
}

// CreateGacha creates a new gacha catalog entry.
func (r *DrawRepository) CreateGacha(gacha *models.Gacha) error {
	if err := r.db.Create(gacha).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create gacha")
	}
	return nil
}

// GetGacha retrieves one gacha.
func (r *DrawRepository) GetGacha(gachaID uint) (*models.Gacha, error) {
	var gacha models.Gacha
	err := retryRead(func() error {
		result := r.db.First(&gacha, gachaID)
		if result.Error == gorm.ErrRecordNotFound {
			return errors.New(errors.ErrCodeNotFound, "gacha not found")
		}
		return result.Error
	})
	if err != nil {
		return nil, err
	}
	return &gacha, nil
}

// GetPaymentRecord looks up the settlement record for a payment
// reference.
func (r *DrawRepository) GetPaymentRecord(paymentReference string) (*models.DrawPaymentRecord, error) {
	var record models.DrawPaymentRecord
	err := retryRead(func() error {
		result := r.db.Where("payment_reference = ?", paymentReference).First(&record)
		if result.Error == gorm.ErrRecordNotFound {
			return errors.New(errors.ErrCodeNotFound, "payment record not found")
		}
		return result.Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetResultByPaymentReference returns the draw result a payment settled,
// the lookup a PAYMENT_ALREADY_USED caller is expected to perform.
func (r *DrawRepository) GetResultByPaymentReference(paymentReference string) (*models.DrawResult, error) {
	record, err := r.GetPaymentRecord(paymentReference)
	if err != nil {
		return nil, err
	}

	var result models.DrawResult
	if err := r.db.First(&result, record.DrawResultID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "draw result not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get draw result")
	}
	return &result, nil
}

// CreateSettlement persists the draw result, the payment record, and the
// medal credit as one atomic unit. A concurrent settlement for the same
// payment loses on the payment_reference unique index and observes
// PAYMENT_ALREADY_USED; nothing it wrote survives.
func (r *DrawRepository) CreateSettlement(result *models.DrawResult, paymentReference string, issuerID uint) (*models.LedgerTransaction, error) {
	var entry *models.LedgerTransaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create draw result")
		}

		record := &models.DrawPaymentRecord{
			PaymentReference: paymentReference,
			DrawResultID:     result.ID,
		}
		if err := tx.Create(record).Error; err != nil {
			if err == gorm.ErrDuplicatedKey {
				return errors.New(errors.ErrCodePaymentAlreadyUsed,
					fmt.Sprintf("payment %s already settled a draw", paymentReference))
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create payment record")
		}

		if result.MedalsEarned > 0 {
			var txErr error
			entry, txErr = r.ledger.CreditTx(tx, result.UserID, issuerID, result.MedalsEarned,
				models.TxTypeDrawReward, fmt.Sprintf("draw reward: gacha %d x%d", result.GachaID, result.Count))
			if txErr != nil {
				return txErr
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
