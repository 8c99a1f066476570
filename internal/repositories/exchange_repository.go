package repositories

import (
	"fmt"
	"time"

	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/Goro-naka/koepon-sub001/pkg/errors"
	"github.com/Goro-naka/koepon-sub001/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExchangeRepository owns exchange items, their stock counters, and the
// transaction/grant records for redemptions. Stock is only ever
// decremented with the item row locked, inside the same transaction as
// the ledger debit.
type ExchangeRepository struct {
	db     *gorm.DB
	ledger *LedgerRepository
}

func NewExchangeRepository(db *gorm.DB, ledger *LedgerRepository) *ExchangeRepository {
	return &ExchangeRepository{db: db, ledger: ledger}
}

// CreateItem creates a new catalog entry.
func (r *ExchangeRepository) CreateItem(item *models.ExchangeItem) error {
	if err := r.db.Create(item).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create exchange item")
	}
	return nil
}

// GetItem retrieves one catalog entry.
func (r *ExchangeRepository) GetItem(itemID uint) (*models.ExchangeItem, error) {
	var item models.ExchangeItem
	err := retryRead(func() error {
		result := r.db.First(&item, itemID)
		if result.Error == gorm.ErrRecordNotFound {
			return errors.New(errors.ErrCodeNotFound, "exchange item not found")
		}
		return result.Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListActiveItems returns catalog entries currently open for exchange.
func (r *ExchangeRepository) ListActiveItems(now time.Time) ([]models.ExchangeItem, error) {
	var items []models.ExchangeItem
	err := r.db.Where("is_active = ? AND starts_at <= ? AND ends_at > ?", true, now, now).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list exchange items")
	}
	return items, nil
}

// DeactivateItem soft-deactivates a catalog entry. Rows are never hard
// deleted while transactions reference them.
func (r *ExchangeRepository) DeactivateItem(itemID uint) error {
	result := r.db.Model(&models.ExchangeItem{}).Where("id = ?", itemID).Update("is_active", false)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to deactivate item")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "exchange item not found")
	}
	return nil
}

// CountCompletedToday counts the user's completed exchanges for an item
// in the current UTC calendar day.
func (r *ExchangeRepository) CountCompletedToday(userID, itemID uint) (int64, error) {
	return countCompleted(r.db, userID, itemID, todayStart())
}

// CountCompletedTotal counts the user's completed exchanges for an item
// over all time.
func (r *ExchangeRepository) CountCompletedTotal(userID, itemID uint) (int64, error) {
	return countCompleted(r.db, userID, itemID, time.Time{})
}

// ExecuteExchange performs the atomic redemption unit: with the item row
// locked it re-checks availability, stock, and limits, debits the ledger
// through the same transaction, decrements stock, and writes the
// COMPLETED transaction plus the inventory grant. Everything commits or
// rolls back together.
func (r *ExchangeRepository) ExecuteExchange(userID, itemID uint, quantity int) (*models.ExchangeTransaction, error) {
	if quantity <= 0 {
		return nil, errors.New(errors.ErrCodeValidation, "quantity must be positive")
	}

	var exchangeTx *models.ExchangeTransaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var item models.ExchangeItem
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, itemID).Error
		if err == gorm.ErrRecordNotFound {
			return errors.New(errors.ErrCodeNotFound, "exchange item not found")
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock exchange item")
		}

		now := time.Now().UTC()
		if !item.AvailableAt(now) {
			return errors.New(errors.ErrCodeExchangePeriodExpired, "item is not open for exchange")
		}
		if item.CurrentStock < quantity {
			return errors.New(errors.ErrCodeOutOfStock,
				fmt.Sprintf("insufficient stock: have %d, need %d", item.CurrentStock, quantity))
		}

		// The item lock serializes exchanges per item, so these counts
		// cannot be raced past by a concurrent request.
		if item.DailyLimit > 0 {
			count, err := countCompleted(tx, userID, itemID, todayStart())
			if err != nil {
				return err
			}
			if count >= int64(item.DailyLimit) {
				return errors.New(errors.ErrCodeDailyLimitExceeded,
					fmt.Sprintf("daily limit of %d reached for this item", item.DailyLimit))
			}
		}
		if item.UserLimit > 0 {
			count, err := countCompleted(tx, userID, itemID, time.Time{})
			if err != nil {
				return err
			}
			if count >= int64(item.UserLimit) {
				return errors.New(errors.ErrCodeUserLimitExceeded,
					fmt.Sprintf("lifetime limit of %d reached for this item", item.UserLimit))
			}
		}

		totalCost := item.MedalCost * int64(quantity)
		_, err = r.ledger.DebitTx(tx, userID, item.IssuerID, totalCost, models.TxTypeExchangeDebit,
			fmt.Sprintf("exchange: %s x%d", item.Name, quantity))
		if err != nil {
			return err
		}

		err = tx.Model(&item).Update("current_stock", gorm.Expr("current_stock - ?", quantity)).Error
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to decrement stock")
		}

		exchangeTx = &models.ExchangeTransaction{
			Reference:      utils.GenerateRandomID(12),
			UserID:         userID,
			ExchangeItemID: itemID,
			Quantity:       quantity,
			MedalCost:      totalCost,
			Status:         models.ExchangeStatusCompleted,
			ExecutedAt:     now,
		}
		if err := tx.Create(exchangeTx).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create exchange transaction")
		}

		grant := &models.UserExchangeItem{
			UserID:                userID,
			ExchangeItemID:        itemID,
			ExchangeTransactionID: exchangeTx.ID,
			Quantity:              quantity,
		}
		if err := tx.Create(grant).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create inventory grant")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return exchangeTx, nil
}

// RecordFailedAttempt writes a FAILED transaction row for an attempt
// that passed validation but lost the execution-phase re-check. It runs
// outside the rolled-back unit so the record survives.
func (r *ExchangeRepository) RecordFailedAttempt(userID, itemID uint, quantity int, totalCost int64, failCode string) (*models.ExchangeTransaction, error) {
	exchangeTx := &models.ExchangeTransaction{
		Reference:      utils.GenerateRandomID(12),
		UserID:         userID,
		ExchangeItemID: itemID,
		Quantity:       quantity,
		MedalCost:      totalCost,
		Status:         models.ExchangeStatusFailed,
		FailReason:     failCode,
		ExecutedAt:     time.Now().UTC(),
	}
	if err := r.db.Create(exchangeTx).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to record failed attempt")
	}
	return exchangeTx, nil
}

// GetUserHistory returns the user's exchange transactions, newest first.
func (r *ExchangeRepository) GetUserHistory(userID uint, page, perPage int) ([]models.ExchangeTransaction, int64, error) {
	page, perPage = normalizePage(page, perPage, 20, 100)

	var total int64
	if err := r.db.Model(&models.ExchangeTransaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count exchange history")
	}

	var transactions []models.ExchangeTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("executed_at DESC, id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get exchange history")
	}
	return transactions, total, nil
}

// GetUserInventory returns the grants a user has received.
func (r *ExchangeRepository) GetUserInventory(userID uint) ([]models.UserExchangeItem, error) {
	var grants []models.UserExchangeItem
	err := r.db.Where("user_id = ?", userID).Order("granted_at DESC").Find(&grants).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get inventory")
	}
	return grants, nil
}

func countCompleted(tx *gorm.DB, userID, itemID uint, since time.Time) (int64, error) {
	query := tx.Model(&models.ExchangeTransaction{}).
		Where("user_id = ? AND exchange_item_id = ? AND status = ?", userID, itemID, models.ExchangeStatusCompleted)
	if !since.IsZero() {
		query = query.Where("executed_at >= ?", since)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count exchanges")
	}
	return count, nil
}

func todayStart() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
