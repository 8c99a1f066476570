package repositories

import (
	"fmt"
	"time"

	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/Goro-naka/koepon-sub001/pkg/errors"
	"github.com/Goro-naka/koepon-sub001/pkg/logger"
	"gorm.io/gorm"
)

// LedgerRepository owns user balances and the append-only transaction
// log. Every balance change goes through it: lock the row, validate,
// write the new balance, and append the log entry in one transaction.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Credit increases the (user, issuer) balance and appends the log entry.
func (r *LedgerRepository) Credit(userID, issuerID uint, amount int64, txType, reason string) (*models.LedgerTransaction, error) {
	var entry *models.LedgerTransaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = r.CreditTx(tx, userID, issuerID, amount, txType, reason)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditTx is Credit running inside a caller-supplied transaction, so
// other engines can make the credit part of their own atomic unit.
func (r *LedgerRepository) CreditTx(tx *gorm.DB, userID, issuerID uint, amount int64, txType, reason string) (*models.LedgerTransaction, error) {
	if amount <= 0 {
		return nil, errors.New(errors.ErrCodeValidation, "credit amount must be positive")
	}
	return applyBalanceDelta(tx, userID, issuerID, amount, txType, reason, 0)
}

// Debit decreases the (user, issuer) balance, failing if it would go
// negative, and appends the log entry.
func (r *LedgerRepository) Debit(userID, issuerID uint, amount int64, txType, reason string) (*models.LedgerTransaction, error) {
	var entry *models.LedgerTransaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = r.DebitTx(tx, userID, issuerID, amount, txType, reason)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// DebitTx is Debit running inside a caller-supplied transaction. The
// exchange engine uses it so stock decrement and debit commit together.
func (r *LedgerRepository) DebitTx(tx *gorm.DB, userID, issuerID uint, amount int64, txType, reason string) (*models.LedgerTransaction, error) {
	if amount <= 0 {
		return nil, errors.New(errors.ErrCodeValidation, "debit amount must be positive")
	}
	return applyBalanceDelta(tx, userID, issuerID, -amount, txType, reason, 0)
}

// AdjustAdmin applies a signed adjustment on behalf of an administrator.
// It bypasses business validation but still refuses to drive the
// balance negative.
func (r *LedgerRepository) AdjustAdmin(userID, issuerID uint, amount int64, reason string, adminID uint) (*models.LedgerTransaction, error) {
	if amount == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "adjustment amount must not be zero")
	}
	var entry *models.LedgerTransaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = applyBalanceDelta(tx, userID, issuerID, amount, models.TxTypeAdminAdjustment, reason, adminID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// TransferToIssuer moves medals between issuer scopes for one user, e.g.
// attributing pool medals to a VTuber. Both legs are logged as
// POOL_TRANSFER entries and commit together.
func (r *LedgerRepository) TransferToIssuer(userID, fromIssuerID, toIssuerID uint, amount int64, reason string) ([]*models.LedgerTransaction, error) {
	if amount <= 0 {
		return nil, errors.New(errors.ErrCodeValidation, "transfer amount must be positive")
	}
	if fromIssuerID == toIssuerID {
		return nil, errors.New(errors.ErrCodeValidation, "transfer scopes must differ")
	}

	var entries []*models.LedgerTransaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Acquire both row locks in issuer-id order before mutating, so
		// two opposite-direction transfers for one user cannot deadlock.
		first, second := fromIssuerID, toIssuerID
		if second < first {
			first, second = second, first
		}
		if _, txErr := lockBalanceRow(tx, userID, first); txErr != nil {
			return txErr
		}
		if _, txErr := lockBalanceRow(tx, userID, second); txErr != nil {
			return txErr
		}

		debit, txErr := applyBalanceDelta(tx, userID, fromIssuerID, -amount, models.TxTypePoolTransfer, reason, 0)
		if txErr != nil {
			return txErr
		}
		credit, txErr := applyBalanceDelta(tx, userID, toIssuerID, amount, models.TxTypePoolTransfer, reason, 0)
		if txErr != nil {
			return txErr
		}
		entries = []*models.LedgerTransaction{debit, credit}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// GetBalance returns the current balance, or 0 when no row exists yet.
func (r *LedgerRepository) GetBalance(userID, issuerID uint) (int64, error) {
	var balance models.UserBalance
	err := retryRead(func() error {
		result := r.db.Where("user_id = ? AND issuer_id = ?", userID, issuerID).First(&balance)
		if result.Error == gorm.ErrRecordNotFound {
			balance.Balance = 0
			return nil
		}
		return result.Error
	})
	if err != nil {
		return 0, err
	}
	return balance.Balance, nil
}

// GetPoolBalance returns the user's unattributed medal balance.
func (r *LedgerRepository) GetPoolBalance(userID uint) (int64, error) {
	return r.GetBalance(userID, models.PoolIssuerID)
}

// GetHistory returns the user's ledger entries, newest first.
func (r *LedgerRepository) GetHistory(userID uint, page, perPage int) ([]models.LedgerTransaction, int64, error) {
	page, perPage = normalizePage(page, perPage, 20, 100)

	var total int64
	if err := r.db.Model(&models.LedgerTransaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count ledger entries")
	}

	var entries []models.LedgerTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&entries).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get ledger history")
	}
	return entries, total, nil
}

// VerifyIntegrity replays the transaction log for every balance row (or
// one user's rows) and flags any stored balance that diverges from the
// sum. Discrepancies are reported and logged, never repaired here.
func (r *LedgerRepository) VerifyIntegrity(userID *uint) (*models.IntegrityReport, error) {
	var balances []models.UserBalance
	query := r.db.Order("user_id, issuer_id")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if err := query.Find(&balances).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load balances")
	}

	report := &models.IntegrityReport{
		CheckedAt:     time.Now().UTC(),
		Discrepancies: []models.BalanceDiscrepancy{},
	}

	for _, balance := range balances {
		var sum int64
		err := r.db.Model(&models.LedgerTransaction{}).
			Where("user_id = ? AND issuer_id = ?", balance.UserID, balance.IssuerID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&sum).Error
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to replay ledger")
		}

		report.Checked++
		if sum == balance.Balance {
			report.Valid++
			continue
		}

		report.Discrepancies = append(report.Discrepancies, models.BalanceDiscrepancy{
			UserID:          balance.UserID,
			IssuerID:        balance.IssuerID,
			StoredBalance:   balance.Balance,
			ComputedBalance: sum,
		})
		logger.Error("Ledger integrity violation detected",
			"code", errors.ErrCodeIntegrityViolation,
			"user_id", balance.UserID,
			"issuer_id", balance.IssuerID,
			"stored", balance.Balance,
			"computed", sum,
		)
	}

	return report, nil
}

// applyBalanceDelta is the single mutation path for balances: lock the
// row, validate the resulting balance, write it, append the immutable
// log entry. Callers supply the transaction scope.
func applyBalanceDelta(tx *gorm.DB, userID, issuerID uint, delta int64, txType, reason string, adminID uint) (*models.LedgerTransaction, error) {
	balance, err := lockBalanceRow(tx, userID, issuerID)
	if err != nil {
		return nil, err
	}

	// Update writes newBalance back into the struct, so the pre-mutation
	// value has to be captured first.
	before := balance.Balance
	newBalance := before + delta
	if newBalance < 0 {
		return nil, errors.New(errors.ErrCodeInsufficientBalance,
			fmt.Sprintf("insufficient balance: have %d, need %d", before, -delta))
	}

	if err := tx.Model(balance).Update("balance", newBalance).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to update balance")
	}

	entry := &models.LedgerTransaction{
		UserID:        userID,
		IssuerID:      issuerID,
		Type:          txType,
		Amount:        delta,
		BalanceBefore: before,
		BalanceAfter:  newBalance,
		Reason:        reason,
		AdminID:       adminID,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create ledger entry")
	}
	return entry, nil
}
