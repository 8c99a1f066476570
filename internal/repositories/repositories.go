package repositories

import (
	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/Goro-naka/koepon-sub001/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockBalanceRow locks the (user, issuer) balance row for update,
// creating it lazily with a zero balance on first use. If two
// transactions race on the first create, the loser falls back to
// locking the winner's row.
func lockBalanceRow(tx *gorm.DB, userID, issuerID uint) (*models.UserBalance, error) {
	var balance models.UserBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND issuer_id = ?", userID, issuerID).
		First(&balance).Error
	if err == nil {
		return &balance, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock balance")
	}

	balance = models.UserBalance{UserID: userID, IssuerID: issuerID, Balance: 0}
	err = tx.Create(&balance).Error
	if err == nil {
		return &balance, nil
	}
	if err != gorm.ErrDuplicatedKey {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to initialize balance")
	}

	balance = models.UserBalance{}
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND issuer_id = ?", userID, issuerID).
		First(&balance).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock balance")
	}
	return &balance, nil
}

// retryRead re-runs a pure read once on a storage failure. Business
// errors pass through untouched; a second failure is surfaced as
// transient so callers can distinguish it from rule violations.
func retryRead(fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if _, ok := err.(*errors.AppError); ok {
		return err
	}
	if err = fn(); err == nil {
		return nil
	}
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.Wrap(err, errors.ErrCodeTransient, "storage read failed")
}

// normalizePage clamps pagination parameters to sane bounds.
func normalizePage(page, perPage, defaultSize, maxSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultSize
	}
	if perPage > maxSize {
		perPage = maxSize
	}
	return page, perPage
}
