package services

import (
	"time"

	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/Goro-naka/koepon-sub001/internal/repositories"
	"github.com/Goro-naka/koepon-sub001/pkg/errors"
	"github.com/Goro-naka/koepon-sub001/pkg/logger"
)

// ExchangeService validates redemption requests and hands them to the
// repository's atomic execution path. Validation runs first so callers
// get precise error kinds; the execution phase re-checks everything
// under the item lock to close the check-then-act race.
type ExchangeService struct {
	repo   *repositories.ExchangeRepository
	ledger *repositories.LedgerRepository
}

func NewExchangeService(repo *repositories.ExchangeRepository, ledger *repositories.LedgerRepository) *ExchangeService {
	return &ExchangeService{repo: repo, ledger: ledger}
}

// ExecuteExchange redeems quantity units of an item for the user's
// medals.
func (s *ExchangeService) ExecuteExchange(userID, itemID uint, quantity int) (*models.ExchangeTransaction, error) {
	if quantity <= 0 {
		return nil, errors.New(errors.ErrCodeValidation, "quantity must be positive")
	}

	item, err := s.repo.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	if err := s.validate(userID, item, quantity); err != nil {
		return nil, err
	}

	totalCost := item.MedalCost * int64(quantity)
	exchangeTx, err := s.repo.ExecuteExchange(userID, itemID, quantity)
	if err != nil {
		// The attempt passed validation but lost the execution-phase
		// re-check to a concurrent request; record it as FAILED.
		if isExchangeRuleViolation(err) {
			if _, recErr := s.repo.RecordFailedAttempt(userID, itemID, quantity, totalCost, errors.CodeOf(err)); recErr != nil {
				logger.Warn("Failed to record failed exchange attempt",
					"user_id", userID, "item_id", itemID, "error", recErr)
			}
		}
		return nil, err
	}

	logger.Info("Exchange completed",
		"user_id", userID, "item_id", itemID, "quantity", quantity, "cost", totalCost)
	return exchangeTx, nil
}

// GetItem returns one catalog entry.
func (s *ExchangeService) GetItem(itemID uint) (*models.ExchangeItem, error) {
	return s.repo.GetItem(itemID)
}

// ListItems returns the catalog entries currently open for exchange.
func (s *ExchangeService) ListItems() ([]models.ExchangeItem, error) {
	return s.repo.ListActiveItems(time.Now().UTC())
}

// GetHistory returns the user's exchange transactions, newest first.
func (s *ExchangeService) GetHistory(userID uint, page, perPage int) ([]models.ExchangeTransaction, int64, error) {
	return s.repo.GetUserHistory(userID, page, perPage)
}

// GetInventory returns the user's granted items.
func (s *ExchangeService) GetInventory(userID uint) ([]models.UserExchangeItem, error) {
	return s.repo.GetUserInventory(userID)
}

// validate runs the pre-execution checks in their contractual order:
// availability window, stock, daily limit, lifetime limit, balance.
func (s *ExchangeService) validate(userID uint, item *models.ExchangeItem, quantity int) error {
	if !item.AvailableAt(time.Now().UTC()) {
		return errors.New(errors.ErrCodeExchangePeriodExpired, "item is not open for exchange")
	}
	if item.CurrentStock < quantity {
		return errors.New(errors.ErrCodeOutOfStock, "insufficient stock")
	}

	if item.DailyLimit > 0 {
		count, err := s.repo.CountCompletedToday(userID, item.ID)
		if err != nil {
			return err
		}
		if count >= int64(item.DailyLimit) {
			return errors.New(errors.ErrCodeDailyLimitExceeded, "daily limit reached for this item")
		}
	}
	if item.UserLimit > 0 {
		count, err := s.repo.CountCompletedTotal(userID, item.ID)
		if err != nil {
			return err
		}
		if count >= int64(item.UserLimit) {
			return errors.New(errors.ErrCodeUserLimitExceeded, "lifetime limit reached for this item")
		}
	}

	balance, err := s.ledger.GetBalance(userID, item.IssuerID)
	if err != nil {
		return err
	}
	if balance < item.MedalCost*int64(quantity) {
		return errors.New(errors.ErrCodeInsufficientBalance, "not enough medals for this exchange")
	}
	return nil
}

func isExchangeRuleViolation(err error) bool {
	switch errors.CodeOf(err) {
	case errors.ErrCodeOutOfStock,
		errors.ErrCodeExchangePeriodExpired,
		errors.ErrCodeDailyLimitExceeded,
		errors.ErrCodeUserLimitExceeded,
		errors.ErrCodeInsufficientBalance:
		return true
	}
	return false
}
