package services

import (
	"time"

	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/Goro-naka/koepon-sub001/internal/repositories"
	"github.com/Goro-naka/koepon-sub001/internal/security"
	"github.com/Goro-naka/koepon-sub001/pkg/errors"
	"github.com/Goro-naka/koepon-sub001/pkg/logger"
)

// AdminService exposes the privileged paths: audited balance
// adjustments, integrity verification, and catalog management.
type AdminService struct {
	ledger *repositories.LedgerRepository
	items  *repositories.ExchangeRepository
	draws  *repositories.DrawRepository
}

func NewAdminService(ledger *repositories.LedgerRepository, items *repositories.ExchangeRepository, draws *repositories.DrawRepository) *AdminService {
	return &AdminService{ledger: ledger, items: items, draws: draws}
}

// AdjustBalance applies a signed adjustment to a user's balance. Every
// adjustment requires a reason and is attributed to the acting admin in
// the ledger.
func (s *AdminService) AdjustBalance(adminID, userID, issuerID uint, amount int64, reason string) (*models.LedgerTransaction, error) {
	reason = security.SanitizeReason(reason)
	if reason == "" {
		return nil, errors.New(errors.ErrCodeValidation, "adjustment reason is required")
	}

	entry, err := s.ledger.AdjustAdmin(userID, issuerID, amount, reason, adminID)
	if err != nil {
		return nil, err
	}

	logger.Info("Admin balance adjustment",
		"admin_id", adminID, "user_id", userID, "issuer_id", issuerID, "amount", amount)
	return entry, nil
}

// IntegrityCheck replays the ledger against stored balances.
func (s *AdminService) IntegrityCheck(userID *uint) (*models.IntegrityReport, error) {
	return s.ledger.VerifyIntegrity(userID)
}

// CreateItem adds a new exchange item to the catalog. CurrentStock
// starts at TotalStock.
func (s *AdminService) CreateItem(item *models.ExchangeItem) error {
	if item.MedalCost <= 0 {
		return errors.New(errors.ErrCodeValidation, "medal cost must be positive")
	}
	if item.TotalStock < 0 {
		return errors.New(errors.ErrCodeValidation, "total stock must not be negative")
	}
	if !item.EndsAt.After(item.StartsAt) {
		return errors.New(errors.ErrCodeValidation, "exchange window must end after it starts")
	}

	item.CurrentStock = item.TotalStock
	item.Name = security.SanitizeReason(item.Name)
	if item.Name == "" {
		return errors.New(errors.ErrCodeValidation, "item name is required")
	}

	return s.items.CreateItem(item)
}

// DeactivateItem soft-deactivates a catalog entry.
func (s *AdminService) DeactivateItem(itemID uint) error {
	return s.items.DeactivateItem(itemID)
}

// CreateGacha adds a new gacha.
func (s *AdminService) CreateGacha(gacha *models.Gacha) error {
	gacha.Name = security.SanitizeReason(gacha.Name)
	if gacha.Name == "" {
		return errors.New(errors.ErrCodeValidation, "gacha name is required")
	}
	return s.draws.CreateGacha(gacha)
}

// RunIntegrityCheck is the periodic verification job entry point.
func (s *AdminService) RunIntegrityCheck(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			report, err := s.ledger.VerifyIntegrity(nil)
			if err != nil {
				logger.Error("Integrity check failed", "error", err)
				continue
			}
			if len(report.Discrepancies) > 0 {
				logger.Error("Integrity check found discrepancies",
					"checked", report.Checked, "discrepancies", len(report.Discrepancies))
			} else {
				logger.Info("Integrity check passed", "checked", report.Checked)
			}
		case <-stop:
			return
		}
	}
}
