package services

import (
	"context"
	"encoding/json"

	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/Goro-naka/koepon-sub001/internal/repositories"
	"github.com/Goro-naka/koepon-sub001/pkg/errors"
	"github.com/Goro-naka/koepon-sub001/pkg/logger"
	"github.com/google/uuid"
)

// DrawService guards draw settlement with payment idempotency. External
// calls (payment confirmation, randomization) happen strictly before the
// atomic persistence phase; the payment_reference unique index decides
// any remaining race.
type DrawService struct {
	repo     *repositories.DrawRepository
	payments PaymentGateway
	engine   DrawEngine
	rewards  RewardPolicy
}

func NewDrawService(repo *repositories.DrawRepository, payments PaymentGateway, engine DrawEngine, rewards RewardPolicy) *DrawService {
	return &DrawService{
		repo:     repo,
		payments: payments,
		engine:   engine,
		rewards:  rewards,
	}
}

// SettleDraw settles one paid draw: at most one settlement per payment
// reference, ever. A caller seeing PAYMENT_ALREADY_USED should fetch the
// existing result by reference instead of retrying.
func (s *DrawService) SettleDraw(ctx context.Context, userID, gachaID uint, count int, paymentReference string) (*models.DrawResult, error) {
	if count <= 0 {
		return nil, errors.New(errors.ErrCodeValidation, "draw count must be positive")
	}
	if paymentReference == "" {
		return nil, errors.New(errors.ErrCodeValidation, "payment reference is required")
	}

	// Cheap pre-check; the unique index below is the real gate.
	if _, err := s.repo.GetPaymentRecord(paymentReference); err == nil {
		return nil, errors.New(errors.ErrCodePaymentAlreadyUsed, "payment already settled a draw")
	} else if !errors.HasCode(err, errors.ErrCodeNotFound) {
		return nil, err
	}

	gacha, err := s.repo.GetGacha(gachaID)
	if err != nil {
		return nil, err
	}
	if !gacha.IsActive {
		return nil, errors.New(errors.ErrCodeNotFound, "gacha is not active")
	}

	confirmation, err := s.payments.ConfirmPayment(ctx, paymentReference)
	if err != nil {
		return nil, err
	}
	if !confirmation.Confirmed {
		return nil, errors.New(errors.ErrCodePaymentNotConfirmed, "payment could not be confirmed")
	}

	items, err := s.engine.ExecuteDrawLogic(ctx, gachaID, count)
	if err != nil {
		return nil, err
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode drawn items")
	}

	result := &models.DrawResult{
		PublicID:     uuid.NewString(),
		GachaID:      gachaID,
		UserID:       userID,
		Count:        count,
		MedalsEarned: s.rewards.MedalsEarned(confirmation.Amount, count),
		Items:        string(itemsJSON),
	}

	if _, err := s.repo.CreateSettlement(result, paymentReference, gacha.IssuerID); err != nil {
		return nil, err
	}

	logger.Info("Draw settled",
		"user_id", userID, "gacha_id", gachaID, "count", count,
		"medals", result.MedalsEarned, "payment_reference", paymentReference)
	return result, nil
}

// GetResultByPaymentReference returns the result a payment settled.
func (s *DrawService) GetResultByPaymentReference(paymentReference string) (*models.DrawResult, error) {
	return s.repo.GetResultByPaymentReference(paymentReference)
}
