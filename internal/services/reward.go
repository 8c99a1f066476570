package services

// RewardPolicy computes the medals earned from a settled payment. The
// reward curve is a business decision, so it is injected into the draw
// service rather than hardcoded.
type RewardPolicy interface {
	MedalsEarned(paymentAmount int64, drawCount int) int64
}

// RateRewardPolicy awards a percentage of the payment amount, with a
// flat bonus for ten-draws.
type RateRewardPolicy struct {
	Rate         int64 // medals per 100 units of payment
	TenDrawBonus int64
}

func (p RateRewardPolicy) MedalsEarned(paymentAmount int64, drawCount int) int64 {
	if paymentAmount <= 0 {
		return 0
	}
	medals := paymentAmount * p.Rate / 100
	if drawCount >= 10 {
		medals += p.TenDrawBonus
	}
	return medals
}
