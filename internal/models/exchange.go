package models

import (
	"time"
)

// ExchangeItem is a catalog entry users redeem medals for. Stock and
// limits are enforced by the exchange repository; items are
// soft-deactivated, never hard-deleted while transactions reference them.
type ExchangeItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	IssuerID     uint      `gorm:"not null;index" json:"issuer_id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	MedalCost    int64     `gorm:"not null" json:"medal_cost"`
	TotalStock   int       `gorm:"not null" json:"total_stock"`
	CurrentStock int       `gorm:"not null" json:"current_stock"`
	DailyLimit   int       `gorm:"not null;default:0" json:"daily_limit"`
	UserLimit    int       `gorm:"not null;default:0" json:"user_limit"`
	StartsAt     time.Time `gorm:"not null" json:"starts_at"`
	EndsAt       time.Time `gorm:"not null" json:"ends_at"`
	// No gorm default: a default tag would make Create silently persist
	// false as true. Creators set the flag explicitly.
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ExchangeItem) TableName() string {
	return "exchange_items"
}

// AvailableAt reports whether the item can be exchanged at the given time.
func (i *ExchangeItem) AvailableAt(now time.Time) bool {
	return i.IsActive && !now.Before(i.StartsAt) && now.Before(i.EndsAt)
}

// ExchangeTransaction records one redemption attempt that passed
// validation. COMPLETED rows are the source for daily and lifetime limit
// counting.
type ExchangeTransaction struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Reference      string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"reference"`
	UserID         uint      `gorm:"not null;index:idx_exchange_user_item" json:"user_id"`
	ExchangeItemID uint      `gorm:"not null;index:idx_exchange_user_item" json:"exchange_item_id"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	MedalCost      int64     `gorm:"not null" json:"medal_cost"`
	Status         string    `gorm:"type:varchar(20);not null;index" json:"status"`
	FailReason     string    `gorm:"type:varchar(50)" json:"fail_reason,omitempty"`
	ExecutedAt     time.Time `gorm:"not null;index" json:"executed_at"`
}

// Exchange transaction status constants
const (
	ExchangeStatusCompleted = "COMPLETED"
	ExchangeStatusFailed    = "FAILED"
)

func (ExchangeTransaction) TableName() string {
	return "exchange_transactions"
}

// UserExchangeItem is the inventory grant created for a completed
// exchange, one-to-one with the transaction that produced it.
type UserExchangeItem struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	UserID                uint      `gorm:"not null;index" json:"user_id"`
	ExchangeItemID        uint      `gorm:"not null;index" json:"exchange_item_id"`
	ExchangeTransactionID uint      `gorm:"not null;uniqueIndex" json:"exchange_transaction_id"`
	Quantity              int       `gorm:"not null" json:"quantity"`
	GrantedAt             time.Time `gorm:"autoCreateTime" json:"granted_at"`
}

func (UserExchangeItem) TableName() string {
	return "user_exchange_items"
}
