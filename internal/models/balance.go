package models

import (
	"time"
)

// PoolIssuerID is the issuer scope for medals not yet attributed to a
// specific VTuber. Stored as 0 so the (user_id, issuer_id) unique index
// stays enforceable (a NULL column would allow duplicate pool rows).
const PoolIssuerID uint = 0

// UserBalance holds the live medal balance for one (user, issuer) pair.
// It is mutated only by the ledger repository inside a row-locked
// transaction; balance never goes below zero.
type UserBalance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_user_issuer,unique" json:"user_id"`
	IssuerID  uint      `gorm:"not null;index:idx_user_issuer,unique" json:"issuer_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserBalance) TableName() string {
	return "user_balances"
}

// LedgerTransaction is the append-only log entry justifying a balance
// change. Rows are never updated or deleted after creation; the running
// sum of Amount per (user, issuer) must always equal the stored balance.
type LedgerTransaction struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index:idx_ledger_user_issuer" json:"user_id"`
	IssuerID      uint      `gorm:"not null;index:idx_ledger_user_issuer" json:"issuer_id"`
	Type          string    `gorm:"type:varchar(50);not null;index" json:"type"`
	Amount        int64     `gorm:"not null" json:"amount"`
	BalanceBefore int64     `gorm:"not null" json:"balance_before"`
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`
	Reason        string    `gorm:"type:text" json:"reason"`
	AdminID       uint      `gorm:"default:0" json:"admin_id,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// Ledger transaction type constants
const (
	TxTypeDrawReward      = "DRAW_REWARD"
	TxTypeExchangeDebit   = "EXCHANGE_DEBIT"
	TxTypePoolTransfer    = "POOL_TRANSFER"
	TxTypeAdminAdjustment = "ADMIN_ADJUSTMENT"
)

func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}

// BalanceDiscrepancy reports one (user, issuer) pair whose stored balance
// diverged from the replayed transaction sum.
type BalanceDiscrepancy struct {
	UserID          uint  `json:"user_id"`
	IssuerID        uint  `json:"issuer_id"`
	StoredBalance   int64 `json:"stored_balance"`
	ComputedBalance int64 `json:"computed_balance"`
}

// IntegrityReport is the outcome of replaying the ledger against stored
// balances. Discrepancies are never repaired automatically.
type IntegrityReport struct {
	CheckedAt     time.Time            `json:"checked_at"`
	Checked       int                  `json:"checked"`
	Valid         int                  `json:"valid"`
	Discrepancies []BalanceDiscrepancy `json:"discrepancies"`
}
