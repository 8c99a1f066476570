package models

import (
	"time"
)

// Gacha is the draw catalog entry a payment settles against. Its issuer
// receives the attribution for medals earned from the draw.
type Gacha struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IssuerID  uint      `gorm:"not null;index" json:"issuer_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Gacha) TableName() string {
	return "gachas"
}

// DrawnItem is one item produced by the randomized draw collaborator.
// The selection logic itself lives outside this service.
type DrawnItem struct {
	ItemID uint   `json:"item_id"`
	Name   string `json:"name"`
	Rarity string `json:"rarity"`
}

// DrawResult records one settled draw: the items won and the medals
// credited for it.
type DrawResult struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PublicID     string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"public_id"`
	GachaID      uint      `gorm:"not null;index" json:"gacha_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Count        int       `gorm:"not null" json:"count"`
	MedalsEarned int64     `gorm:"not null" json:"medals_earned"`
	Items        string    `gorm:"type:text;not null;default:'[]'" json:"items"` // JSON: []DrawnItem
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DrawResult) TableName() string {
	return "draw_results"
}

// DrawPaymentRecord maps an external payment reference to the draw result
// it settled. The unique index on PaymentReference is the idempotency
// anchor: two settlements for the same payment cannot both insert.
type DrawPaymentRecord struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	PaymentReference string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"payment_reference"`
	DrawResultID     uint      `gorm:"not null;index" json:"draw_result_id"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DrawPaymentRecord) TableName() string {
	return "draw_payment_records"
}
