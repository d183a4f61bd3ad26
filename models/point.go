package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PointReason string

const (
	PointReasonSale    PointReason = "sale"
	PointReasonBadge   PointReason = "badge"
	PointReasonLevelUp PointReason = "level_up"
	PointReasonInit    PointReason = "init"
	PointReasonCancel  PointReason = "cancel"
)

// Point is an append-only ledger row. A user's total is the sum of Amount.
// Sale rows carry the order they pay for; an order is paid at most once.
type Point struct {
	ID          string      `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string      `gorm:"index;not null" json:"user_id"`
	OrderID     *string     `gorm:"type:varchar(64);uniqueIndex:idx_point_order_reason" json:"order_id,omitempty"`
	Amount      int64       `gorm:"not null" json:"amount"`
	Reason      PointReason `gorm:"type:varchar(16);not null;uniqueIndex:idx_point_order_reason" json:"reason"`
	Description string      `gorm:"type:text" json:"description"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Point) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// BeforeUpdate rejects any attempt to rewrite the ledger.
func (p *Point) BeforeUpdate(tx *gorm.DB) error {
	return ErrLedgerImmutable
}

func (p *Point) BeforeDelete(tx *gorm.DB) error {
	return ErrLedgerImmutable
}
