package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BadgeKind string

const (
	BadgeKindSales      BadgeKind = "sales"
	BadgeKindAmbassador BadgeKind = "ambassador" // "Embajadora de Marca", one per brand
)

// Badge: static catalogue row, keyed by code (e.g. "ventas_10", "embajadora_nadin")
type Badge struct {
	ID          string    `gorm:"primaryKey;type:varchar(96)" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Kind        BadgeKind `gorm:"type:varchar(16);not null;default:'sales'" json:"kind"`
	Brand       string    `gorm:"type:varchar(128)" json:"brand,omitempty"`
	Threshold   int64     `gorm:"not null" json:"threshold"` // completed sales needed
	Points      int64     `gorm:"not null;default:0" json:"points"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// UserBadge: unlocked instance. Never revoked.
type UserBadge struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string    `gorm:"not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeID    string    `gorm:"not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	UnlockedAt time.Time `gorm:"autoCreateTime" json:"unlocked_at"`

	Badge Badge `gorm:"foreignKey:BadgeID" json:"badge"`
}

func (b *UserBadge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// SalesBadges are the general sales milestones seeded at startup.
var SalesBadges = []Badge{
	{ID: "ventas_1", Name: "Primera Venta", Description: "Completaste tu primera venta", Icon: "sparkles", Kind: BadgeKindSales, Threshold: 1, Points: 25},
	{ID: "ventas_10", Name: "Vendedora Bronce", Description: "10 ventas completadas", Icon: "medal", Kind: BadgeKindSales, Threshold: 10, Points: 100},
	{ID: "ventas_50", Name: "Vendedora Plata", Description: "50 ventas completadas", Icon: "award", Kind: BadgeKindSales, Threshold: 50, Points: 250},
	{ID: "ventas_100", Name: "Vendedora Oro", Description: "100 ventas completadas", Icon: "trophy", Kind: BadgeKindSales, Threshold: 100, Points: 500},
	{ID: "ventas_200", Name: "Vendedora Diamante", Description: "200 ventas completadas", Icon: "gem", Kind: BadgeKindSales, Threshold: 200, Points: 1000},
	{ID: "ventas_500", Name: "Leyenda", Description: "500 ventas completadas", Icon: "crown", Kind: BadgeKindSales, Threshold: 500, Points: 2500},
}

const (
	// AmbassadorThreshold is the number of completed orders of one brand that unlocks its ambassador badge.
	AmbassadorThreshold = 20
	AmbassadorPoints    = 300
)
