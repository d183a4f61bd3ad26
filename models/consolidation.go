package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Consolidation groups a reseller's pending orders into one supplier shipment request.
type Consolidation struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID         string    `gorm:"index;not null" json:"user_id"`
	OrderCount     int       `json:"order_count"`
	WholesaleTotal float64   `json:"wholesale_total"`
	Total          float64   `json:"total"`
	SubmittedAt    time.Time `json:"submitted_at"`

	Orders []Order `gorm:"foreignKey:ConsolidationID" json:"orders,omitempty"`

	Timestamps
}

func (c *Consolidation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
