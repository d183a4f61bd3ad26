package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultMarkupPercent = 60.0

// Reseller is a local record of a "revendedora".
// Identity is owned by the auth gateway; we keep the markup and display data.
type Reseller struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	MarkupPercent  float64   `gorm:"not null;default:60" json:"markup_percent"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (r *Reseller) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// AllModels is the AutoMigrate set.
func AllModels() []interface{} {
	return []interface{}{
		&CachedProduct{},
		&Reseller{},
		&Order{},
		&OrderItem{},
		&Consolidation{},
		&UserLevel{},
		&Point{},
		&Badge{},
		&UserBadge{},
	}
}
