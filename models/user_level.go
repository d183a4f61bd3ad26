package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Level is a reseller's sales level
type Level string

const (
	LevelPrincipiante Level = "principiante"
	LevelBronce       Level = "bronce"
	LevelPlata        Level = "plata"
	LevelOro          Level = "oro"
	LevelDiamante     Level = "diamante"
	LevelLeyenda      Level = "leyenda"
)

// UserLevel tracks gamified progression for each reseller.
// TotalSales and CurrentXP are always recomputed from completed orders, never incremented.
// HighestLevel only moves up; level-up points are paid against it.
type UserLevel struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string `gorm:"uniqueIndex;not null" json:"user_id"` // external user id from the gateway
	CurrentLevel Level  `gorm:"type:varchar(16);not null;default:'principiante'" json:"current_level"`
	CurrentXP    int64  `gorm:"default:0" json:"current_xp"`
	TotalSales   int64  `gorm:"default:0;index" json:"total_sales"`
	HighestLevel Level  `gorm:"type:varchar(16);not null;default:'principiante'" json:"highest_level"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

func (u *UserLevel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
