package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RewardType string

const (
	RewardTypePoints RewardType = "points"
	RewardTypeUSDC   RewardType = "USDC"
	RewardTypeNFT    RewardType = "NFT"
)

// Reward is a template: what a user earns for completing an interaction.
type Reward struct {
	ID                   string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID               string          `gorm:"type:uuid;index;not null" json:"user_id"`
	PartnerApplicationID string          `gorm:"type:uuid;index;not null" json:"app_id"`
	RewardType           RewardType      `gorm:"type:varchar(16);not null" json:"reward_type"`
	Amount               decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"amount"`
	IssuedAt             time.Time       `json:"issued_at"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (r *Reward) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.IssuedAt.IsZero() {
		r.IssuedAt = time.Now()
	}
	return nil
}
