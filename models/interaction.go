package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationType declares how completion of an interaction should be checked.
type VerificationType string

const (
	VerificationNone   VerificationType = "none"
	VerificationManual VerificationType = "manual"
	VerificationAPI    VerificationType = "api"
)

// PartnerInteraction is a mission a user completes to earn its Reward.
type PartnerInteraction struct {
	ID                   string           `gorm:"primaryKey;type:uuid" json:"id"`
	PartnerApplicationID string           `gorm:"type:uuid;index;not null" json:"app_id"`
	RewardID             string           `gorm:"type:uuid;index;not null" json:"reward_id"`
	Title                string           `gorm:"not null" json:"title"`
	Description          string           `gorm:"type:text;not null" json:"description"`
	ActionTitle          *string          `json:"action_title"`
	InteractionURL       string           `gorm:"type:text;not null" json:"interaction_url"`
	VerificationType     VerificationType `gorm:"type:varchar(16);not null" json:"verification_type"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`

	Reward *Reward `gorm:"foreignKey:RewardID" json:"reward,omitempty"`
}

func (PartnerInteraction) TableName() string { return "partner_interactions" }

func (i *PartnerInteraction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.VerificationType == "" {
		i.VerificationType = VerificationNone
	}
	return nil
}
