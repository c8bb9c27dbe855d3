package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserAppInteraction records that a user completed an interaction.
// A user can complete a given interaction at most once.
type UserAppInteraction struct {
	ID                   string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID               string           `gorm:"type:uuid;not null;uniqueIndex:idx_user_interaction_once" json:"user_id"`
	InteractionID        string           `gorm:"type:uuid;not null;uniqueIndex:idx_user_interaction_once" json:"interaction_id"`
	PartnerApplicationID string           `gorm:"type:uuid;index;not null" json:"app_id"`
	VerificationType     VerificationType `gorm:"type:varchar(16);not null" json:"verification_type"`
	Verified             bool             `gorm:"not null" json:"verified"`
	VerifiedAt           *time.Time       `json:"verified_at"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

func (UserAppInteraction) TableName() string { return "user_app_interactions" }

func (u *UserAppInteraction) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserAppReward records a reward granted to a user. One per
// (user, application, reward).
type UserAppReward struct {
	ID                   string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID               string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_app_reward_once" json:"user_id"`
	PartnerApplicationID string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_app_reward_once" json:"app_id"`
	RewardID             string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_app_reward_once" json:"reward_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	Reward *Reward `gorm:"foreignKey:RewardID" json:"reward,omitempty"`
}

func (UserAppReward) TableName() string { return "user_app_rewards" }

func (u *UserAppReward) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
