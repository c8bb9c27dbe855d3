package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartnerApplication is a third-party app listed on the platform.
type PartnerApplication struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID         string    `gorm:"type:uuid;index;not null" json:"user_id"`
	CategoryID     *string   `gorm:"type:uuid;index" json:"category_id"`
	CategoryName   *string   `gorm:"index" json:"category_name"`
	Slug           string    `gorm:"uniqueIndex;not null" json:"slug"`
	AppName        string    `gorm:"not null" json:"app_name"`
	AppLogo        string    `gorm:"type:text" json:"app_logo"`
	AppURL         string    `gorm:"type:text;not null" json:"app_url"`
	BannerImage    *string   `gorm:"type:text" json:"banner_image"`
	AppDescription string    `gorm:"type:text;not null" json:"app_description"`
	AppBadgeLabel  *string   `json:"app_badge_label"`
	OpenForClaim   bool      `gorm:"not null" json:"open_for_claim"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Interactions []PartnerInteraction `gorm:"foreignKey:PartnerApplicationID" json:"interactions,omitempty"`
}

func (PartnerApplication) TableName() string { return "partner_applications" }

func (a *PartnerApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
