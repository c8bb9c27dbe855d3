package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleAgent UserRole = "agent"
)

// User is keyed internally by ID; DynamicID links it to the identity provider.
type User struct {
	ID                string    `gorm:"primaryKey;type:uuid" json:"id"`
	DynamicID         string    `gorm:"uniqueIndex;not null" json:"dynamic_id"`
	Phone             string    `gorm:"uniqueIndex;not null" json:"phone"`
	Name              string    `gorm:"not null" json:"name"`
	Email             *string   `json:"email,omitempty"`
	WalletAddress     *string   `gorm:"size:42" json:"wallet_address,omitempty"`
	Role              UserRole  `gorm:"type:varchar(16);not null" json:"role"`
	OnboardingAgentID *string   `gorm:"type:uuid" json:"onboarding_agent_id,omitempty"`
	ProfileImageURL   *string   `json:"profile_image_url,omitempty"`
	BannerImageURL    *string   `json:"banner_image_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
