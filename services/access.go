package services

import (
	"context"

	"gorm.io/gorm"

	"inflection-rewards/models"
)

// AccessService answers the two authorization questions the API asks:
// does a user own an application, and is a user an admin. No caching.
type AccessService struct {
	DB *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

func (s *AccessService) IsAppOwner(ctx context.Context, appID, userID string) (bool, error) {
	var app models.PartnerApplication
	if err := s.DB.WithContext(ctx).Select("id", "user_id").First(&app, "id = ?", appID).Error; err != nil {
		return false, notFound(err)
	}
	return app.UserID == userID, nil
}

func (s *AccessService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Select("id", "role").First(&user, "id = ?", userID).Error; err != nil {
		return false, notFound(err)
	}
	return user.IsAdmin(), nil
}

// requireAppOwner loads the application and fails with ErrNotFound or
// ErrForbidden when userID may not modify it.
func requireAppOwner(db *gorm.DB, appID, userID string) (*models.PartnerApplication, error) {
	var app models.PartnerApplication
	if err := db.First(&app, "id = ?", appID).Error; err != nil {
		return nil, notFound(err)
	}
	if app.UserID != userID {
		return nil, ErrForbidden
	}
	return &app, nil
}
