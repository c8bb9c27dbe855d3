// services/app_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"inflection-rewards/models"
)

type AppService struct {
	DB  *gorm.DB
	log *logrus.Entry
}

func NewAppService(db *gorm.DB, log *logrus.Entry) *AppService {
	return &AppService{DB: db, log: log}
}

type CreateAppInput struct {
	CategoryID     string  `json:"category_id" validate:"required,uuid"`
	Slug           string  `json:"slug" validate:"omitempty,max=80"`
	AppName        string  `json:"app_name" validate:"required,max=120"`
	AppLogo        string  `json:"app_logo" validate:"omitempty,url"`
	AppURL         string  `json:"app_url" validate:"required,url"`
	BannerImage    *string `json:"banner_image" validate:"omitempty,url"`
	AppDescription string  `json:"app_description" validate:"required"`
	AppBadgeLabel  *string `json:"app_badge_label" validate:"omitempty,max=40"`
	OpenForClaim   *bool   `json:"open_for_claim"`
}

// UpdateAppInput is a partial update: nil fields are left untouched.
type UpdateAppInput struct {
	CategoryID     *string `json:"category_id" validate:"omitempty,uuid"`
	Slug           *string `json:"slug" validate:"omitempty,max=80"`
	AppName        *string `json:"app_name" validate:"omitnil,min=1,max=120"`
	AppLogo        *string `json:"app_logo" validate:"omitempty,url"`
	AppURL         *string `json:"app_url" validate:"omitempty,url"`
	BannerImage    *string `json:"banner_image" validate:"omitempty,url"`
	AppDescription *string `json:"app_description" validate:"omitnil,min=1"`
	AppBadgeLabel  *string `json:"app_badge_label" validate:"omitempty,max=40"`
	OpenForClaim   *bool   `json:"open_for_claim"`
}

func (s *AppService) List(ctx context.Context) ([]models.PartnerApplication, error) {
	var apps []models.PartnerApplication
	err := s.DB.WithContext(ctx).Order("created_at ASC, id ASC").Find(&apps).Error
	return apps, err
}

func (s *AppService) ListFeatured(ctx context.Context) ([]models.PartnerApplication, error) {
	var apps []models.PartnerApplication
	err := s.DB.WithContext(ctx).
		Where("category_name = ?", models.FeaturedCategory).
		Order("created_at ASC, id ASC").
		Find(&apps).Error
	return apps, err
}

// Get returns the application with its interactions and their rewards.
func (s *AppService) Get(ctx context.Context, id string) (*models.PartnerApplication, error) {
	var app models.PartnerApplication
	err := s.DB.WithContext(ctx).
		Preload("Interactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Interactions.Reward").
		First(&app, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

func (s *AppService) Create(ctx context.Context, ownerID string, in CreateAppInput) (*models.PartnerApplication, error) {
	if err := errors.Join(nonBlank("app_name", &in.AppName), nonBlank("app_description", &in.AppDescription)); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	category, err := findCategory(db, in.CategoryID)
	if err != nil {
		return nil, err
	}

	appSlug, err := resolveSlug(in.Slug, in.AppName)
	if err != nil {
		return nil, err
	}

	app := models.PartnerApplication{
		UserID:         ownerID,
		CategoryID:     &category.ID,
		CategoryName:   &category.Name,
		Slug:           appSlug,
		AppName:        in.AppName,
		AppLogo:        in.AppLogo,
		AppURL:         in.AppURL,
		BannerImage:    in.BannerImage,
		AppDescription: in.AppDescription,
		AppBadgeLabel:  in.AppBadgeLabel,
		OpenForClaim:   true,
	}
	if in.OpenForClaim != nil {
		app.OpenForClaim = *in.OpenForClaim
	}

	if err := db.Create(&app).Error; err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: slug %q is already taken", ErrConflict, appSlug)
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"app_id": app.ID, "owner_id": ownerID}).Info("[APPS] application created")
	return &app, nil
}

// Update applies the non-nil fields of in. Only the owner may update.
func (s *AppService) Update(ctx context.Context, id, userID string, in UpdateAppInput) (*models.PartnerApplication, error) {
	db := s.DB.WithContext(ctx)

	app, err := requireAppOwner(db, id, userID)
	if err != nil {
		return nil, err
	}
	if err := errors.Join(nonBlank("app_name", in.AppName), nonBlank("app_description", in.AppDescription)); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if in.CategoryID != nil {
		category, err := findCategory(db, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		changes["category_id"] = category.ID
		changes["category_name"] = category.Name
	}
	if in.Slug != nil {
		if !slug.IsSlug(*in.Slug) {
			return nil, fmt.Errorf("%w: slug must be lowercase letters, digits and dashes", ErrInvalidInput)
		}
		changes["slug"] = *in.Slug
	}
	if in.AppName != nil {
		changes["app_name"] = *in.AppName
	}
	if in.AppLogo != nil {
		changes["app_logo"] = *in.AppLogo
	}
	if in.AppURL != nil {
		changes["app_url"] = *in.AppURL
	}
	if in.BannerImage != nil {
		changes["banner_image"] = *in.BannerImage
	}
	if in.AppDescription != nil {
		changes["app_description"] = *in.AppDescription
	}
	if in.AppBadgeLabel != nil {
		changes["app_badge_label"] = *in.AppBadgeLabel
	}
	if in.OpenForClaim != nil {
		changes["open_for_claim"] = *in.OpenForClaim
	}

	if len(changes) > 0 {
		if err := db.Model(app).Updates(changes).Error; err != nil {
			if isDuplicate(err) {
				return nil, fmt.Errorf("%w: slug is already taken", ErrConflict)
			}
			return nil, err
		}
	}

	return s.Get(ctx, id)
}

// Delete removes the application together with its interactions, reward
// templates, completion records and issued rewards.
func (s *AppService) Delete(ctx context.Context, id, userID string) (*models.PartnerApplication, error) {
	var deleted *models.PartnerApplication
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := requireAppOwner(tx, id, userID)
		if err != nil {
			return err
		}
		deleted = app

		dependents := []interface{}{
			&models.UserAppReward{},
			&models.UserAppInteraction{},
			&models.PartnerInteraction{},
			&models.Reward{},
		}
		for _, model := range dependents {
			if err := tx.Where("partner_application_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(app).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("app_id", id).Info("[APPS] application deleted")
	return deleted, nil
}

func findCategory(db *gorm.DB, id string) (*models.Category, error) {
	var category models.Category
	if err := db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &category, nil
}

// resolveSlug keeps a valid explicit slug or derives one from the app name.
func resolveSlug(explicit, appName string) (string, error) {
	if explicit == "" {
		derived := slug.Make(appName)
		if derived == "" {
			return "", fmt.Errorf("%w: cannot derive a slug from app name", ErrInvalidInput)
		}
		return derived, nil
	}
	if !slug.IsSlug(explicit) {
		return "", fmt.Errorf("%w: slug must be lowercase letters, digits and dashes", ErrInvalidInput)
	}
	return explicit, nil
}
