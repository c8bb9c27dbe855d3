package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"inflection-rewards/models"
)

type InteractionService struct {
	DB  *gorm.DB
	log *logrus.Entry
}

func NewInteractionService(db *gorm.DB, log *logrus.Entry) *InteractionService {
	return &InteractionService{DB: db, log: log}
}

type CreateInteractionInput struct {
	Title            string  `json:"title" validate:"required,max=160"`
	Description      string  `json:"description" validate:"required"`
	ActionTitle      *string `json:"action_title" validate:"omitempty,max=80"`
	InteractionURL   string  `json:"interaction_url" validate:"required,url"`
	VerificationType string  `json:"verification_type" validate:"omitempty,oneof=none manual api"`
	RewardID         string  `json:"reward_id" validate:"required,uuid"`
}

type UpdateInteractionInput struct {
	Title            *string `json:"title" validate:"omitnil,min=1,max=160"`
	Description      *string `json:"description" validate:"omitnil,min=1"`
	ActionTitle      *string `json:"action_title" validate:"omitempty,max=80"`
	InteractionURL   *string `json:"interaction_url" validate:"omitempty,url"`
	VerificationType *string `json:"verification_type" validate:"omitempty,oneof=none manual api"`
	RewardID         *string `json:"reward_id" validate:"omitempty,uuid"`
}

func (s *InteractionService) ListByApp(ctx context.Context, appID string) ([]models.PartnerInteraction, error) {
	db := s.DB.WithContext(ctx)
	if err := db.Select("id").First(&models.PartnerApplication{}, "id = ?", appID).Error; err != nil {
		return nil, notFound(err)
	}

	var interactions []models.PartnerInteraction
	err := db.Preload("Reward").
		Where("partner_application_id = ?", appID).
		Order("created_at ASC, id ASC").
		Find(&interactions).Error
	return interactions, err
}

func (s *InteractionService) Get(ctx context.Context, id string) (*models.PartnerInteraction, error) {
	var interaction models.PartnerInteraction
	if err := s.DB.WithContext(ctx).Preload("Reward").First(&interaction, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &interaction, nil
}

func (s *InteractionService) Create(ctx context.Context, appID, userID string, in CreateInteractionInput) (*models.PartnerInteraction, error) {
	db := s.DB.WithContext(ctx)

	if err := errors.Join(nonBlank("title", &in.Title), nonBlank("description", &in.Description)); err != nil {
		return nil, err
	}
	if _, err := requireAppOwner(db, appID, userID); err != nil {
		return nil, err
	}
	if err := rewardBelongsTo(db, in.RewardID, appID); err != nil {
		return nil, err
	}

	interaction := models.PartnerInteraction{
		PartnerApplicationID: appID,
		RewardID:             in.RewardID,
		Title:                in.Title,
		Description:          in.Description,
		ActionTitle:          in.ActionTitle,
		InteractionURL:       in.InteractionURL,
		VerificationType:     models.VerificationType(in.VerificationType),
	}
	if err := db.Create(&interaction).Error; err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"interaction_id": interaction.ID, "app_id": appID}).Info("[INTERACTIONS] interaction created")
	return s.Get(ctx, interaction.ID)
}

func (s *InteractionService) Update(ctx context.Context, id, userID string, in UpdateInteractionInput) (*models.PartnerInteraction, error) {
	db := s.DB.WithContext(ctx)

	interaction, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := requireAppOwner(db, interaction.PartnerApplicationID, userID); err != nil {
		return nil, err
	}

	if err := errors.Join(nonBlank("title", in.Title), nonBlank("description", in.Description)); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if in.Title != nil {
		changes["title"] = *in.Title
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}
	if in.ActionTitle != nil {
		changes["action_title"] = *in.ActionTitle
	}
	if in.InteractionURL != nil {
		changes["interaction_url"] = *in.InteractionURL
	}
	if in.VerificationType != nil {
		changes["verification_type"] = *in.VerificationType
	}
	if in.RewardID != nil {
		if err := rewardBelongsTo(db, *in.RewardID, interaction.PartnerApplicationID); err != nil {
			return nil, err
		}
		changes["reward_id"] = *in.RewardID
	}

	if len(changes) > 0 {
		if err := db.Model(&models.PartnerInteraction{ID: id}).Updates(changes).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// Delete removes an interaction nobody has completed yet. Once a completion
// exists the interaction is kept so issued rewards stay traceable.
func (s *InteractionService) Delete(ctx context.Context, id, userID string) (*models.PartnerInteraction, error) {
	var deleted models.PartnerInteraction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if _, err := requireAppOwner(tx, deleted.PartnerApplicationID, userID); err != nil {
			return err
		}

		var completions int64
		if err := tx.Model(&models.UserAppInteraction{}).Where("interaction_id = ?", id).Count(&completions).Error; err != nil {
			return err
		}
		if completions > 0 {
			return fmt.Errorf("%w: interaction has %d completions", ErrConflict, completions)
		}
		return tx.Delete(&deleted).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func (s *InteractionService) IsSubmitted(ctx context.Context, userID, interactionID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.UserAppInteraction{}).
		Where("user_id = ? AND interaction_id = ?", userID, interactionID).
		Count(&count).Error
	return count > 0, err
}

func (s *InteractionService) ListSubmitted(ctx context.Context, userID string) ([]models.UserAppInteraction, error) {
	var completions []models.UserAppInteraction
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&completions).Error
	return completions, err
}

func rewardBelongsTo(db *gorm.DB, rewardID, appID string) error {
	var reward models.Reward
	if err := db.First(&reward, "id = ?", rewardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: reward %s does not exist", ErrInvalidInput, rewardID)
		}
		return err
	}
	if reward.PartnerApplicationID != appID {
		return fmt.Errorf("%w: reward belongs to another application", ErrInvalidInput)
	}
	return nil
}
