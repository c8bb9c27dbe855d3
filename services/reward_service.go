// services/reward_service.go
package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"inflection-rewards/models"
)

type RewardService struct {
	DB  *gorm.DB
	log *logrus.Entry
}

func NewRewardService(db *gorm.DB, log *logrus.Entry) *RewardService {
	return &RewardService{DB: db, log: log}
}

type CreateRewardInput struct {
	RewardType string          `json:"reward_type" validate:"required,oneof=points USDC NFT"`
	Amount     decimal.Decimal `json:"amount"`
	AppID      string          `json:"app_id" validate:"required,uuid"`
}

func (s *RewardService) Get(ctx context.Context, id string) (*models.Reward, error) {
	var reward models.Reward
	if err := s.DB.WithContext(ctx).First(&reward, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &reward, nil
}

func (s *RewardService) ListByApp(ctx context.Context, appID string) ([]models.Reward, error) {
	var rewards []models.Reward
	err := s.DB.WithContext(ctx).
		Where("partner_application_id = ?", appID).
		Order("created_at ASC, id ASC").
		Find(&rewards).Error
	return rewards, err
}

// Create defines a reward template under an application the caller owns.
func (s *RewardService) Create(ctx context.Context, userID string, in CreateRewardInput) (*models.Reward, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}

	db := s.DB.WithContext(ctx)
	if _, err := requireAppOwner(db, in.AppID, userID); err != nil {
		return nil, err
	}

	reward := models.Reward{
		UserID:               userID,
		PartnerApplicationID: in.AppID,
		RewardType:           models.RewardType(in.RewardType),
		Amount:               in.Amount,
	}
	if err := db.Create(&reward).Error; err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"reward_id": reward.ID,
		"app_id":    in.AppID,
		"type":      reward.RewardType,
		"amount":    reward.Amount.String(),
	}).Info("[REWARDS] reward template created")
	return &reward, nil
}
