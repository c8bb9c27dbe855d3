// services/submission.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"inflection-rewards/metrics"
	"inflection-rewards/models"
)

// SubmissionService turns a user's submission of an interaction into a
// completion record plus a reward-issuance record, atomically.
type SubmissionService struct {
	DB            *gorm.DB
	Notifications *NotificationService
	log           *logrus.Entry
}

func NewSubmissionService(db *gorm.DB, notifications *NotificationService, log *logrus.Entry) *SubmissionService {
	return &SubmissionService{DB: db, Notifications: notifications, log: log}
}

type SubmissionResult struct {
	Completion models.UserAppInteraction `json:"user_interaction"`
	Issued     models.UserAppReward      `json:"user_reward"`
}

// Submit records that userID completed interactionID and grants the reward.
// The unique constraints on both tables are what stop a second submission;
// a violation surfaces as ErrAlreadyCompleted and nothing is persisted.
func (s *SubmissionService) Submit(ctx context.Context, userID, interactionID string) (*SubmissionResult, error) {
	var (
		result      SubmissionResult
		interaction models.PartnerInteraction
		ownerID     string
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Reward").First(&interaction, "id = ?", interactionID).Error; err != nil {
			return notFound(err)
		}

		var app models.PartnerApplication
		if err := tx.Select("id", "user_id").First(&app, "id = ?", interaction.PartnerApplicationID).Error; err != nil {
			return notFound(err)
		}
		ownerID = app.UserID

		now := time.Now()
		result.Completion = models.UserAppInteraction{
			UserID:               userID,
			InteractionID:        interaction.ID,
			PartnerApplicationID: interaction.PartnerApplicationID,
			VerificationType:     interaction.VerificationType,
			Verified:             true,
			VerifiedAt:           &now,
		}
		if err := tx.Create(&result.Completion).Error; err != nil {
			return classifyInsert(err)
		}

		result.Issued = models.UserAppReward{
			UserID:               userID,
			PartnerApplicationID: interaction.PartnerApplicationID,
			RewardID:             interaction.RewardID,
		}
		if err := tx.Create(&result.Issued).Error; err != nil {
			return classifyInsert(err)
		}
		return nil
	})

	entry := s.log.WithFields(logrus.Fields{"user_id": userID, "interaction_id": interactionID})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyCompleted):
			metrics.SubmissionRejected("already_completed")
			entry.Info("[SUBMIT] duplicate submission rejected")
		case errors.Is(err, ErrNotFound):
			metrics.SubmissionRejected("not_found")
		default:
			metrics.SubmissionRejected("error")
			entry.WithError(err).Error("[SUBMIT] transaction failed")
		}
		return nil, err
	}

	// Every submission is approved on arrival; manual and api verification
	// are declared on the interaction but not enforced yet.
	if interaction.VerificationType != models.VerificationNone {
		entry.WithField("verification_type", interaction.VerificationType).Warn("[SUBMIT] auto-approved interaction that declares verification")
	}
	if ownerID == userID {
		entry.Warn("[SUBMIT] application owner submitted their own interaction")
	}

	rewardType := "unknown"
	if interaction.Reward != nil {
		rewardType = string(interaction.Reward.RewardType)
		result.Issued.Reward = interaction.Reward
	}
	metrics.RewardIssued(rewardType)
	entry.WithField("reward_id", interaction.RewardID).Info("[SUBMIT] reward issued")

	s.notifyEarned(ctx, userID, &interaction)
	return &result, nil
}

// notifyEarned is best effort: a failure is logged and the issuance stands.
func (s *SubmissionService) notifyEarned(ctx context.Context, userID string, interaction *models.PartnerInteraction) {
	if s.Notifications == nil {
		return
	}

	message := fmt.Sprintf("You completed %q.", interaction.Title)
	if r := interaction.Reward; r != nil {
		message = fmt.Sprintf("You earned %s %s for completing %q.", r.Amount.String(), r.RewardType, interaction.Title)
	}
	data := map[string]interface{}{
		"interaction_id": interaction.ID,
		"app_id":         interaction.PartnerApplicationID,
		"reward_id":      interaction.RewardID,
	}
	if _, err := s.Notifications.Create(ctx, userID, "Reward earned", message, data); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("[SUBMIT] could not record reward notification")
	}
}

func classifyInsert(err error) error {
	if isDuplicate(err) {
		return ErrAlreadyCompleted
	}
	return err
}
