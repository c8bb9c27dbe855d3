package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inflection-rewards/models"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

// NotificationService keeps the per-user push address and the notification
// log. Delivery is out of its hands.
type NotificationService struct {
	DB  *gorm.DB
	log *logrus.Entry
}

func NewNotificationService(db *gorm.DB, log *logrus.Entry) *NotificationService {
	return &NotificationService{DB: db, log: log}
}

type RegisterTokenInput struct {
	Token string `json:"token" validate:"required,max=512"`
}

// RegisterToken stores the push address for a user, replacing any earlier one.
func (s *NotificationService) RegisterToken(ctx context.Context, userID, token string) (*models.NotificationToken, error) {
	row := models.NotificationToken{UserID: userID, Token: strings.TrimSpace(token)}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}

	var stored models.NotificationToken
	if err := s.DB.WithContext(ctx).First(&stored, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *NotificationService) RemoveToken(ctx context.Context, userID string) error {
	return s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.NotificationToken{}).Error
}

func (s *NotificationService) Create(ctx context.Context, userID, title, message string, data map[string]interface{}) (*models.Notification, error) {
	n := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Data:    datatypes.JSONMap(data),
	}
	if err := s.DB.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// List pages through a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	if offset < 0 {
		offset = 0
	}

	var out []models.Notification
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

func (s *NotificationService) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
