package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inflection-rewards/logging"
	"inflection-rewards/models"
)

type fixture struct {
	db            *gorm.DB
	apps          *AppService
	interactions  *InteractionService
	rewards       *RewardService
	categories    *CategoryService
	users         *UserService
	notifications *NotificationService
	submissions   *SubmissionService
	access        *AccessService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection, or every new connection sees an empty in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))

	log := logging.Discard().WithField("component", "test")
	notifications := NewNotificationService(db, log)
	return &fixture{
		db:            db,
		apps:          NewAppService(db, log),
		interactions:  NewInteractionService(db, log),
		rewards:       NewRewardService(db, log),
		categories:    NewCategoryService(db, log),
		users:         NewUserService(db, log),
		notifications: notifications,
		submissions:   NewSubmissionService(db, notifications, log),
		access:        NewAccessService(db),
	}
}

func (f *fixture) user(t *testing.T, dynamicID, phone string) *models.User {
	t.Helper()
	u, err := f.users.Login(context.Background(), dynamicID, LoginInput{Name: dynamicID, Phone: phone})
	require.NoError(t, err)
	return u
}

func (f *fixture) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), CreateCategoryInput{Name: name})
	require.NoError(t, err)
	return c
}

func (f *fixture) app(t *testing.T, owner *models.User, category *models.Category, slug string) *models.PartnerApplication {
	t.Helper()
	a, err := f.apps.Create(context.Background(), owner.ID, CreateAppInput{
		CategoryID:     category.ID,
		Slug:           slug,
		AppName:        "App " + slug,
		AppURL:         "https://" + slug + ".example.com",
		AppDescription: "A partner application",
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) reward(t *testing.T, owner *models.User, app *models.PartnerApplication, amount int64) *models.Reward {
	t.Helper()
	r, err := f.rewards.Create(context.Background(), owner.ID, CreateRewardInput{
		RewardType: string(models.RewardTypePoints),
		Amount:     decimal.NewFromInt(amount),
		AppID:      app.ID,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) interaction(t *testing.T, owner *models.User, app *models.PartnerApplication, reward *models.Reward, title string) *models.PartnerInteraction {
	t.Helper()
	i, err := f.interactions.Create(context.Background(), app.ID, owner.ID, CreateInteractionInput{
		Title:          title,
		Description:    "Do the thing",
		InteractionURL: "https://example.com/" + title,
		RewardID:       reward.ID,
	})
	require.NoError(t, err)
	return i
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}
