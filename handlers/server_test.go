package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inflection-rewards/auth"
	"inflection-rewards/logging"
	"inflection-rewards/models"
	"inflection-rewards/services"
)

// fakeVerifier accepts identity tokens of the form "dyn:<external id>".
type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, raw string) (string, error) {
	if id, ok := strings.CutPrefix(raw, "dyn:"); ok && id != "" {
		return id, nil
	}
	return "", errors.New("invalid identity token")
}

type testServer struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))

	log := logging.Discard()
	entry := log.WithField("component", "test")
	notifications := services.NewNotificationService(db, entry)

	app := NewApp(ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}}, Deps{
		Log:           log,
		Verifier:      fakeVerifier{},
		Tokens:        auth.NewTokenIssuer("access", "refresh", time.Hour, 24*time.Hour),
		DB:            sqlDB,
		Access:        services.NewAccessService(db),
		Apps:          services.NewAppService(db, entry),
		Interactions:  services.NewInteractionService(db, entry),
		Rewards:       services.NewRewardService(db, entry),
		Categories:    services.NewCategoryService(db, entry),
		Users:         services.NewUserService(db, entry),
		Notifications: notifications,
		Submissions:   services.NewSubmissionService(db, notifications, entry),
		Uploads:       services.NewUploadService(db, nil, 1<<20, entry),
	})
	return &testServer{app: app, db: db}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// login signs a user in through the identity-token flow and returns the
// access token and user.
func (s *testServer) login(t *testing.T, externalID, phone string) (string, models.User) {
	t.Helper()
	tokens, user := s.loginTokens(t, externalID, phone)
	return tokens.AccessToken, user
}

func (s *testServer) loginTokens(t *testing.T, externalID, phone string) (auth.TokenPair, models.User) {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"name": externalID, "phone": phone})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-dynamic-access-token", "dyn:"+externalID)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	out := decode[struct {
		User   models.User    `json:"user"`
		Tokens auth.TokenPair `json:"tokens"`
	}](t, env)
	return out.Tokens, out.User
}

func (s *testServer) makeAdmin(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, s.db.Model(&models.User{}).Where("id = ?", userID).Update("role", models.RoleAdmin).Error)
}

func (s *testServer) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(model).Count(&n).Error)
	return n
}

func TestPanicIsRecoveredLoggedAndCounted(t *testing.T) {
	s := newTestServer(t)
	s.app.Get("/boom", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.False(t, env.Success)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `inflection_http_requests_total{method="GET",route="/boom",status="500"} 1`)
}

func TestHealth(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	SetupHealthRoutes(app, db)

	mock.ExpectPing()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	assert.NoError(t, mock.ExpectationsWereMet())
}
