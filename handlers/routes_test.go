package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inflection-rewards/models"
	"inflection-rewards/services"
)

func TestRewardFlowScenario(t *testing.T) {
	s := newTestServer(t)

	adminToken, admin := s.login(t, "admin", "+1")
	s.makeAdmin(t, admin.ID)
	aliceToken, _ := s.login(t, "alice", "+100")
	bobToken, bob := s.login(t, "bob", "+200")

	status, env := s.do(t, http.MethodPost, "/api/apps/categories", adminToken, map[string]string{"name": "games"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	games := decode[models.Category](t, env)

	status, env = s.do(t, http.MethodPost, "/api/apps", aliceToken, map[string]string{
		"category_id":     games.ID,
		"slug":            "x",
		"app_name":        "X",
		"app_url":         "https://x.example.com",
		"app_description": "The X app",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	app := decode[models.PartnerApplication](t, env)

	status, env = s.do(t, http.MethodPost, "/api/reward", aliceToken, map[string]interface{}{
		"reward_type": "points",
		"amount":      100,
		"app_id":      app.ID,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	reward := decode[models.Reward](t, env)

	status, env = s.do(t, http.MethodPost, "/api/apps/"+app.ID+"/interactions", aliceToken, map[string]string{
		"title":           "visit site",
		"description":     "Visit the X site",
		"interaction_url": "https://x.example.com",
		"reward_id":       reward.ID,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	visit := decode[models.PartnerInteraction](t, env)

	status, env = s.do(t, http.MethodPost, "/api/apps/interactions/"+visit.ID+"/submit", bobToken, nil)
	require.Equal(t, http.StatusCreated, status, env.Message)
	result := decode[services.SubmissionResult](t, env)
	assert.Equal(t, bob.ID, result.Completion.UserID)
	assert.Equal(t, reward.ID, result.Issued.RewardID)

	status, env = s.do(t, http.MethodPost, "/api/apps/interactions/"+visit.ID+"/submit", bobToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Interaction already completed", env.Message)
	assert.False(t, env.Success)

	assert.Equal(t, int64(1), s.count(t, &models.UserAppInteraction{}))
	assert.Equal(t, int64(1), s.count(t, &models.UserAppReward{}))

	status, env = s.do(t, http.MethodGet, "/api/apps/interactions/"+visit.ID+"/submitted", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[map[string]bool](t, env)["submitted"])

	status, env = s.do(t, http.MethodGet, "/api/user/"+bob.ID+"/rewards", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.UserAppReward](t, env), 1)

	// alice cannot read bob's rewards; the admin can
	status, _ = s.do(t, http.MethodGet, "/api/user/"+bob.ID+"/rewards", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.do(t, http.MethodGet, "/api/user/"+bob.ID+"/rewards", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/api/user/me/notifications", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Notification](t, env), 1)
}

func TestSubmitUnknownInteractionIsNotFound(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t, "bob", "+200")

	status, env := s.do(t, http.MethodPost, "/api/apps/interactions/"+uuid.NewString()+"/submit", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.Zero(t, s.count(t, &models.UserAppInteraction{}))
	assert.Zero(t, s.count(t, &models.UserAppReward{}))
}

func TestListAppsIsPublicAndStable(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, "/api/apps", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.Equal(t, "[]", string(env.Data))

	_, again := s.do(t, http.MethodGet, "/api/apps", "", nil)
	assert.Equal(t, env, again)
}

func TestNonAdminCannotCreateCategory(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t, "alice", "+100")

	status, _ := s.do(t, http.MethodPost, "/api/apps/categories", token, map[string]string{"name": "games"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/api/apps/categories", "", map[string]string{"name": "games"})
	assert.Equal(t, http.StatusUnauthorized, status)

	assert.Zero(t, s.count(t, &models.Category{}))
}

func TestNonOwnerGetsForbidden(t *testing.T) {
	s := newTestServer(t)
	adminToken, admin := s.login(t, "admin", "+1")
	s.makeAdmin(t, admin.ID)
	aliceToken, _ := s.login(t, "alice", "+100")
	malloryToken, _ := s.login(t, "mallory", "+300")

	_, env := s.do(t, http.MethodPost, "/api/apps/categories", adminToken, map[string]string{"name": "games"})
	games := decode[models.Category](t, env)
	_, env = s.do(t, http.MethodPost, "/api/apps", aliceToken, map[string]string{
		"category_id": games.ID, "slug": "x", "app_name": "X",
		"app_url": "https://x.example.com", "app_description": "d",
	})
	app := decode[models.PartnerApplication](t, env)

	status, _ := s.do(t, http.MethodPut, "/api/apps/"+app.ID, malloryToken, map[string]string{"app_name": "pwned"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodDelete, "/api/apps/"+app.ID, malloryToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/api/reward", malloryToken, map[string]interface{}{
		"reward_type": "points", "amount": 1, "app_id": app.ID,
	})
	assert.Equal(t, http.StatusForbidden, status)

	_, env = s.do(t, http.MethodGet, "/api/apps/"+app.ID, "", nil)
	assert.Equal(t, "X", decode[models.PartnerApplication](t, env).AppName)
	assert.Zero(t, s.count(t, &models.Reward{}))
}

func TestValidationRunsBeforeAuthentication(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/api/apps", "", map[string]string{"app_name": "X"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(env.Data), "category_id")

	status, _ = s.do(t, http.MethodGet, "/api/apps/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPartialUpdatesRejectBlankRequiredFields(t *testing.T) {
	s := newTestServer(t)
	adminToken, admin := s.login(t, "admin", "+1")
	s.makeAdmin(t, admin.ID)
	aliceToken, _ := s.login(t, "alice", "+100")

	_, env := s.do(t, http.MethodPost, "/api/apps/categories", adminToken, map[string]string{"name": "games"})
	games := decode[models.Category](t, env)
	status, env := s.do(t, http.MethodPost, "/api/apps", aliceToken, map[string]string{
		"category_id": games.ID, "slug": "padded", "app_name": "  Padded  ",
		"app_url": "https://padded.example.com", "app_description": "d",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	app := decode[models.PartnerApplication](t, env)
	assert.Equal(t, "  Padded  ", app.AppName)

	_, env = s.do(t, http.MethodPost, "/api/reward", aliceToken, map[string]interface{}{
		"reward_type": "points", "amount": 5, "app_id": app.ID,
	})
	reward := decode[models.Reward](t, env)
	_, env = s.do(t, http.MethodPost, "/api/apps/"+app.ID+"/interactions", aliceToken, map[string]string{
		"title": "visit", "description": "Visit the site",
		"interaction_url": "https://padded.example.com", "reward_id": reward.ID,
	})
	visit := decode[models.PartnerInteraction](t, env)

	status, env = s.do(t, http.MethodPut, "/api/apps/"+app.ID, aliceToken, map[string]string{"app_name": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(env.Data), "app_name")

	status, _ = s.do(t, http.MethodPut, "/api/apps/"+app.ID, aliceToken, map[string]string{"app_description": "   "})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(t, http.MethodPut, "/api/apps/interactions/"+visit.ID, aliceToken, map[string]string{"title": "", "description": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(env.Data), "title")

	status, _ = s.do(t, http.MethodPut, "/api/user/me", aliceToken, map[string]string{"phone": ""})
	assert.Equal(t, http.StatusBadRequest, status)

	_, env = s.do(t, http.MethodGet, "/api/apps/"+app.ID, "", nil)
	got := decode[models.PartnerApplication](t, env)
	assert.Equal(t, "  Padded  ", got.AppName)
	assert.Equal(t, "d", got.AppDescription)
	require.Len(t, got.Interactions, 1)
	assert.Equal(t, "visit", got.Interactions[0].Title)

	_, env = s.do(t, http.MethodGet, "/api/user/me", aliceToken, nil)
	assert.Equal(t, "+100", decode[models.User](t, env).Phone)
}

func TestLoginRequiresIdentityToken(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"phone": "+100"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Zero(t, s.count(t, &models.User{}))
}

func TestRefreshToken(t *testing.T) {
	s := newTestServer(t)
	token, user := s.login(t, "alice", "+100")

	status, _ := s.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refresh_token": token})
	assert.Equal(t, http.StatusUnauthorized, status, "an access token is not a refresh token")

	pair, again := s.loginTokens(t, "alice", "+100")
	assert.Equal(t, user.ID, again.ID)
	refresh := pair.RefreshToken

	status, env := s.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, decode[map[string]interface{}](t, env)["access_token"])

	status, env = s.do(t, http.MethodGet, "/api/user/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, user.ID, decode[models.User](t, env).ID)
}

func TestUploadWithoutStorageIsUnavailable(t *testing.T) {
	s := newTestServer(t)
	token, user := s.login(t, "alice", "+100")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("resource_type", "userprofile"))
	require.NoError(t, w.WriteField("resource_id", user.ID))
	part, err := w.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
