package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"inflection-rewards/auth"
	"inflection-rewards/models"
	"inflection-rewards/services"
)

type LoginResult struct {
	User   models.User    `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// Login exchanges the identity token for first-party tokens and keeps them
// on the client.
func (c *Client) Login(ctx context.Context, in services.LoginInput) (*LoginResult, error) {
	var out LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return nil, err
	}
	c.SetTokens(out.Tokens.AccessToken, out.Tokens.RefreshToken)
	c.cache.Invalidate(NSUser)
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context) (*auth.TokenPair, error) {
	c.mu.RLock()
	refresh := c.refreshToken
	c.mu.RUnlock()

	var out auth.TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh-token", map[string]string{"refresh_token": refresh}, &out); err != nil {
		return nil, err
	}
	c.SetTokens(out.AccessToken, out.RefreshToken)
	return &out, nil
}

// Applications

func (c *Client) ListApps(ctx context.Context) ([]models.PartnerApplication, error) {
	return query(c.cache, NSApps, "list", func() ([]models.PartnerApplication, error) {
		var out []models.PartnerApplication
		return out, c.doJSON(ctx, http.MethodGet, "/api/apps", nil, &out)
	})
}

func (c *Client) FeaturedApps(ctx context.Context) ([]models.PartnerApplication, error) {
	return query(c.cache, NSApps, "featured", func() ([]models.PartnerApplication, error) {
		var out []models.PartnerApplication
		return out, c.doJSON(ctx, http.MethodGet, "/api/apps/featured", nil, &out)
	})
}

func (c *Client) GetApp(ctx context.Context, id string) (*models.PartnerApplication, error) {
	return query(c.cache, NSApps, "detail:"+id, func() (*models.PartnerApplication, error) {
		var out models.PartnerApplication
		if err := c.doJSON(ctx, http.MethodGet, "/api/apps/"+url.PathEscape(id), nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

func (c *Client) CreateApp(ctx context.Context, in services.CreateAppInput) (*models.PartnerApplication, error) {
	var out models.PartnerApplication
	if err := c.doJSON(ctx, http.MethodPost, "/api/apps", in, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate(NSApps, NSUser)
	return &out, nil
}

func (c *Client) UpdateApp(ctx context.Context, id string, in services.UpdateAppInput) (*models.PartnerApplication, error) {
	var out models.PartnerApplication
	if err := c.doJSON(ctx, http.MethodPut, "/api/apps/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate(NSApps, NSUser)
	return &out, nil
}

func (c *Client) DeleteApp(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/api/apps/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}
	c.cache.Invalidate(NSApps, NSInteractions, NSRewards, NSUser)
	return nil
}

// Categories

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	return query(c.cache, NSCategories, "list", func() ([]models.Category, error) {
		var out []models.Category
		return out, c.doJSON(ctx, http.MethodGet, "/api/apps/categories", nil, &out)
	})
}

func (c *Client) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	var out models.Category
	if err := c.doJSON(ctx, http.MethodPost, "/api/apps/categories", services.CreateCategoryInput{Name: name}, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate(NSCategories)
	return &out, nil
}

// Interactions

func (c *Client) AppInteractions(ctx context.Context, appID string) ([]models.PartnerInteraction, error) {
	return query(c.cache, NSInteractions, "app:"+appID, func() ([]models.PartnerInteraction, error) {
		var out []models.PartnerInteraction
		return out, c.doJSON(ctx, http.MethodGet, "/api/apps/"+url.PathEscape(appID)+"/interactions", nil, &out)
	})
}

func (c *Client) GetInteraction(ctx context.Context, id string) (*models.PartnerInteraction, error) {
	return query(c.cache, NSInteractions, "detail:"+id, func() (*models.PartnerInteraction, error) {
		var out models.PartnerInteraction
		if err := c.doJSON(ctx, http.MethodGet, "/api/apps/interactions/"+url.PathEscape(id), nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

func (c *Client) CreateInteraction(ctx context.Context, appID string, in services.CreateInteractionInput) (*models.PartnerInteraction, error) {
	var out models.PartnerInteraction
	if err := c.doJSON(ctx, http.MethodPost, "/api/apps/"+url.PathEscape(appID)+"/interactions", in, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate(NSInteractions, NSApps)
	return &out, nil
}

func (c *Client) UpdateInteraction(ctx context.Context, id string, in services.UpdateInteractionInput) (*models.PartnerInteraction, error) {
	var out models.PartnerInteraction
	if err := c.doJSON(ctx, http.MethodPut, "/api/apps/interactions/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate(NSInteractions, NSApps)
	return &out, nil
}

func (c *Client) DeleteInteraction(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/api/apps/interactions/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}
	c.cache.Invalidate(NSInteractions, NSApps)
	return nil
}

// SubmitInteraction completes an interaction for the signed-in user.
func (c *Client) SubmitInteraction(ctx context.Context, id string) (*services.SubmissionResult, error) {
	var out services.SubmissionResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/apps/interactions/"+url.PathEscape(id)+"/submit", nil, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate(NSInteractions, NSRewards, NSUser, NSNotifications)
	return &out, nil
}

func (c *Client) IsSubmitted(ctx context.Context, id string) (bool, error) {
	return query(c.cache, NSInteractions, "submitted:"+id, func() (bool, error) {
		var out struct {
			Submitted bool `json:"submitted"`
		}
		err := c.doJSON(ctx, http.MethodGet, "/api/apps/interactions/"+url.PathEscape(id)+"/submitted", nil, &out)
		return out.Submitted, err
	})
}

func (c *Client) SubmittedInteractions(ctx context.Context) ([]models.UserAppInteraction, error) {
	return query(c.cache, NSInteractions, "submitted", func() ([]models.UserAppInteraction, error) {
		var out []models.UserAppInteraction
		return out, c.doJSON(ctx, http.MethodGet, "/api/apps/interactions/submitted", nil, &out)
	})
}

// Rewards

func (c *Client) AppRewards(ctx context.Context, appID string) ([]models.Reward, error) {
	return query(c.cache, NSRewards, "app:"+appID, func() ([]models.Reward, error) {
		var out []models.Reward
		return out, c.doJSON(ctx, http.MethodGet, "/api/apps/"+url.PathEscape(appID)+"/rewards", nil, &out)
	})
}

func (c *Client) GetReward(ctx context.Context, id string) (*models.Reward, error) {
	return query(c.cache, NSRewards, "detail:"+id, func() (*models.Reward, error) {
		var out models.Reward
		if err := c.doJSON(ctx, http.MethodGet, "/api/reward/"+url.PathEscape(id), nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

func (c *Client) CreateReward(ctx context.Context, in services.CreateRewardInput) (*models.Reward, error) {
	var out models.Reward
	if err := c.doJSON(ctx, http.MethodPost, "/api/reward", in, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate(NSRewards)
	return &out, nil
}

// User

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	return query(c.cache, NSUser, "me", func() (*models.User, error) {
		var out models.User
		if err := c.doJSON(ctx, http.MethodGet, "/api/user/me", nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

func (c *Client) UpdateMe(ctx context.Context, in services.UpdateUserInput) (*models.User, error) {
	var out models.User
	if err := c.doJSON(ctx, http.MethodPut, "/api/user/me", in, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate(NSUser)
	return &out, nil
}

func (c *Client) UserRewards(ctx context.Context, userID string) ([]models.UserAppReward, error) {
	return query(c.cache, NSUser, "rewards:"+userID, func() ([]models.UserAppReward, error) {
		var out []models.UserAppReward
		return out, c.doJSON(ctx, http.MethodGet, "/api/user/"+url.PathEscape(userID)+"/rewards", nil, &out)
	})
}

func (c *Client) UserApps(ctx context.Context, userID string) ([]models.PartnerApplication, error) {
	return query(c.cache, NSUser, "apps:"+userID, func() ([]models.PartnerApplication, error) {
		var out []models.PartnerApplication
		return out, c.doJSON(ctx, http.MethodGet, "/api/user/"+url.PathEscape(userID)+"/apps", nil, &out)
	})
}

// Notifications

func (c *Client) RegisterNotificationToken(ctx context.Context, token string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/user/me/notification-token", services.RegisterTokenInput{Token: token}, nil); err != nil {
		return err
	}
	c.cache.Invalidate(NSNotifications)
	return nil
}

func (c *Client) RemoveNotificationToken(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/api/user/me/notification-token", nil, nil); err != nil {
		return err
	}
	c.cache.Invalidate(NSNotifications)
	return nil
}

func (c *Client) Notifications(ctx context.Context, limit, offset int) ([]models.Notification, error) {
	key := fmt.Sprintf("list:%d:%d", limit, offset)
	return query(c.cache, NSNotifications, key, func() ([]models.Notification, error) {
		var out []models.Notification
		path := fmt.Sprintf("/api/user/me/notifications?limit=%d&offset=%d", limit, offset)
		return out, c.doJSON(ctx, http.MethodGet, path, nil, &out)
	})
}

// Upload

type UploadRequest struct {
	ResourceType services.ResourceType
	ResourceID   string
	Filename     string
	ContentType  string
	Body         io.Reader
}

func (c *Client) Upload(ctx context.Context, in UploadRequest) (*services.UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("resource_type", string(in.ResourceType)); err != nil {
		return nil, err
	}
	if err := w.WriteField("resource_id", in.ResourceID); err != nil {
		return nil, err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, in.Filename))
	h.Set("Content-Type", in.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, in.Body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out services.UploadResult
	if err := c.do(ctx, http.MethodPost, "/api/upload", w.FormDataContentType(), &buf, &out); err != nil {
		return nil, err
	}
	switch in.ResourceType {
	case services.ResourceAppLogo, services.ResourceAppBanner:
		c.cache.Invalidate(NSApps)
	default:
		c.cache.Invalidate(NSUser)
	}
	return &out, nil
}
