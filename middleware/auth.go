// middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"inflection-rewards/models"
	"inflection-rewards/utils"
)

// DynamicTokenHeader carries the third-party identity token on login.
const DynamicTokenHeader = "x-dynamic-access-token"

type ctxKey int

const (
	sessionKey ctxKey = iota
	externalIDKey
	bodyKey
	loggerKey
)

// Session is the authenticated caller of a request.
type Session struct {
	User *models.User
}

func (s *Session) UserID() string { return s.User.ID }

type IdentityVerifier interface {
	Verify(ctx context.Context, raw string) (string, error)
}

type AccessTokenParser interface {
	ParseAccess(token string) (string, error)
}

type UserLoader interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// DynamicAuth verifies the identity-provider token and exposes the
// provider's user id through ExternalID.
func DynamicAuth(verifier IdentityVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(DynamicTokenHeader)
		if raw == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, "Missing identity token")
		}

		externalID, err := verifier.Verify(c.UserContext(), raw)
		if err != nil {
			logger(c).WithError(err).Warn("[AUTH] identity token rejected")
			return utils.Fail(c, fiber.StatusUnauthorized, "Invalid identity token")
		}

		c.Locals(externalIDKey, externalID)
		return c.Next()
	}
}

func ExternalID(c *fiber.Ctx) string {
	id, _ := c.Locals(externalIDKey).(string)
	return id
}

// AccessAuth requires a first-party bearer token and loads the user it names.
func AccessAuth(tokens AccessTokenParser, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return utils.Fail(c, fiber.StatusUnauthorized, "Missing or malformed Authorization header")
		}

		userID, err := tokens.ParseAccess(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "Invalid or expired access token")
		}

		user, err := users.Get(c.UserContext(), userID)
		if err != nil {
			// a valid token for a user that no longer exists is still unauthenticated
			logger(c).WithError(err).WithField("user_id", userID).Warn("[AUTH] token user not found")
			return utils.Fail(c, fiber.StatusUnauthorized, "Unknown user")
		}

		c.Locals(sessionKey, &Session{User: user})
		return c.Next()
	}
}

// RequireAdmin must run after AccessAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := CurrentSession(c)
		if s == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "Authentication required")
		}
		if !s.User.IsAdmin() {
			return utils.Fail(c, fiber.StatusForbidden, "Admin access required")
		}
		return c.Next()
	}
}

func CurrentSession(c *fiber.Ctx) *Session {
	s, _ := c.Locals(sessionKey).(*Session)
	return s
}

// Authed adapts a handler that needs the caller's session. The session is
// passed explicitly instead of being read from request locals.
func Authed(h func(c *fiber.Ctx, s *Session) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := CurrentSession(c)
		if s == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "Authentication required")
		}
		return h(c, s)
	}
}
