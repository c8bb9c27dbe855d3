package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inflection-rewards/middleware"
	"inflection-rewards/services"
	"inflection-rewards/utils"
)

type refreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func SetupAuthRoutes(api fiber.Router, d Deps) {
	group := api.Group("/auth")

	// identity token in x-dynamic-access-token; profile fields in the body
	group.Post("/login",
		middleware.ValidateBody[services.LoginInput](),
		middleware.DynamicAuth(d.Verifier),
		func(c *fiber.Ctx) error {
			in := middleware.Body[services.LoginInput](c)
			user, err := d.Users.Login(c.UserContext(), middleware.ExternalID(c), *in)
			if err != nil {
				return failWith(c, d.Log, err, "User")
			}

			tokens, err := d.Tokens.Issue(user.ID)
			if err != nil {
				return failWith(c, d.Log, err, "User")
			}
			return utils.OK(c, "Login successful", fiber.Map{
				"user":   user,
				"tokens": tokens,
			})
		})

	group.Post("/refresh-token",
		middleware.ValidateBody[refreshInput](),
		func(c *fiber.Ctx) error {
			in := middleware.Body[refreshInput](c)
			userID, err := d.Tokens.ParseRefresh(in.RefreshToken)
			if err != nil {
				return utils.Fail(c, fiber.StatusUnauthorized, "Invalid or expired refresh token")
			}
			if _, err := d.Users.Get(c.UserContext(), userID); err != nil {
				return utils.Fail(c, fiber.StatusUnauthorized, "Unknown user")
			}

			tokens, err := d.Tokens.Issue(userID)
			if err != nil {
				return failWith(c, d.Log, err, "User")
			}
			return utils.OK(c, "Tokens refreshed", tokens)
		})
}
