package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inflection-rewards/middleware"
	"inflection-rewards/services"
	"inflection-rewards/utils"
)

func SetupUserRoutes(api fiber.Router, d Deps, access fiber.Handler) {
	users := api.Group("/user")

	users.Get("/me", access, middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
		return utils.OK(c, "User fetched successfully", s.User)
	}))

	users.Put("/me",
		middleware.ValidateBody[services.UpdateUserInput](),
		access,
		middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
			user, err := d.Users.UpdateMe(c.UserContext(), s.UserID(), *middleware.Body[services.UpdateUserInput](c))
			if err != nil {
				return failWith(c, d.Log, err, "User")
			}
			return utils.OK(c, "User updated successfully", user)
		}))

	users.Post("/me/notification-token",
		middleware.ValidateBody[services.RegisterTokenInput](),
		access,
		middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
			token, err := d.Notifications.RegisterToken(c.UserContext(), s.UserID(), middleware.Body[services.RegisterTokenInput](c).Token)
			if err != nil {
				return failWith(c, d.Log, err, "Notification token")
			}
			return utils.OK(c, "Notification token saved", token)
		}))

	users.Delete("/me/notification-token", access, middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
		if err := d.Notifications.RemoveToken(c.UserContext(), s.UserID()); err != nil {
			return failWith(c, d.Log, err, "Notification token")
		}
		return utils.OK(c, "Notification token removed", nil)
	}))

	users.Get("/me/notifications", access, middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
		list, err := d.Notifications.List(c.UserContext(), s.UserID(), c.QueryInt("limit", 0), c.QueryInt("offset", 0))
		if err != nil {
			return failWith(c, d.Log, err, "Notification")
		}
		return utils.OK(c, "Notifications fetched successfully", list)
	}))

	id := middleware.ValidateParams("id")

	users.Get("/:id/rewards", id, access, selfOrAdmin(), func(c *fiber.Ctx) error {
		list, err := d.Users.ListIssuedRewards(c.UserContext(), c.Params("id"))
		if err != nil {
			return failWith(c, d.Log, err, "User")
		}
		return utils.OK(c, "Rewards fetched successfully", list)
	})

	users.Get("/:id/apps", id, access, selfOrAdmin(), func(c *fiber.Ctx) error {
		list, err := d.Users.ListOwnedApps(c.UserContext(), c.Params("id"))
		if err != nil {
			return failWith(c, d.Log, err, "User")
		}
		return utils.OK(c, "Applications fetched successfully", list)
	})
}

// selfOrAdmin lets a user read their own :id resources; admins read anyone's.
func selfOrAdmin() fiber.Handler {
	return middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
		if s.UserID() != c.Params("id") && !s.User.IsAdmin() {
			return utils.Fail(c, fiber.StatusForbidden, "You can only view your own records")
		}
		return c.Next()
	})
}
