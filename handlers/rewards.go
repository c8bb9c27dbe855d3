package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inflection-rewards/middleware"
	"inflection-rewards/services"
	"inflection-rewards/utils"
)

func SetupRewardRoutes(api fiber.Router, d Deps, access fiber.Handler) {
	rewards := api.Group("/reward")

	rewards.Get("/:id", middleware.ValidateParams("id"), func(c *fiber.Ctx) error {
		reward, err := d.Rewards.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return failWith(c, d.Log, err, "Reward")
		}
		return utils.OK(c, "Reward fetched successfully", reward)
	})

	// the caller must own the application named by app_id
	rewards.Post("/",
		middleware.ValidateBody[services.CreateRewardInput](),
		access,
		middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
			reward, err := d.Rewards.Create(c.UserContext(), s.UserID(), *middleware.Body[services.CreateRewardInput](c))
			if err != nil {
				return failWith(c, d.Log, err, "Application")
			}
			return utils.Created(c, "Reward created successfully", reward)
		}))
}
