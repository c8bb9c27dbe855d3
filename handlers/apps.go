// handlers/apps.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inflection-rewards/middleware"
	"inflection-rewards/services"
	"inflection-rewards/utils"
)

func SetupAppRoutes(api fiber.Router, d Deps, access fiber.Handler) {
	apps := api.Group("/apps")
	id := middleware.ValidateParams("id")

	// 🔓 Public reads
	apps.Get("/", func(c *fiber.Ctx) error {
		list, err := d.Apps.List(c.UserContext())
		if err != nil {
			return failWith(c, d.Log, err, "Application")
		}
		return utils.OK(c, "Applications fetched successfully", list)
	})

	apps.Get("/featured", func(c *fiber.Ctx) error {
		list, err := d.Apps.ListFeatured(c.UserContext())
		if err != nil {
			return failWith(c, d.Log, err, "Application")
		}
		return utils.OK(c, "Featured applications fetched successfully", list)
	})

	apps.Get("/categories", func(c *fiber.Ctx) error {
		list, err := d.Categories.List(c.UserContext())
		if err != nil {
			return failWith(c, d.Log, err, "Category")
		}
		return utils.OK(c, "Categories fetched successfully", list)
	})

	apps.Post("/categories",
		middleware.ValidateBody[services.CreateCategoryInput](),
		access,
		middleware.RequireAdmin(),
		func(c *fiber.Ctx) error {
			category, err := d.Categories.Create(c.UserContext(), *middleware.Body[services.CreateCategoryInput](c))
			if err != nil {
				return failWith(c, d.Log, err, "Category")
			}
			return utils.Created(c, "Category created successfully", category)
		})

	// Interactions addressed directly by id. Registered before "/:id" so the
	// static segment wins.
	apps.Get("/interactions/submitted", access, middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
		list, err := d.Interactions.ListSubmitted(c.UserContext(), s.UserID())
		if err != nil {
			return failWith(c, d.Log, err, "Interaction")
		}
		return utils.OK(c, "Submitted interactions fetched successfully", list)
	}))

	apps.Get("/interactions/:id", id, func(c *fiber.Ctx) error {
		interaction, err := d.Interactions.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return failWith(c, d.Log, err, "Interaction")
		}
		return utils.OK(c, "Interaction fetched successfully", interaction)
	})

	apps.Get("/interactions/:id/submitted", id, access, middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
		done, err := d.Interactions.IsSubmitted(c.UserContext(), s.UserID(), c.Params("id"))
		if err != nil {
			return failWith(c, d.Log, err, "Interaction")
		}
		return utils.OK(c, "Submission status fetched successfully", fiber.Map{"submitted": done})
	}))

	apps.Put("/interactions/:id",
		id,
		middleware.ValidateBody[services.UpdateInteractionInput](),
		access,
		middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
			in := middleware.Body[services.UpdateInteractionInput](c)
			interaction, err := d.Interactions.Update(c.UserContext(), c.Params("id"), s.UserID(), *in)
			if err != nil {
				return failWith(c, d.Log, err, "Interaction")
			}
			return utils.OK(c, "Interaction updated successfully", interaction)
		}))

	apps.Delete("/interactions/:id", id, access, middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
		interaction, err := d.Interactions.Delete(c.UserContext(), c.Params("id"), s.UserID())
		if err != nil {
			return failWith(c, d.Log, err, "Interaction")
		}
		return utils.OK(c, "Interaction deleted successfully", interaction)
	}))

	apps.Post("/interactions/:id/submit", id, access, middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
		result, err := d.Submissions.Submit(c.UserContext(), s.UserID(), c.Params("id"))
		if err != nil {
			return failWith(c, d.Log, err, "Interaction")
		}
		return utils.Created(c, "Interaction submitted successfully", result)
	}))

	// Applications
	apps.Post("/",
		middleware.ValidateBody[services.CreateAppInput](),
		access,
		middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
			app, err := d.Apps.Create(c.UserContext(), s.UserID(), *middleware.Body[services.CreateAppInput](c))
			if err != nil {
				return failWith(c, d.Log, err, "Application")
			}
			return utils.Created(c, "Application created successfully", app)
		}))

	apps.Get("/:id", id, func(c *fiber.Ctx) error {
		app, err := d.Apps.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return failWith(c, d.Log, err, "Application")
		}
		return utils.OK(c, "Application fetched successfully", app)
	})

	apps.Put("/:id",
		id,
		middleware.ValidateBody[services.UpdateAppInput](),
		access,
		middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
			app, err := d.Apps.Update(c.UserContext(), c.Params("id"), s.UserID(), *middleware.Body[services.UpdateAppInput](c))
			if err != nil {
				return failWith(c, d.Log, err, "Application")
			}
			return utils.OK(c, "Application updated successfully", app)
		}))

	apps.Delete("/:id", id, access, middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
		app, err := d.Apps.Delete(c.UserContext(), c.Params("id"), s.UserID())
		if err != nil {
			return failWith(c, d.Log, err, "Application")
		}
		return utils.OK(c, "Application deleted successfully", app)
	}))

	apps.Get("/:id/interactions", id, func(c *fiber.Ctx) error {
		list, err := d.Interactions.ListByApp(c.UserContext(), c.Params("id"))
		if err != nil {
			return failWith(c, d.Log, err, "Application")
		}
		return utils.OK(c, "Interactions fetched successfully", list)
	})

	apps.Post("/:id/interactions",
		id,
		middleware.ValidateBody[services.CreateInteractionInput](),
		access,
		middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
			in := middleware.Body[services.CreateInteractionInput](c)
			interaction, err := d.Interactions.Create(c.UserContext(), c.Params("id"), s.UserID(), *in)
			if err != nil {
				return failWith(c, d.Log, err, "Application")
			}
			return utils.Created(c, "Interaction created successfully", interaction)
		}))

	apps.Get("/:id/rewards", id, func(c *fiber.Ctx) error {
		list, err := d.Rewards.ListByApp(c.UserContext(), c.Params("id"))
		if err != nil {
			return failWith(c, d.Log, err, "Application")
		}
		return utils.OK(c, "Rewards fetched successfully", list)
	})
}
