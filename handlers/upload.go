package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inflection-rewards/middleware"
	"inflection-rewards/services"
	"inflection-rewards/utils"
)

func SetupUploadRoutes(api fiber.Router, d Deps, access fiber.Handler) {
	// multipart: resource_type, resource_id, file
	api.Post("/upload",
		middleware.ValidateBody[services.UploadInput](),
		access,
		middleware.Authed(func(c *fiber.Ctx, s *middleware.Session) error {
			file, err := c.FormFile("file")
			if err != nil {
				return utils.FailWith(c, fiber.StatusBadRequest, "Validation failed", middleware.FieldErrors{"file": "is required"})
			}

			in := middleware.Body[services.UploadInput](c)
			result, err := d.Uploads.Upload(c.UserContext(), s.UserID(), *in, file)
			if err != nil {
				return failWith(c, d.Log, err, "Resource")
			}
			return utils.Created(c, "File uploaded successfully", result)
		}))
}
