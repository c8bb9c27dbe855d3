package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"inflection-rewards/services"
	"inflection-rewards/utils"
)

// failWith maps a service error onto the response envelope. resource names
// the entity in not-found and forbidden messages.
func failWith(c *fiber.Ctx, log *logrus.Logger, err error, resource string) error {
	switch {
	case errors.Is(err, services.ErrAlreadyCompleted):
		return utils.Fail(c, fiber.StatusConflict, "Interaction already completed")
	case errors.Is(err, services.ErrNotFound):
		if err == services.ErrNotFound {
			return utils.Fail(c, fiber.StatusNotFound, resource+" not found")
		}
		return utils.Fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return utils.Fail(c, fiber.StatusForbidden, "You are not allowed to modify this "+strings.ToLower(resource))
	case errors.Is(err, services.ErrConflict):
		return utils.Fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		return utils.Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrFileTooLarge):
		return utils.Fail(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, services.ErrUnsupportedMedia):
		return utils.Fail(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, services.ErrStorageUnavailable):
		return utils.Fail(c, fiber.StatusServiceUnavailable, err.Error())
	}

	log.WithError(err).WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error("[HTTP] request failed")
	return utils.Fail(c, fiber.StatusInternalServerError, "Internal server error")
}
