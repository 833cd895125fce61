package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mystrio/mystrio-api/app/repository"
)

// HandleGetNotifications lists the caller's notifications, newest first.
func HandleGetNotifications(c *fiber.Ctx) error {
	notifications, err := repository.GetGlobalFactory().GetNotificationRepository().GetByUser(currentUserID(c))
	if err != nil {
		return internalError(c, "Failed to load notifications")
	}
	return c.JSON(notifications)
}

// HandleMarkNotificationRead marks one of the caller's notifications read.
func HandleMarkNotificationRead(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid notification id")
	}

	err = repository.GetGlobalFactory().GetNotificationRepository().MarkRead(id, currentUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Notification not found")
		}
		return internalError(c, "Failed to update notification")
	}
	return c.JSON(fiber.Map{"success": true})
}
