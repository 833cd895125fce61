package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mystrio/mystrio-api/app/models"
	"github.com/mystrio/mystrio-api/app/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// HandleListUsers returns a paginated public listing of users.
func HandleListUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageSize)))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	total, err := repo.Count()
	if err != nil {
		return internalError(c, "Failed to load users")
	}
	users, err := repo.List((page-1)*limit, limit)
	if err != nil {
		return internalError(c, "Failed to load users")
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return c.JSON(fiber.Map{
		"data": users,
		"metadata": fiber.Map{
			"total":      total,
			"page":       page,
			"limit":      limit,
			"totalPages": totalPages,
		},
	})
}

// HandleGetUser returns a single user's public profile.
func HandleGetUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "User not found")
		}
		return internalError(c, "Failed to load user")
	}
	return c.JSON(user)
}

// HandleUpdateUser applies a partial profile update. Only the account owner
// may update it.
func HandleUpdateUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid user id")
	}
	if currentUserID(c) != id {
		return forbidden(c, "You can only update your own account")
	}

	var patch models.UserPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}
	// Entitlement and role fields are reserved for the admin endpoint.
	patch.PremiumUntil = nil
	patch.IsAdmin = nil
	if patch.IsEmpty() {
		return badRequest(c, "No fields to update")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if patch.Email != nil {
		if existing, err := repo.GetByEmail(*patch.Email); err == nil && existing.ID != id {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "conflict",
				"message": "Email already registered",
			})
		}
	}

	if err := repo.Patch(id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "User not found")
		}
		return internalError(c, "Failed to update user")
	}

	user, err := repo.GetByID(id)
	if err != nil {
		return internalError(c, "Failed to load user")
	}
	return c.JSON(user)
}

// HandleDeleteUser removes the caller's own account.
func HandleDeleteUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid user id")
	}
	if currentUserID(c) != id {
		return forbidden(c, "You can only delete your own account")
	}

	if err := repository.GetGlobalFactory().GetUserRepository().Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "User not found")
		}
		return internalError(c, "Failed to delete user")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
