package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mystrio/mystrio-api/app/models"
	"github.com/mystrio/mystrio-api/app/repository"
	"github.com/mystrio/mystrio-api/internal/pkg/cache"
	"github.com/mystrio/mystrio-api/internal/pkg/middleware"
)

// HandleAdminStats returns headline totals for the admin dashboard.
func HandleAdminStats(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetUserRepository()

	totalUsers, err := repo.Count()
	if err != nil {
		return internalError(c, "Failed to load stats")
	}
	premiumUsers, err := repo.CountPremium()
	if err != nil {
		return internalError(c, "Failed to load stats")
	}
	recent, err := repo.Recent(5)
	if err != nil {
		return internalError(c, "Failed to load stats")
	}

	return c.JSON(fiber.Map{
		"totalUsers":   totalUsers,
		"premiumUsers": premiumUsers,
		"recentUsers":  recent,
	})
}

// HandleAdminListUsers returns the full paginated user listing for admins.
func HandleAdminListUsers(c *fiber.Ctx) error {
	return HandleListUsers(c)
}

// HandleAdminUserActivity summarizes a user's footprint.
func HandleAdminUserActivity(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	activity, err := repository.GetGlobalFactory().GetUserRepository().GetActivity(id)
	if err != nil {
		return internalError(c, "Failed to load activity")
	}
	return c.JSON(activity)
}

// HandleAdminUpdateUser patches any user, including entitlement and role
// fields regular users cannot touch.
func HandleAdminUpdateUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	var patch models.UserPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if patch.IsEmpty() {
		return badRequest(c, "No fields to update")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.Patch(id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "User not found")
		}
		return internalError(c, "Failed to update user")
	}

	if patch.PremiumUntil != nil {
		_ = cache.Delete(middleware.PremiumCacheKey(id))
	}

	user, err := repo.GetByID(id)
	if err != nil {
		return internalError(c, "Failed to load user")
	}
	return c.JSON(user)
}

// HandleAdminDeleteUser removes any account.
func HandleAdminDeleteUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	if err := repository.GetGlobalFactory().GetUserRepository().Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "User not found")
		}
		return internalError(c, "Failed to delete user")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAdminListQuestions returns all questions with sender and recipient
// identities resolved for moderation.
func HandleAdminListQuestions(c *fiber.Ctx) error {
	rows, err := repository.GetGlobalFactory().GetQuestionRepository().ListForModeration()
	if err != nil {
		return internalError(c, "Failed to load questions")
	}
	return c.JSON(rows)
}

// HandleAdminDeleteQuestion removes any question.
func HandleAdminDeleteQuestion(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid question id")
	}

	if err := repository.GetGlobalFactory().GetQuestionRepository().Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Question not found")
		}
		return internalError(c, "Failed to delete question")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAdminListQuizzes returns all quizzes with owners resolved.
func HandleAdminListQuizzes(c *fiber.Ctx) error {
	rows, err := repository.GetGlobalFactory().GetQuizRepository().ListForModeration()
	if err != nil {
		return internalError(c, "Failed to load quizzes")
	}
	return c.JSON(rows)
}

// HandleAdminDeleteQuiz removes any quiz with its question tree.
func HandleAdminDeleteQuiz(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid quiz id")
	}

	if err := repository.GetGlobalFactory().GetQuizRepository().Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Quiz not found")
		}
		return internalError(c, "Failed to delete quiz")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
