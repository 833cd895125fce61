package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mystrio/mystrio-api/app/repository"
	"github.com/mystrio/mystrio-api/internal/pkg/cache"
)

const shareCacheTTL = 10 * time.Minute

type createShareRequest struct {
	AnsweredQuestionID uint `json:"answeredQuestionId"`
}

// HandleCreateShareLink issues a public short code for one of the caller's
// answered questions. Repeated calls return the same code.
func HandleCreateShareLink(c *fiber.Ctx) error {
	var req createShareRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.AnsweredQuestionID == 0 {
		return badRequest(c, "answeredQuestionId is required")
	}

	repos := repository.GetGlobalRepositories()
	answered, err := repos.Question.GetAnsweredByID(req.AnsweredQuestionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Answered question not found")
		}
		return internalError(c, "Failed to load answered question")
	}
	if answered.UserID != currentUserID(c) {
		return forbidden(c, "You can only share your own answers")
	}

	code, err := repos.Share.Create(answered.ID)
	if err != nil {
		return internalError(c, "Failed to create share link")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"shortCode": code,
		"shareUrl":  "/share/" + code,
	})
}

// HandleResolveShareLink resolves a short code to the shared answer. Public;
// resolutions are cached.
func HandleResolveShareLink(c *fiber.Ctx) error {
	code := c.Params("code")
	if len(code) < 4 {
		return badRequest(c, "Invalid share code")
	}

	cacheKey := "share:" + code
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		if answeredID, err := strconv.ParseUint(cached, 10, 32); err == nil {
			return respondWithSharedAnswer(c, uint(answeredID))
		}
	}

	answeredID, err := repository.GetGlobalFactory().GetShareRepository().GetAnsweredQuestionID(code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Share link not found")
		}
		return internalError(c, "Failed to resolve share link")
	}
	_ = cache.Set(cacheKey, strconv.FormatUint(uint64(answeredID), 10), shareCacheTTL)

	return respondWithSharedAnswer(c, answeredID)
}

func respondWithSharedAnswer(c *fiber.Ctx, answeredID uint) error {
	answered, err := repository.GetGlobalFactory().GetQuestionRepository().GetAnsweredByID(answeredID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Shared answer no longer exists")
		}
		return internalError(c, "Failed to load shared answer")
	}

	// The shared view exposes only the question/answer pair, not the owner.
	return c.JSON(fiber.Map{
		"questionText": answered.QuestionText,
		"answerText":   answered.AnswerText,
		"answeredAt":   answered.AnsweredAt,
	})
}
