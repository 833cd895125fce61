package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mystrio/mystrio-api/app/models"
	"github.com/mystrio/mystrio-api/app/repository"
)

type createQuestionRequest struct {
	QuestionText string       `json:"questionText"`
	IsFromAI     bool         `json:"isFromAi"`
	Hints        models.Hints `json:"hints"`
}

type answerQuestionRequest struct {
	AnswerText string `json:"answerText"`
}

type anonymousQuestionRequest struct {
	RecipientUserID uint   `json:"recipientUserId"`
	QuestionText    string `json:"questionText"`
}

// HandleGetQuestions lists the caller's profile questions with their answers.
func HandleGetQuestions(c *fiber.Ctx) error {
	rows, err := repository.GetGlobalFactory().GetQuestionRepository().GetByOwner(currentUserID(c))
	if err != nil {
		return internalError(c, "Failed to load questions")
	}
	return c.JSON(rows)
}

// HandleCreateQuestion adds a question to the caller's profile.
func HandleCreateQuestion(c *fiber.Ctx) error {
	var req createQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.QuestionText) == "" {
		return badRequest(c, "questionText is required")
	}

	userID := currentUserID(c)
	question := &models.Question{
		UserID:       &userID,
		QuestionText: req.QuestionText,
		IsFromAI:     req.IsFromAI,
		Hints:        req.Hints,
	}
	if err := repository.GetGlobalFactory().GetQuestionRepository().Create(question); err != nil {
		return internalError(c, "Failed to create question")
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

// HandleAnswerQuestion records the caller's answer: a snapshot row is created
// and the original question is marked answered.
func HandleAnswerQuestion(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid question id")
	}

	var req answerQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.AnswerText) == "" {
		return badRequest(c, "answerText is required")
	}

	userID := currentUserID(c)
	repo := repository.GetGlobalFactory().GetQuestionRepository()

	question, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Question not found")
		}
		return internalError(c, "Failed to load question")
	}
	owner := question.UserID != nil && *question.UserID == userID
	recipient := question.RecipientUserID != nil && *question.RecipientUserID == userID
	if !owner && !recipient {
		return forbidden(c, "You can only answer your own questions")
	}

	answered, err := repo.Answer(id, userID, req.AnswerText)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return notFound(c, "Question not found")
		case errors.Is(err, repository.ErrAlreadyAnswered):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "conflict",
				"message": "Question already answered",
			})
		default:
			return internalError(c, "Failed to answer question")
		}
	}
	return c.JSON(answered)
}

// HandleDeleteQuestion removes one of the caller's questions.
func HandleDeleteQuestion(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid question id")
	}

	repo := repository.GetGlobalFactory().GetQuestionRepository()
	question, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Question not found")
		}
		return internalError(c, "Failed to load question")
	}

	userID := currentUserID(c)
	owner := question.UserID != nil && *question.UserID == userID
	recipient := question.RecipientUserID != nil && *question.RecipientUserID == userID
	if !owner && !recipient {
		return forbidden(c, "You can only delete your own questions")
	}

	if err := repo.Delete(id); err != nil {
		return internalError(c, "Failed to delete question")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSubmitAnonymousQuestion accepts an anonymous question from anyone.
// The sender address is recorded together with a coarse hint; the recipient
// gets a notification.
func HandleSubmitAnonymousQuestion(c *fiber.Ctx) error {
	var req anonymousQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RecipientUserID == 0 || strings.TrimSpace(req.QuestionText) == "" {
		return badRequest(c, "recipientUserId and questionText are required")
	}

	repos := repository.GetGlobalRepositories()
	recipient, err := repos.User.GetByID(req.RecipientUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Recipient not found")
		}
		return internalError(c, "Failed to load recipient")
	}

	senderIP := c.IP()
	question := &models.Question{
		RecipientUserID: &recipient.ID,
		QuestionText:    req.QuestionText,
		SenderIPAddress: senderIP,
		SenderHint:      models.BuildSenderHint(senderIP),
	}
	// A logged-in sender is remembered for their own "sent" listing but is
	// never revealed to the recipient.
	if senderID := currentUserID(c); senderID != 0 {
		question.SenderUserID = &senderID
	}

	if err := repos.Question.Create(question); err != nil {
		return internalError(c, "Failed to submit question")
	}

	content := "You received a new anonymous question!"
	if err := repos.Notification.Create(recipient.ID, models.NotificationTypeQuestion, content, question.ID); err != nil {
		// The question itself is stored; a missed notification is not fatal.
		log.Printf("notification create failed: %v", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Question submitted anonymously",
	})
}

// HandleGetAnonymousQuestions returns the caller's anonymous inbox and
// outbox.
func HandleGetAnonymousQuestions(c *fiber.Ctx) error {
	userID := currentUserID(c)
	repo := repository.GetGlobalFactory().GetQuestionRepository()

	received, err := repo.GetReceivedAnonymous(userID)
	if err != nil {
		return internalError(c, "Failed to load questions")
	}
	sent, err := repo.GetSentAnonymous(userID)
	if err != nil {
		return internalError(c, "Failed to load questions")
	}

	return c.JSON(fiber.Map{
		"received": received,
		"sent":     sent,
	})
}

// HandleGetQuestionHint reveals the sender hint of a question sent to the
// caller. Premium gate is applied at the route level.
func HandleGetQuestionHint(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid question id")
	}

	question, err := repository.GetGlobalFactory().GetQuestionRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Question not found")
		}
		return internalError(c, "Failed to load question")
	}

	userID := currentUserID(c)
	if question.RecipientUserID == nil || *question.RecipientUserID != userID {
		return forbidden(c, "This question was not sent to you")
	}

	hint := question.SenderHint
	if hint == "" {
		hint = models.BuildSenderHint(question.SenderIPAddress)
	}
	return c.JSON(fiber.Map{
		"questionId": question.ID,
		"hint":       hint,
	})
}
