package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mystrio/mystrio-api/app/models"
	"github.com/mystrio/mystrio-api/app/repository"
)

type quizQuestionPayload struct {
	QuestionText       string   `json:"questionText"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Options            []string `json:"options"`
}

type quizPayload struct {
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	SelectedThemeName string                `json:"selectedThemeName"`
	Questions         []quizQuestionPayload `json:"questions"`
}

func (p quizPayload) toModel(userID uint) (*models.Quiz, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, errors.New("title is required")
	}
	if len(p.Questions) == 0 {
		return nil, errors.New("at least one question is required")
	}

	theme := p.SelectedThemeName
	if theme == "" {
		theme = models.DefaultQuizTheme
	}

	quiz := &models.Quiz{
		UserID:            userID,
		Title:             p.Title,
		Description:       p.Description,
		SelectedThemeName: theme,
	}
	for _, q := range p.Questions {
		if strings.TrimSpace(q.QuestionText) == "" || len(q.Options) < 2 {
			return nil, errors.New("each question needs text and at least two options")
		}
		if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
			return nil, errors.New("correctOptionIndex out of range")
		}
		question := models.QuizQuestion{
			QuestionText:       q.QuestionText,
			CorrectOptionIndex: q.CorrectOptionIndex,
		}
		for _, opt := range q.Options {
			question.Options = append(question.Options, models.QuizOption{OptionText: opt})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz, nil
}

// HandleGetQuizzes lists the caller's quizzes with nested questions and
// options.
func HandleGetQuizzes(c *fiber.Ctx) error {
	quizzes, err := repository.GetGlobalFactory().GetQuizRepository().GetVisibleToUser(currentUserID(c))
	if err != nil {
		return internalError(c, "Failed to load quizzes")
	}
	return c.JSON(quizzes)
}

// HandleGetQuiz returns a single quiz with its question tree.
func HandleGetQuiz(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid quiz id")
	}
	quiz, err := repository.GetGlobalFactory().GetQuizRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Quiz not found")
		}
		return internalError(c, "Failed to load quiz")
	}
	return c.JSON(quiz)
}

// HandleCreateQuiz creates a quiz together with its questions and options in
// a single transaction.
func HandleCreateQuiz(c *fiber.Ctx) error {
	var payload quizPayload
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "Invalid request body")
	}

	quiz, err := payload.toModel(currentUserID(c))
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := quiz.Validate(); err != nil {
		return badRequest(c, "Quiz validation failed")
	}

	if err := repository.GetGlobalFactory().GetQuizRepository().CreateWithChildren(quiz); err != nil {
		return internalError(c, "Failed to create quiz")
	}
	return c.Status(fiber.StatusCreated).JSON(quiz)
}

// HandleUpdateQuiz replaces a quiz's metadata and its entire question tree.
func HandleUpdateQuiz(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid quiz id")
	}

	repo := repository.GetGlobalFactory().GetQuizRepository()
	existing, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Quiz not found")
		}
		return internalError(c, "Failed to load quiz")
	}
	if existing.UserID != currentUserID(c) {
		return forbidden(c, "You can only update your own quizzes")
	}

	var payload quizPayload
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "Invalid request body")
	}
	quiz, err := payload.toModel(existing.UserID)
	if err != nil {
		return badRequest(c, err.Error())
	}
	quiz.ID = id

	if err := repo.ReplaceContent(quiz); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Quiz not found")
		}
		return internalError(c, "Failed to update quiz")
	}

	updated, err := repo.GetByID(id)
	if err != nil {
		return internalError(c, "Failed to load quiz")
	}
	return c.JSON(updated)
}

// HandleDeleteQuiz removes a quiz. Admins may remove any quiz, owners their
// own.
func HandleDeleteQuiz(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid quiz id")
	}

	repos := repository.GetGlobalRepositories()
	quiz, err := repos.Quiz.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Quiz not found")
		}
		return internalError(c, "Failed to load quiz")
	}

	userID := currentUserID(c)
	if quiz.UserID != userID {
		caller, err := repos.User.GetByID(userID)
		if err != nil || !caller.IsAdmin {
			return forbidden(c, "You can only delete your own quizzes")
		}
	}

	if err := repos.Quiz.Delete(id); err != nil {
		return internalError(c, "Failed to delete quiz")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
