package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/mystrio/mystrio-api/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Patch(id uint, patch models.UserPatch) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	CountPremium() (int64, error)
	Recent(limit int) ([]models.User, error)
	GetActivity(userID uint) (*UserActivity, error)
}

// QuestionRepository defines the interface for question-related operations
type QuestionRepository interface {
	Create(question *models.Question) error
	GetByID(id uint) (*models.Question, error)
	GetByOwner(userID uint) ([]QuestionWithAnswer, error)
	GetReceivedAnonymous(userID uint) ([]models.Question, error)
	GetSentAnonymous(userID uint) ([]SentQuestion, error)
	Answer(questionID, userID uint, answerText string) (*models.AnsweredQuestion, error)
	Delete(id uint) error
	GetAnsweredByID(id uint) (*models.AnsweredQuestion, error)
	ListForModeration() ([]ModerationQuestion, error)
}

// QuizRepository defines the interface for quiz-related operations
type QuizRepository interface {
	CreateWithChildren(quiz *models.Quiz) error
	GetByID(id uint) (*models.Quiz, error)
	GetVisibleToUser(userID uint) ([]models.Quiz, error)
	ReplaceContent(quiz *models.Quiz) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
	ListForModeration() ([]ModerationQuiz, error)
}

// ShareRepository defines the interface for share-link operations
type ShareRepository interface {
	Create(answeredQuestionID uint) (string, error)
	GetAnsweredQuestionID(shortCode string) (uint, error)
}

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Create(userID uint, notificationType, content string, referenceID uint) error
	GetByUser(userID uint) ([]models.Notification, error)
	MarkRead(id, userID uint) error
}

// QuestionWithAnswer joins a question with its answer snapshot, when any.
type QuestionWithAnswer struct {
	models.Question
	AnswerText *string    `json:"answerText"`
	AnsweredAt *time.Time `json:"answeredAt"`
}

// SentQuestion is an anonymous question the caller sent, with the
// recipient's username resolved.
type SentQuestion struct {
	ID                uint      `json:"id"`
	QuestionText      string    `json:"questionText"`
	CreatedAt         time.Time `json:"createdAt"`
	RecipientUsername string    `json:"recipientUsername"`
}

// ModerationQuestion is the admin view of a question with owner and
// recipient identities resolved.
type ModerationQuestion struct {
	models.Question
	OwnerUsername     *string `json:"ownerUsername"`
	OwnerEmail        *string `json:"ownerEmail"`
	RecipientUsername string  `json:"recipientUsername"`
	RecipientEmail    string  `json:"recipientEmail"`
}

// ModerationQuiz is the admin view of a quiz with its owner resolved.
type ModerationQuiz struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"createdAt"`
	OwnerUsername *string   `json:"ownerUsername"`
	OwnerEmail    *string   `json:"ownerEmail"`
}

// UserActivity aggregates a user's footprint for the admin dashboard.
type UserActivity struct {
	TotalQuestionsReceived int64 `json:"totalQuestionsReceived"`
	TotalAnswersGiven      int64 `json:"totalAnswersGiven"`
	TotalQuizzesCreated    int64 `json:"totalQuizzesCreated"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Question     QuestionRepository
	Quiz         QuizRepository
	Share        ShareRepository
	Notification NotificationRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Question:     NewQuestionRepository(db),
		Quiz:         NewQuizRepository(db),
		Share:        NewShareRepository(db),
		Notification: NewNotificationRepository(db),
	}
}
