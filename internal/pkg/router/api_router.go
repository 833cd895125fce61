package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/mystrio/mystrio-api/app/controllers"
	"github.com/mystrio/mystrio-api/internal/pkg/cache"
	"github.com/mystrio/mystrio-api/internal/pkg/env"
	"github.com/mystrio/mystrio-api/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")

	// Public endpoints reachable without a token are rate limited per IP.
	publicLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
	})

	// Auth
	api.Post("/signup", controllers.HandleSignup)
	api.Post("/login", controllers.HandleLogin)

	// Users
	api.Get("/users", controllers.HandleListUsers)
	api.Get("/users/:id", controllers.HandleGetUser)
	api.Put("/users/:id", middleware.RequireAuth(), controllers.HandleUpdateUser)
	api.Delete("/users/:id", middleware.RequireAuth(), controllers.HandleDeleteUser)

	// Questions
	api.Post("/questions/anonymous", publicLimiter, controllers.HandleSubmitAnonymousQuestion)
	api.Get("/questions/anonymous", middleware.RequireAuth(), controllers.HandleGetAnonymousQuestions)
	api.Get("/questions", middleware.RequireAuth(), controllers.HandleGetQuestions)
	api.Post("/questions", middleware.RequireAuth(), controllers.HandleCreateQuestion)
	api.Put("/questions/:id", middleware.RequireAuth(), controllers.HandleAnswerQuestion)
	api.Delete("/questions/:id", middleware.RequireAuth(), controllers.HandleDeleteQuestion)
	api.Get("/questions/:id/hint", middleware.RequireAuth(), middleware.RequirePremium(), controllers.HandleGetQuestionHint)

	// Quizzes
	api.Get("/quizzes", middleware.RequireAuth(), controllers.HandleGetQuizzes)
	api.Post("/quizzes", middleware.RequireAuth(), controllers.HandleCreateQuiz)
	api.Get("/quizzes/:id", middleware.RequireAuth(), controllers.HandleGetQuiz)
	api.Put("/quizzes/:id", middleware.RequireAuth(), controllers.HandleUpdateQuiz)
	api.Delete("/quizzes/:id", middleware.RequireAuth(), controllers.HandleDeleteQuiz)

	// Sharing
	api.Post("/share", middleware.RequireAuth(), controllers.HandleCreateShareLink)
	api.Get("/share/:code", publicLimiter, controllers.HandleResolveShareLink)

	// Notifications
	api.Get("/notifications", middleware.RequireAuth(), controllers.HandleGetNotifications)
	api.Put("/notifications/:id/read", middleware.RequireAuth(), controllers.HandleMarkNotificationRead)

	// Payments
	api.Post("/payment/initiate-stk", middleware.RequireAuth(), controllers.HandleInitiateSTKPush)
	api.Post("/payment/webhook", controllers.HandlePaymentWebhook)

	// Admin
	admin := api.Group("/admin", middleware.RequireAuth(), middleware.RequireAdmin())
	admin.Get("/stats", controllers.HandleAdminStats)
	admin.Get("/users", controllers.HandleAdminListUsers)
	admin.Get("/users/:id/activity", controllers.HandleAdminUserActivity)
	admin.Put("/users/:id", controllers.HandleAdminUpdateUser)
	admin.Delete("/users/:id", controllers.HandleAdminDeleteUser)
	admin.Get("/questions", controllers.HandleAdminListQuestions)
	admin.Delete("/questions/:id", controllers.HandleAdminDeleteQuestion)
	admin.Get("/quizzes", controllers.HandleAdminListQuizzes)
	admin.Delete("/quizzes/:id", controllers.HandleAdminDeleteQuiz)
}

// newLimiterStorage backs the rate limiter with Redis so limits hold across
// instances. Database 1 keeps limiter keys apart from cache entries.
func newLimiterStorage() *redisstorage.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")

	if client := cache.GetClient(); client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
