package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mystrio/mystrio-api/app/models"
	"github.com/mystrio/mystrio-api/app/repository"
	"github.com/mystrio/mystrio-api/internal/pkg/security"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignup registers a new account and returns a bearer token with it.
func HandleSignup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := models.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		return badRequest(c, "Username, valid email and a password of at least 6 characters are required")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "conflict",
				"message": "Email already registered",
			})
		}
		return internalError(c, "Failed to create user")
	}

	token, err := security.GenerateToken(user.ID, user.Username)
	if err != nil {
		return internalError(c, "Failed to issue token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// HandleLogin verifies credentials and returns a bearer token. Unknown email
// and wrong password produce the same response.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Invalid credentials.",
		})
	}

	token, err := security.GenerateToken(user.ID, user.Username)
	if err != nil {
		return internalError(c, "Failed to issue token")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}
