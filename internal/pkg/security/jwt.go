package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/mystrio/mystrio-api/internal/pkg/env"
)

var (
	ErrInvalidToken = errors.New("JWT token is invalid")
	ErrExpiredToken = errors.New("JWT token is expired")
)

// Tokens are short-lived; clients re-login after a day.
const tokenLifetime = 24 * time.Hour

// UserClaims is the JWT payload issued on signup and login.
type UserClaims struct {
	UserID   uint   `json:"id"`
	Username string `json:"username"`
	jwt.StandardClaims
}

func jwtSecret() []byte {
	return []byte(env.GetEnv("JWT_SECRET", ""))
}

// GenerateToken issues a signed HS256 token for the given user.
func GenerateToken(userID uint, username string) (string, error) {
	claims := &UserClaims{
		UserID:   userID,
		Username: username,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(tokenLifetime).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// ValidateToken parses and verifies a bearer token and returns its claims.
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return jwtSecret(), nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrExpiredToken
		}
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
