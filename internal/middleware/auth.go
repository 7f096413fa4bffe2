package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mallkit/internal/models"
	"github.com/Skotchmaster/mallkit/internal/repo"
	"github.com/Skotchmaster/mallkit/internal/tokens"
)

// HeaderToken is the header the existing clients send the bearer token in.
// It is literally "token", not Authorization, and must stay that way.
const HeaderToken = "token"

const userContextKey = "user"

type TokenAuth struct {
	JWTSecret []byte
	Repo      repo.GormRepo
}

func NewTokenAuth(secret []byte, r repo.GormRepo) *TokenAuth {
	return &TokenAuth{JWTSecret: secret, Repo: r}
}

type validatorFunc func(user *models.User) error

func (m *TokenAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *TokenAuth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(user *models.User) error {
		if user.Role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *TokenAuth) requireAuthWithValidator(next echo.HandlerFunc, validator validatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(HeaderToken)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}

		claims, err := tokens.ClaimsFromToken(raw, m.JWTSecret)
		if err != nil || claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		user, err := m.Repo.FindUserByPhone(c.Request().Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, repo.ErrUserNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown subject")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		if validator != nil {
			if validationErr := validator(user); validationErr != nil {
				return validationErr
			}
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

// UserFromContext returns the identity resolved by RequireAuth.
func UserFromContext(c echo.Context) (*models.User, bool) {
	user, ok := c.Get(userContextKey).(*models.User)
	return user, ok
}
