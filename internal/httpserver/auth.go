package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mallkit/internal/logging"
	"github.com/Skotchmaster/mallkit/internal/middleware"
	"github.com/Skotchmaster/mallkit/internal/service"
	"github.com/Skotchmaster/mallkit/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Register(ctx, req.Phone, req.Password, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPhoneTaken):
			return echo.NewHTTPError(http.StatusBadRequest, "phone already registered")
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("register_successful")
	return c.JSON(http.StatusOK, transport.AuthResponse{
		Token: res.Token,
		Role:  res.Role,
		User:  res.Username,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "invalid phone or password")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("login_successful")
	return c.JSON(http.StatusOK, transport.AuthResponse{
		Token: res.Token,
		Role:  res.Role,
		User:  res.Username,
	})
}

func (h *AuthHTTP) Profile(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	phone, username, role := h.Svc.Profile(user)
	return c.JSON(http.StatusOK, transport.ProfileResponse{
		Phone:    phone,
		Username: username,
		Role:     role,
	})
}
