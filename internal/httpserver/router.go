package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mallkit/internal/middleware"
)

type Deps struct {
	AuthHandler  *AuthHTTP
	OrderHandler *OrderHTTP
	Auth         *middleware.TokenAuth
}

func Register(e *echo.Echo, d *Deps) {
	// liveness probe
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	api := e.Group("/api")

	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)

	private := api.Group("", d.Auth.RequireAuth)
	private.GET("/user/profile", d.AuthHandler.Profile)
	private.POST("/orders", d.OrderHandler.CreateOrder)
	private.GET("/orders", d.OrderHandler.ListOrders)

	admin := api.Group("/admin", d.Auth.RequireAdmin)
	admin.GET("/orders", d.OrderHandler.ListAllOrders)
}
