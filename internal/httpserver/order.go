package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mallkit/internal/logging"
	"github.com/Skotchmaster/mallkit/internal/middleware"
	"github.com/Skotchmaster/mallkit/internal/models"
	"github.com/Skotchmaster/mallkit/internal/service"
	"github.com/Skotchmaster/mallkit/internal/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	user, ok := middleware.UserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.CreateOrder(ctx, user, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		l.Warn("create_order_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, transport.CreateOrderResponse{
		ID:     order.ID,
		Status: "paid",
	})
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	user, ok := middleware.UserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	orders, err := h.Svc.ListOrders(ctx, user)
	if err != nil {
		l.Warn("list_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	views := make([]transport.OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, transport.OrderView{
			ID:          orders[i].ID,
			TotalAmount: orders[i].TotalAmount,
			CreatedAt:   orders[i].CreatedAt,
			Items:       itemViews(orders[i].Items),
		})
	}
	return c.JSON(http.StatusOK, views)
}

func (h *OrderHTTP) ListAllOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_all_orders")

	user, ok := middleware.UserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	orders, err := h.Svc.ListAllOrders(ctx, user)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		l.Warn("list_all_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	views := make([]transport.AdminOrderView, 0, len(orders))
	for i := range orders {
		views = append(views, transport.AdminOrderView{
			ID:          orders[i].ID,
			UserPhone:   orders[i].UserPhone,
			TotalAmount: orders[i].TotalAmount,
			CreatedAt:   orders[i].CreatedAt,
			Items:       itemViews(orders[i].Items),
		})
	}
	return c.JSON(http.StatusOK, views)
}

func itemViews(items []models.OrderItem) []transport.OrderItemView {
	views := make([]transport.OrderItemView, 0, len(items))
	for i := range items {
		views = append(views, transport.OrderItemView{
			ID:    items[i].ID,
			Name:  items[i].Name,
			Price: items[i].Price,
			Qty:   items[i].Qty,
			Image: items[i].Image,
		})
	}
	return views
}
