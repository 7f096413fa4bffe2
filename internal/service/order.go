package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/mallkit/internal/logging"
	"github.com/Skotchmaster/mallkit/internal/models"
	"github.com/Skotchmaster/mallkit/internal/mq"
	"github.com/Skotchmaster/mallkit/internal/repo"
	"github.com/Skotchmaster/mallkit/internal/transport"
)

var ErrForbidden = errors.New("forbidden") // 403

type OrderService struct {
	Repo     repo.GormRepo
	Producer *mq.Producer
}

// CreateOrder persists the order with every item atomically and associates it
// with the caller. The returned order is labeled "paid" unconditionally;
// there is no payment gateway behind it.
func (svc *OrderService) CreateOrder(ctx context.Context, identity *models.User, req transport.CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	var items []models.OrderItem
	for i := range req.Items {
		if req.Items[i].Qty < 0 {
			return nil, fmt.Errorf("%w: qty must be >= 0", ErrValidation)
		}
		if req.Items[i].Price < 0 {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}

		items = append(items, models.OrderItem{
			ID:    uuid.NewString(),
			Name:  req.Items[i].Name,
			Price: req.Items[i].Price,
			Qty:   req.Items[i].Qty,
			Image: req.Items[i].Image,
		})
	}

	order := &models.Order{
		ID:          uuid.NewString(),
		UserPhone:   identity.Phone,
		TotalAmount: req.TotalAmount,
		CreatedAt:   time.Now().UTC(),
		Items:       items,
	}

	if err := svc.Repo.CreateOrder(ctx, order); err != nil {
		logging.FromContext(ctx).Error("create_order_error", "svc", "order.create", "error", err)
		return nil, err
	}

	svc.publishOrderEvent(ctx, order)

	return order, nil
}

// ListOrders returns every order for admins and only the caller's own orders
// otherwise.
func (svc *OrderService) ListOrders(ctx context.Context, identity *models.User) ([]models.Order, error) {
	if identity.Role == "admin" {
		return svc.Repo.ListAllOrders(ctx)
	}
	return svc.Repo.ListOrdersByPhone(ctx, identity.Phone)
}

// ListAllOrders is the admin-only view including the owning phone.
func (svc *OrderService) ListAllOrders(ctx context.Context, identity *models.User) ([]models.Order, error) {
	if identity.Role != "admin" {
		return nil, ErrForbidden
	}
	return svc.Repo.ListAllOrders(ctx)
}

func (svc *OrderService) publishOrderEvent(ctx context.Context, order *models.Order) {
	event := map[string]any{
		"type":         "order_created",
		"order_id":     order.ID,
		"user_phone":   order.UserPhone,
		"total_amount": order.TotalAmount,
		"item_count":   len(order.Items),
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := svc.Producer.PublishEvent(pubCtx, mq.TopicOrderEvents, order.UserPhone, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", mq.TopicOrderEvents, "error", err)
	}
}
