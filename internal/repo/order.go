package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/mallkit/internal/models"
)

// CreateOrder persists the order and all of its items in one transaction, so
// a partially written order is never visible.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		order.Items = nil
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
}

func (r *GormRepo) ListOrdersByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	var orders []models.Order
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_phone = ?", phone)
	if err := q.Preload("Items").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
