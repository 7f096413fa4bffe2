package repo

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/mallkit/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func TestGormRepo_CreateOrder_PersistsOrderWithItems(t *testing.T) {
	t.Parallel()

	rp := GormRepo{DB: initTestDB(t)}
	ctx := context.Background()

	order := &models.Order{
		ID:          "ord-1",
		UserPhone:   "+1555",
		TotalAmount: 19.98,
		CreatedAt:   time.Now().UTC(),
		Items: []models.OrderItem{
			{ID: "item-1", Name: "Widget", Price: 9.99, Qty: 2, Image: "img.png"},
		},
	}

	require.NoError(t, rp.CreateOrder(ctx, order))

	orders, err := rp.ListOrdersByPhone(ctx, "+1555")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "ord-1", orders[0].Items[0].OrderID)
}

func TestGormRepo_CreateOrder_AtomicOnItemFailure(t *testing.T) {
	t.Parallel()

	rp := GormRepo{DB: initTestDB(t)}
	ctx := context.Background()

	// Second item reuses the first item's primary key to force the insert to
	// fail after the order row was already written inside the transaction.
	order := &models.Order{
		ID:          "ord-1",
		UserPhone:   "+1555",
		TotalAmount: 10,
		CreatedAt:   time.Now().UTC(),
		Items: []models.OrderItem{
			{ID: "item-dup", Name: "A", Price: 5, Qty: 1},
			{ID: "item-dup", Name: "B", Price: 5, Qty: 1},
		},
	}

	require.Error(t, rp.CreateOrder(ctx, order))

	var orderCount, itemCount int64
	require.NoError(t, rp.DB.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, rp.DB.Model(&models.OrderItem{}).Count(&itemCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, itemCount)
}

func TestGormRepo_CreateUserIfNotExists_Conflict(t *testing.T) {
	t.Parallel()

	rp := GormRepo{DB: initTestDB(t)}
	ctx := context.Background()

	first := &models.User{Phone: "+1555", Username: "alice", PasswordHash: "x", Role: "user"}
	require.NoError(t, rp.CreateUserIfNotExists(ctx, first))

	second := &models.User{Phone: "+1555", Username: "bob", PasswordHash: "y", Role: "user"}
	err := rp.CreateUserIfNotExists(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPhoneTaken)
}

func TestGormRepo_FindUserByPhone_NotFound(t *testing.T) {
	t.Parallel()

	rp := GormRepo{DB: initTestDB(t)}

	user, err := rp.FindUserByPhone(context.Background(), "+10000000000")
	require.Error(t, err)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
