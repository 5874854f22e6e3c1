package cart

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avelsk/storefront/internal/config"
	"github.com/avelsk/storefront/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	require.NoError(t, config.Migrate(db))
	return &Service{DB: db}
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := models.Product{Name: name, Slug: name, Price: price, Stock: stock, IsActive: true}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func TestGetOrCreate_Deterministic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, Owner{UserID: 7})
	require.NoError(t, err)
	second, err := svc.GetOrCreate(ctx, Owner{UserID: 7})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	guest, err := svc.GetOrCreate(ctx, Owner{GuestToken: "tok-abc"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, guest.ID)

	guestAgain, err := svc.GetOrCreate(ctx, Owner{GuestToken: "tok-abc"})
	require.NoError(t, err)
	assert.Equal(t, guest.ID, guestAgain.ID)
}

func TestGetOrCreate_RequiresOwner(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetOrCreate(context.Background(), Owner{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddItem_MergesDuplicateLines(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, svc.DB, "lamp", 10, 10)
	crt, err := svc.GetOrCreate(ctx, Owner{UserID: 1})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, crt.ID, p.ID, 2)
	require.NoError(t, err)
	item, err := svc.AddItem(ctx, crt.ID, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	var count int64
	require.NoError(t, svc.DB.Model(&models.CartItem{}).Where("cart_id = ?", crt.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	crt, err := svc.GetOrCreate(ctx, Owner{UserID: 1})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, crt.ID, 999, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddItem_InsufficientStock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, svc.DB, "chair", 25, 3)
	crt, err := svc.GetOrCreate(ctx, Owner{UserID: 1})
	require.NoError(t, err)

	added, err := svc.AddItem(ctx, crt.ID, p.ID, 2)
	require.NoError(t, err)

	// 2 already in cart + 2 more > stock of 3
	_, err = svc.AddItem(ctx, crt.ID, p.ID, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	item, err := svc.ItemByID(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
}

func TestUpdateItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, svc.DB, "desk", 100, 5)
	crt, err := svc.GetOrCreate(ctx, Owner{UserID: 1})
	require.NoError(t, err)
	added, err := svc.AddItem(ctx, crt.ID, p.ID, 1)
	require.NoError(t, err)

	item, deleted, err := svc.UpdateItem(ctx, added.ID, 4)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 4, item.Quantity)

	_, _, err = svc.UpdateItem(ctx, added.ID, 6)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, deleted, err = svc.UpdateItem(ctx, added.ID, 0)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, _, err = svc.UpdateItem(ctx, added.ID, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, svc.DB, "mug", 5, 10)
	crt, err := svc.GetOrCreate(ctx, Owner{UserID: 1})
	require.NoError(t, err)
	added, err := svc.AddItem(ctx, crt.ID, p.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, added.ID))

	err = svc.RemoveItem(ctx, added.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTotal_ReflectsCurrentPrices(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p1 := seedProduct(t, svc.DB, "p1", 10, 10)
	p2 := seedProduct(t, svc.DB, "p2", 5, 10)
	crt, err := svc.GetOrCreate(ctx, Owner{UserID: 1})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, crt.ID, p1.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, crt.ID, p2.ID, 1)
	require.NoError(t, err)

	total, err := svc.Total(ctx, crt.ID)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, total, 1e-9)

	// Raising a price changes the unpurchased cart's total.
	require.NoError(t, svc.DB.Model(&models.Product{}).Where("id = ?", p1.ID).Update("price", 12.0).Error)

	total, err = svc.Total(ctx, crt.ID)
	require.NoError(t, err)
	assert.InDelta(t, 29.0, total, 1e-9)
}

func TestItemCount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p1 := seedProduct(t, svc.DB, "p1", 10, 10)
	p2 := seedProduct(t, svc.DB, "p2", 5, 10)
	crt, err := svc.GetOrCreate(ctx, Owner{UserID: 1})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, crt.ID, p1.ID, 3)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, crt.ID, p2.ID, 2)
	require.NoError(t, err)

	count, err := svc.ItemCount(ctx, crt.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
