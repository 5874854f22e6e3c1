package catalog

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

func seed(t *testing.T, db *gorm.DB, p models.Product) *models.Product {
	t.Helper()
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func TestList_HidesInactive(t *testing.T) {
	svc := newTestService(t)

	seed(t, svc.DB, models.Product{Name: "visible", Slug: "visible", Price: 10, IsActive: true})
	seed(t, svc.DB, models.Product{Name: "hidden", Slug: "hidden", Price: 10, IsActive: false})

	page, err := svc.List(context.Background(), 1, 12, "", "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "visible", page.Items[0].Name)
	assert.EqualValues(t, 1, page.Total)
}

func TestList_Pagination(t *testing.T) {
	svc := newTestService(t)

	for i := 0; i < 7; i++ {
		seed(t, svc.DB, models.Product{
			Name:     string(rune('a' + i)),
			Slug:     string(rune('a' + i)),
			Price:    10,
			IsActive: true,
		})
	}

	first, err := svc.List(context.Background(), 1, 3, "", "")
	require.NoError(t, err)
	assert.Len(t, first.Items, 3)
	assert.EqualValues(t, 7, first.Total)
	assert.EqualValues(t, 3, first.TotalPages)
	assert.False(t, first.HasPrev)
	assert.True(t, first.HasNext)

	last, err := svc.List(context.Background(), 3, 3, "", "")
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)
	assert.True(t, last.HasPrev)
	assert.False(t, last.HasNext)

	// Out-of-range pages are empty, not an error.
	past, err := svc.List(context.Background(), 9, 3, "", "")
	require.NoError(t, err)
	assert.Empty(t, past.Items)
}

func TestList_CategoryFilter(t *testing.T) {
	svc := newTestService(t)

	cat := models.Category{Name: "Lighting", Slug: "lighting"}
	require.NoError(t, svc.DB.Create(&cat).Error)

	seed(t, svc.DB, models.Product{Name: "lamp", Slug: "lamp", Price: 10, IsActive: true, CategoryID: &cat.ID})
	seed(t, svc.DB, models.Product{Name: "mug", Slug: "mug", Price: 5, IsActive: true})

	page, err := svc.List(context.Background(), 1, 12, "lighting", "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "lamp", page.Items[0].Name)

	_, err = svc.List(context.Background(), 1, 12, "no-such-category", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_Search(t *testing.T) {
	svc := newTestService(t)

	seed(t, svc.DB, models.Product{Name: "Walnut Desk", Slug: "walnut-desk", Price: 200, IsActive: true})
	seed(t, svc.DB, models.Product{Name: "Chair", Slug: "chair", Description: "solid walnut frame", Price: 90, IsActive: true})
	seed(t, svc.DB, models.Product{Name: "Mug", Slug: "mug", Price: 5, IsActive: true})

	page, err := svc.List(context.Background(), 1, 12, "", "WALNUT")
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = svc.List(context.Background(), 1, 12, "", "granite")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 0, page.Total)
}

func TestBySlug(t *testing.T) {
	svc := newTestService(t)

	seed(t, svc.DB, models.Product{Name: "lamp", Slug: "lamp", Price: 10, IsActive: true})
	seed(t, svc.DB, models.Product{Name: "retired", Slug: "retired", Price: 10, IsActive: false})

	p, err := svc.BySlug(context.Background(), "lamp")
	require.NoError(t, err)
	assert.Equal(t, "lamp", p.Name)

	// Inactive products are invisible on the storefront.
	_, err = svc.BySlug(context.Background(), "retired")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.BySlug(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeaturedAndNew(t *testing.T) {
	svc := newTestService(t)

	seed(t, svc.DB, models.Product{Name: "a", Slug: "a", Price: 1, IsActive: true, IsFeatured: true})
	seed(t, svc.DB, models.Product{Name: "b", Slug: "b", Price: 1, IsActive: true, IsNew: true})
	seed(t, svc.DB, models.Product{Name: "c", Slug: "c", Price: 1, IsActive: false, IsFeatured: true, IsNew: true})

	featured, err := svc.Featured(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "a", featured[0].Name)

	fresh, err := svc.New(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "b", fresh[0].Name)
}

func TestRelated(t *testing.T) {
	svc := newTestService(t)

	cat := models.Category{Name: "Lighting", Slug: "lighting"}
	require.NoError(t, svc.DB.Create(&cat).Error)

	lamp := seed(t, svc.DB, models.Product{Name: "lamp", Slug: "lamp", Price: 10, IsActive: true, CategoryID: &cat.ID})
	seed(t, svc.DB, models.Product{Name: "sconce", Slug: "sconce", Price: 15, IsActive: true, CategoryID: &cat.ID})
	seed(t, svc.DB, models.Product{Name: "mug", Slug: "mug", Price: 5, IsActive: true})

	related, err := svc.Related(context.Background(), lamp, 4)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "sconce", related[0].Name)

	uncategorized := seed(t, svc.DB, models.Product{Name: "loose", Slug: "loose", Price: 1, IsActive: true})
	related, err = svc.Related(context.Background(), uncategorized, 4)
	require.NoError(t, err)
	assert.Empty(t, related)
}
