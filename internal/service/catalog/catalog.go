package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/avelsk/storefront/internal/models"
)

var ErrNotFound = errors.New("not found")

type Service struct {
	DB *gorm.DB
}

type Page struct {
	Items      []models.Product `json:"items"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	Total      int64            `json:"total"`
	TotalPages int64            `json:"total_pages"`
	HasPrev    bool             `json:"has_prev"`
	HasNext    bool             `json:"has_next"`
}

// List returns active products, newest first. A category slug narrows to
// that category; a query matches a case-insensitive substring of name or
// description.
func (s *Service) List(ctx context.Context, page, size int, categorySlug, query string) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 12
	}

	q := s.DB.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)

	if categorySlug != "" {
		var cat models.Category
		if err := s.DB.WithContext(ctx).Where("slug = ?", categorySlug).First(&cat).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("category %q: %w", categorySlug, ErrNotFound)
			}
			return nil, err
		}
		q = q.Where("category_id = ?", cat.ID)
	}

	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (page - 1) * size
	var items []models.Product
	if err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(size).Find(&items).Error; err != nil {
		return nil, err
	}

	return &Page{
		Items:      items,
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: (total + int64(size) - 1) / int64(size),
		HasPrev:    page > 1,
		HasNext:    int64(offset+size) < total,
	}, nil
}

func (s *Service) BySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	err := s.DB.WithContext(ctx).Where("slug = ? AND is_active = ?", slug, true).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %q: %w", slug, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) ByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	var items []models.Product
	err := s.DB.WithContext(ctx).
		Where("is_featured = ? AND is_active = ?", true, true).
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (s *Service) New(ctx context.Context, limit int) ([]models.Product, error) {
	var items []models.Product
	err := s.DB.WithContext(ctx).
		Where("is_new = ? AND is_active = ?", true, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// Related lists other active products from the same category.
func (s *Service) Related(ctx context.Context, p *models.Product, limit int) ([]models.Product, error) {
	if p.CategoryID == nil {
		return nil, nil
	}
	var items []models.Product
	err := s.DB.WithContext(ctx).
		Where("category_id = ? AND id <> ? AND is_active = ?", *p.CategoryID, p.ID, true).
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.DB.WithContext(ctx).Order("name ASC").Find(&cats).Error
	return cats, err
}

func (s *Service) Brands(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	err := s.DB.WithContext(ctx).Order("name ASC").Find(&brands).Error
	return brands, err
}
