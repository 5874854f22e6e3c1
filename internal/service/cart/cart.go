package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/avelsk/storefront/internal/models"
)

var (
	ErrValidation        = errors.New("validation")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Owner identifies who a cart belongs to: a registered user or an
// anonymous browser holding an opaque guest token. Exactly one side is set.
type Owner struct {
	UserID     uint
	GuestToken string
}

type Service struct {
	DB *gorm.DB
}

// Line pairs a cart item with the current product row. Subtotal reflects
// the product's current price, never a cached one.
type Line struct {
	Item     models.CartItem `json:"item"`
	Product  models.Product  `json:"product"`
	Subtotal float64         `json:"subtotal"`
}

func (s *Service) GetOrCreate(ctx context.Context, owner Owner) (*models.Cart, error) {
	if owner.UserID == 0 && owner.GuestToken == "" {
		return nil, fmt.Errorf("cart owner required: %w", ErrValidation)
	}

	q := s.DB.WithContext(ctx)
	if owner.UserID != 0 {
		q = q.Where("user_id = ?", owner.UserID)
	} else {
		q = q.Where("guest_token = ?", owner.GuestToken)
	}

	var c models.Cart
	err := q.First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if owner.UserID != 0 {
		c.UserID = &owner.UserID
	} else {
		token := owner.GuestToken
		c.GuestToken = &token
	}
	if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) AddItem(ctx context.Context, cartID, productID uint, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		quantity = 1
	}

	var item models.CartItem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.First(&p, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %d: %w", productID, ErrNotFound)
			}
			return err
		}

		existing := 0
		found := tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item)
		if found.Error == nil {
			existing = item.Quantity
		} else if !errors.Is(found.Error, gorm.ErrRecordNotFound) {
			return found.Error
		}

		if existing+quantity > p.Stock {
			return fmt.Errorf("product %d has %d in stock: %w", productID, p.Stock, ErrInsufficientStock)
		}

		if found.Error == nil {
			item.Quantity += quantity
			return tx.Save(&item).Error
		}
		item = models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem overwrites a line's quantity. A quantity of zero or less
// removes the line; the returned flag reports the removal.
func (s *Service) UpdateItem(ctx context.Context, itemID uint, quantity int) (*models.CartItem, bool, error) {
	var (
		item    models.CartItem
		deleted bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
			}
			return err
		}

		if quantity <= 0 {
			deleted = true
			return tx.Delete(&item).Error
		}

		var p models.Product
		if err := tx.First(&p, item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %d: %w", item.ProductID, ErrNotFound)
			}
			return err
		}
		if quantity > p.Stock {
			return fmt.Errorf("product %d has %d in stock: %w", item.ProductID, p.Stock, ErrInsufficientStock)
		}

		item.Quantity = quantity
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &item, deleted, nil
}

func (s *Service) RemoveItem(ctx context.Context, itemID uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.CartItem{}, itemID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}
	return nil
}

func (s *Service) ItemByID(ctx context.Context, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := s.DB.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

func (s *Service) Lines(ctx context.Context, cartID uint) ([]Line, error) {
	var items []models.CartItem
	if err := s.DB.WithContext(ctx).Where("cart_id = ?", cartID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		var p models.Product
		if err := s.DB.WithContext(ctx).First(&p, it.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Product deleted from under the cart; drop the line from view.
				continue
			}
			return nil, err
		}
		lines = append(lines, Line{Item: it, Product: p, Subtotal: p.Price * float64(it.Quantity)})
	}
	return lines, nil
}

// Total is recomputed against current prices on every call.
func (s *Service) Total(ctx context.Context, cartID uint) (float64, error) {
	lines, err := s.Lines(ctx, cartID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, l := range lines {
		total += l.Subtotal
	}
	return total, nil
}

func (s *Service) ItemCount(ctx context.Context, cartID uint) (int, error) {
	var items []models.CartItem
	if err := s.DB.WithContext(ctx).Where("cart_id = ?", cartID).Find(&items).Error; err != nil {
		return 0, err
	}
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	return count, nil
}
