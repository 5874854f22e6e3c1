package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/avelsk/storefront/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrValidation        = errors.New("validation")
)

const ShippingCost = 60.0

var Statuses = []string{"pending", "processing", "shipped", "delivered", "cancelled"}

var PaymentMethods = []string{"cod", "bank_transfer", "online"}

type Service struct {
	DB *gorm.DB
}

type ShippingDetails struct {
	FirstName string `json:"first_name"  form:"first_name"`
	LastName  string `json:"last_name"   form:"last_name"`
	Company   string `json:"company"     form:"company"`
	Street    string `json:"street"      form:"street"`
	Apartment string `json:"apartment"   form:"apartment"`
	City      string `json:"city"        form:"city"`
	District  string `json:"district"    form:"district"`
	Postcode  string `json:"postcode"    form:"postcode"`
	Phone     string `json:"phone"       form:"phone"`
	Email     string `json:"email"       form:"email"`
}

func (d ShippingDetails) Validate() error {
	missing := []string{}
	if d.FirstName == "" {
		missing = append(missing, "first_name")
	}
	if d.LastName == "" {
		missing = append(missing, "last_name")
	}
	if d.Street == "" {
		missing = append(missing, "street")
	}
	if d.City == "" {
		missing = append(missing, "city")
	}
	if d.Phone == "" {
		missing = append(missing, "phone")
	}
	if d.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields %s: %w", strings.Join(missing, ", "), ErrValidation)
	}
	return nil
}

func ValidStatus(s string) bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

func ValidPaymentMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if m == pm {
			return true
		}
	}
	return false
}

// GenerateOrderNumber produces a date-stamped human readable number with a
// random suffix, e.g. ORD-20260829-4F9A1C2B.
func GenerateOrderNumber(now time.Time) string {
	buf := make([]byte, 4)
	rand.Read(buf)
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}

// PlaceOrder converts a cart into an order inside a single transaction:
// order row, item snapshots, guarded stock decrements and cart clearing all
// commit together or not at all.
func (s *Service) PlaceOrder(ctx context.Context, userID, cartID uint, ship ShippingDetails, paymentMethod, notes string) (*models.Order, error) {
	if !ValidPaymentMethod(paymentMethod) {
		return nil, fmt.Errorf("payment method %q: %w", paymentMethod, ErrValidation)
	}
	if err := ship.Validate(); err != nil {
		return nil, err
	}

	var created models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("cart_id = ?", cartID).Order("id ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		type pricedLine struct {
			item    models.CartItem
			product models.Product
		}
		lines := make([]pricedLine, 0, len(items))
		var subtotal float64
		for _, it := range items {
			var p models.Product
			if err := tx.First(&p, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product %d: %w", it.ProductID, ErrNotFound)
				}
				return err
			}
			subtotal += p.Price * float64(it.Quantity)
			lines = append(lines, pricedLine{item: it, product: p})
		}

		created = models.Order{
			OrderNumber:       GenerateOrderNumber(time.Now().UTC()),
			UserID:            userID,
			Status:            "pending",
			PaymentMethod:     paymentMethod,
			ShippingFirstName: ship.FirstName,
			ShippingLastName:  ship.LastName,
			ShippingCompany:   ship.Company,
			ShippingStreet:    ship.Street,
			ShippingApartment: ship.Apartment,
			ShippingCity:      ship.City,
			ShippingDistrict:  ship.District,
			ShippingPostcode:  ship.Postcode,
			ShippingPhone:     ship.Phone,
			ShippingEmail:     ship.Email,
			Subtotal:          subtotal,
			ShippingCost:      ShippingCost,
			Total:             subtotal + ShippingCost,
			OrderNotes:        notes,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		for _, l := range lines {
			oi := models.OrderItem{
				OrderID:     created.ID,
				ProductID:   l.product.ID,
				ProductName: l.product.Name,
				Price:       l.product.Price,
				Quantity:    l.item.Quantity,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}

			// Guarded decrement: a concurrent checkout that drained the
			// stock makes this touch zero rows, failing the whole order.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", l.product.ID, l.item.Quantity).
				Update("stock", gorm.Expr("stock - ?", l.item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %d: %w", l.product.ID, ErrInsufficientStock)
			}
		}

		return tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Service) ByID(ctx context.Context, orderID uint) (*models.Order, []models.OrderItem, error) {
	var o models.Order
	if err := s.DB.WithContext(ctx).First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, nil, err
	}
	var items []models.OrderItem
	if err := s.DB.WithContext(ctx).Where("order_id = ?", o.ID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &o, items, nil
}

func (s *Service) ForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (s *Service) All(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (s *Service) ByStatus(ctx context.Context, status string) ([]models.Order, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("status %q: %w", status, ErrInvalidStatus)
	}
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// UpdateStatus overwrites the status field. Any member of the vocabulary is
// reachable from any other; only membership is checked.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("status %q: %w", status, ErrInvalidStatus)
	}
	res := s.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	return nil
}

type DashboardStats struct {
	TotalOrders   int64            `json:"total_orders"`
	TotalProducts int64            `json:"total_products"`
	TotalRevenue  float64          `json:"total_revenue"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// Stats aggregates the admin dashboard numbers. Revenue counts orders that
// made it past the pending stage and were not cancelled.
func (s *Service) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{ByStatus: make(map[string]int64, len(Statuses))}

	if err := s.DB.WithContext(ctx).Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	for _, st := range Statuses {
		var n int64
		if err := s.DB.WithContext(ctx).Model(&models.Order{}).Where("status = ?", st).Count(&n).Error; err != nil {
			return nil, err
		}
		stats.ByStatus[st] = n
	}

	var revenue *float64
	err := s.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("status IN ?", []string{"processing", "shipped", "delivered"}).
		Select("SUM(total)").
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}
	if revenue != nil {
		stats.TotalRevenue = *revenue
	}
	return stats, nil
}
