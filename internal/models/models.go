package models

import (
	"time"
)

type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"unique;not null"          json:"name"`
	Slug        string `gorm:"unique;not null"          json:"slug"`
	Description string `json:"description"`
}

type Brand struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null"          json:"name"`
	Slug string `gorm:"unique;not null"          json:"slug"`
	Logo string `json:"logo"`
}

type Product struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name             string    `gorm:"not null"                 json:"name"`
	Slug             string    `gorm:"unique;not null"          json:"slug"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"short_description"`
	Price            float64   `gorm:"not null"                 json:"price"`
	OriginalPrice    *float64  `json:"original_price,omitempty"`
	Stock            int       `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	SKU              string    `json:"sku"`
	MainImage        string    `json:"main_image"`
	IsActive         bool      `gorm:"default:true"             json:"is_active"`
	IsFeatured       bool      `gorm:"default:false"            json:"is_featured"`
	IsNew            bool      `gorm:"default:false"            json:"is_new"`
	CategoryID       *uint     `gorm:"index"                    json:"category_id,omitempty"`
	BrandID          *uint     `gorm:"index"                    json:"brand_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"unique;not null;index"    json:"email"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	Role         string    `gorm:"not null;default:customer" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

// A cart belongs to exactly one owner: a registered user or an anonymous
// browser identified by an opaque guest token.
type Cart struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *uint     `gorm:"index"                    json:"user_id,omitempty"`
	GuestToken *string   `gorm:"index"                    json:"guest_token,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement"              json:"id"`
	CartID    uint `gorm:"not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Quantity  int  `gorm:"not null;default:1;check:quantity > 0" json:"quantity"`
}

type Order struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string `gorm:"unique;not null"          json:"order_number"`
	UserID      uint   `gorm:"index;not null"           json:"user_id"`

	Status        string `gorm:"not null;default:pending" json:"status"`
	PaymentMethod string `gorm:"not null"                 json:"payment_method"`

	// Shipping address is snapshotted so later profile edits cannot
	// rewrite order history.
	ShippingFirstName string `json:"shipping_first_name"`
	ShippingLastName  string `json:"shipping_last_name"`
	ShippingCompany   string `json:"shipping_company"`
	ShippingStreet    string `json:"shipping_street"`
	ShippingApartment string `json:"shipping_apartment"`
	ShippingCity      string `json:"shipping_city"`
	ShippingDistrict  string `json:"shipping_district"`
	ShippingPostcode  string `json:"shipping_postcode"`
	ShippingPhone     string `json:"shipping_phone"`
	ShippingEmail     string `json:"shipping_email"`

	Subtotal     float64 `gorm:"not null" json:"subtotal"`
	ShippingCost float64 `gorm:"not null" json:"shipping_cost"`
	Total        float64 `gorm:"not null" json:"total"`

	OrderNotes string `json:"order_notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint `gorm:"index;not null"           json:"order_id"`
	ProductID uint `gorm:"not null"                 json:"product_id"`

	// Name and price are frozen at purchase time; the product row may be
	// edited or deleted afterwards.
	ProductName string  `gorm:"not null"           json:"product_name"`
	Price       float64 `gorm:"not null"           json:"price"`
	Quantity    int     `gorm:"not null;default:1" json:"quantity"`
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"              json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_user_product" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}
