package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"unique;not null"          json:"name"`
	Description string `json:"description,omitempty"`
	ParentID    *uint  `gorm:"index"                    json:"parent_id,omitempty"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name        string          `gorm:"not null"                    json:"name"`
	Description string          `gorm:"not null"                    json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	CategoryID  uint            `gorm:"index;not null"              json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID"       json:"category,omitempty"`
	Stock       int             `gorm:"default:0;check:stock>=0"    json:"stock"`
	IsAvailable bool            `gorm:"default:true"                json:"is_available"`
	SKU         *string         `gorm:"uniqueIndex"                 json:"sku,omitempty"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

// Customer is the profile row behind a User. It is created explicitly by the
// registration handler, never implicitly alongside the account row.
type Customer struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      *uint  `gorm:"uniqueIndex"              json:"user_id,omitempty"`
	Name        string `gorm:"not null"                 json:"name"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null" json:"token"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `gorm:"default:false"   json:"revoked"`
}

type Review struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"                  json:"id"`
	ProductID  uint      `gorm:"uniqueIndex:idx_product_customer;not null" json:"product_id"`
	CustomerID uint      `gorm:"uniqueIndex:idx_product_customer;not null" json:"customer_id"`
	Rating     int       `gorm:"not null;check:rating>=1 AND rating<=5"    json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"              json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_product;not null" json:"user_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_user_product;not null" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID"                  json:"product,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Cart holds one visitor's session cart: Items is the JSON encoding of a
// canonical product-key -> quantity map, owned by the cart store.
type Cart struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"uniqueIndex;not null"     json:"session_id"`
	Items     []byte    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Order struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID *uint           `gorm:"index"                    json:"customer_id,omitempty"`
	Total      decimal.Decimal `gorm:"type:numeric(10,2)"       json:"total"`
	Status     string          `gorm:"not null;default:PENDING" json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint            `gorm:"index;not null"           json:"order_id"`
	ProductID uint            `gorm:"not null"                 json:"product_id"`
	Quantity  uint            `gorm:"default:1"                json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2)"       json:"price"`
}

type Payment struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint            `gorm:"uniqueIndex;not null"     json:"order_id"`
	Method    string          `gorm:"not null"                 json:"payment_method"`
	Amount    decimal.Decimal `gorm:"type:numeric(10,2)"       json:"amount"`
	Status    string          `gorm:"default:succeeded"        json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
