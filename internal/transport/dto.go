package transport

import (
	"github.com/shopspring/decimal"

	"github.com/mystor/storefront/internal/models"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type CartResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	TotalItems int    `json:"total_items"`
}

type CartLine struct {
	Product  models.Product  `json:"product"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

type CartSummary struct {
	Items      []CartLine      `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	TotalItems int             `json:"total_items"`
}

type Breadcrumb struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  uint            `json:"category_id"`
	Stock       int             `json:"stock"`
	IsAvailable *bool           `json:"is_available"`
	SKU         *string         `json:"sku"`
}

type PatchProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *uint            `json:"category_id"`
	Stock       *int             `json:"stock"`
	IsAvailable *bool            `json:"is_available"`
	SKU         *string          `json:"sku"`
}
