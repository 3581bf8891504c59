package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RemoteCart is a cart as returned by /carts/user/{id}.
type RemoteCart struct {
	ID       int              `json:"id"`
	UserID   int              `json:"userId"`
	Date     time.Time        `json:"date"`
	Products []RemoteCartItem `json:"products"`
}

type RemoteCartItem struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

const PlaceholderTitle = "product unavailable"

type OrderLine struct {
	ProductID int             `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Failed    bool            `json:"failed,omitempty"`
}

type Order struct {
	ID       int             `json:"id"`
	UserID   int             `json:"user_id"`
	Date     time.Time       `json:"date"`
	Lines    []OrderLine     `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}
