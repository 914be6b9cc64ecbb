// Package catalog holds the sellable products and their optional extras.
// It normalizes whatever shape the upstream catalog service returns into
// Category/Product/Extra once, so the rest of the code never deals with
// loosely-shaped upstream records.
package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Errors returned by the catalog package.
var (
	ErrProductNotFound = errors.New("product not found in catalog")
	ErrUnavailable     = errors.New("catalog unavailable")
)

// Category is the normalized category record.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Extra is a paid add-on offered on a specific product. Its price is
// charged once per unit of the parent line item's quantity.
type Extra struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Product is immutable reference data. Carts copy the fields they need
// at add time; later catalog price changes never reprice an open cart.
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	CategoryID      string          `json:"category_id"`
	BasePrice       decimal.Decimal `json:"base_price"`
	Image           string          `json:"image"`
	AvailableExtras []Extra         `json:"available_extras"`
}

// Provider is the upstream catalog collaborator.
type Provider interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListProducts(ctx context.Context) ([]Product, error)
}
