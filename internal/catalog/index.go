package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Index is an in-memory snapshot of the catalog, shared read-only by
// every open order wizard. Refresh swaps the whole snapshot; lookups
// never observe a half-loaded catalog.
type Index struct {
	mu         sync.RWMutex
	loaded     bool
	categories []Category
	products   []Product
	byID       map[string]Product
}

func NewIndex() *Index {
	return &Index{byID: make(map[string]Product)}
}

// Refresh reloads the snapshot from the provider. On error the previous
// snapshot stays in place, so a flaky upstream never empties the grid
// under an open cart.
func (ix *Index) Refresh(ctx context.Context, p Provider) error {
	categories, err := p.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	products, err := p.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	byID := make(map[string]Product, len(products))
	for _, prod := range products {
		byID[prod.ID] = prod
	}

	ix.mu.Lock()
	ix.loaded = true
	ix.categories = categories
	ix.products = products
	ix.byID = byID
	ix.mu.Unlock()
	return nil
}

// Loaded reports whether at least one Refresh has succeeded.
func (ix *Index) Loaded() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.loaded
}

// Categories returns the normalized category list in upstream order.
func (ix *Index) Categories() []Category {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Category, len(ix.categories))
	copy(out, ix.categories)
	return out
}

// Products returns products filtered by category and/or a free-text
// query. Empty filters match everything. The query is a case-insensitive
// substring match on the product name.
func (ix *Index) Products(categoryID, query string) []Product {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	var out []Product
	for _, prod := range ix.products {
		if categoryID != "" && prod.CategoryID != categoryID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(prod.Name), query) {
			continue
		}
		out = append(out, prod)
	}
	return out
}

// ProductByID looks up a single product.
func (ix *Index) ProductByID(id string) (Product, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	prod, ok := ix.byID[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return prod, nil
}
