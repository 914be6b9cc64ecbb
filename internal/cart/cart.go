// Package cart owns the draft order's line items. A line item is one
// configured occurrence of a product: the same product can appear many
// times with different extras or notes.
package cart

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fogon-pos/api/internal/catalog"
)

// Errors returned by cart operations.
var (
	ErrInvalidQuantity = errors.New("quantity must be > 0")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrExtraNotOffered = errors.New("extra is not offered for this product")
)

// LineItem is one configured product occurrence. Product name and base
// price are copied at add time so catalog changes never reprice an open
// cart.
type LineItem struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	UnitBasePrice decimal.Decimal `json:"unit_base_price"`
	Quantity      int             `json:"quantity"`
	Extras        []catalog.Extra `json:"extras"`
	Note          string          `json:"note"`
}

// UnitPrice is the per-unit price including extras. Each extra is
// charged once per unit of quantity.
func (li LineItem) UnitPrice() decimal.Decimal {
	price := li.UnitBasePrice
	for _, ex := range li.Extras {
		price = price.Add(ex.Price)
	}
	return price
}

// LineTotal is UnitPrice × Quantity. A quantity below 1 should never get
// past the engine, but if it does the line contributes zero rather than
// a negative amount.
func (li LineItem) LineTotal() decimal.Decimal {
	if li.Quantity < 1 {
		return decimal.Zero
	}
	return li.UnitPrice().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is the ordered collection of line items for one wizard session.
// Insertion order is display order. Cart is not safe for concurrent use;
// each wizard session owns exactly one cart and serializes access.
type Cart struct {
	items []LineItem
}

func New() *Cart {
	return &Cart{}
}

// AddItem appends a new line item built from the given product.
//
// Merge policy: AddItem never merges with an existing line, even when
// product, extras and note all match. Every add is an independent entry
// so each occurrence can carry its own note later. Extras must be drawn
// from the product's offered extras.
func (c *Cart) AddItem(product catalog.Product, quantity int, extras []catalog.Extra, note string) (LineItem, error) {
	if quantity < 1 {
		return LineItem{}, ErrInvalidQuantity
	}
	for _, ex := range extras {
		if !offersExtra(product, ex.ID) {
			return LineItem{}, ErrExtraNotOffered
		}
	}

	item := LineItem{
		ID:            uuid.New(),
		ProductID:     product.ID,
		ProductName:   product.Name,
		UnitBasePrice: product.BasePrice,
		Quantity:      quantity,
		Extras:        copyExtras(extras),
		Note:          note,
	}
	c.items = append(c.items, item)
	return item, nil
}

// UpdateQuantity changes a line item's quantity. Quantities below 1 are
// a no-op: the floor is enforced here, and removal is a separate
// explicit action, never a side effect of decrementing.
func (c *Cart) UpdateQuantity(id uuid.UUID, quantity int) error {
	if quantity < 1 {
		return nil
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotFound
}

// RemoveItem deletes a line item. Removing an id that is not in the
// cart is not an error.
func (c *Cart) RemoveItem(id uuid.UUID) {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// EditExtras replaces a line item's extras and note in full. Quantity
// and product are untouched. Other line items are never affected, even
// ones holding the same product.
func (c *Cart) EditExtras(id uuid.UUID, extras []catalog.Extra, note string) error {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Extras = copyExtras(extras)
			c.items[i].Note = note
			return nil
		}
	}
	return ErrItemNotFound
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Item returns a single line item by id.
func (c *Cart) Item(id uuid.UUID) (LineItem, error) {
	for _, item := range c.items {
		if item.ID == id {
			return item, nil
		}
	}
	return LineItem{}, ErrItemNotFound
}

// Len is the number of line items (not the summed quantity).
func (c *Cart) Len() int {
	return len(c.items)
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Clear drops every line item. Used on wizard cancel and after a
// successful submission.
func (c *Cart) Clear() {
	c.items = nil
}

func offersExtra(product catalog.Product, extraID string) bool {
	for _, ex := range product.AvailableExtras {
		if ex.ID == extraID {
			return true
		}
	}
	return false
}

func copyExtras(extras []catalog.Extra) []catalog.Extra {
	if len(extras) == 0 {
		return nil
	}
	out := make([]catalog.Extra, len(extras))
	copy(out, extras)
	return out
}
