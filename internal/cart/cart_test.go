package cart

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fogon-pos/api/internal/catalog"
)

func testProduct() catalog.Product {
	return catalog.Product{
		ID:        "prod-1",
		Name:      "Hamburguesa Clásica",
		BasePrice: decimal.NewFromInt(1000),
		AvailableExtras: []catalog.Extra{
			{ID: "ex-cheese", Name: "Queso", Price: decimal.NewFromInt(200)},
			{ID: "ex-bacon", Name: "Panceta", Price: decimal.NewFromInt(300)},
		},
	}
}

func TestAddItem(t *testing.T) {
	c := New()
	p := testProduct()

	item, err := c.AddItem(p, 2, []catalog.Extra{p.AvailableExtras[0]}, "sin cebolla")
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	if item.ID == uuid.Nil {
		t.Error("expected a generated line item ID")
	}
	if item.ProductID != "prod-1" {
		t.Errorf("ProductID = %q, want %q", item.ProductID, "prod-1")
	}
	if item.Quantity != 2 {
		t.Errorf("Quantity = %d, want 2", item.Quantity)
	}
	if item.Note != "sin cebolla" {
		t.Errorf("Note = %q, want %q", item.Note, "sin cebolla")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestAddItemNeverMerges(t *testing.T) {
	c := New()
	p := testProduct()
	extras := []catalog.Extra{p.AvailableExtras[0]}

	first, _ := c.AddItem(p, 1, extras, "")
	second, _ := c.AddItem(p, 1, extras, "")

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (identical configurations must not merge)", c.Len())
	}
	if first.ID == second.ID {
		t.Error("expected distinct line item IDs for repeated adds")
	}
}

func TestAddItemInvalidQuantity(t *testing.T) {
	c := New()
	p := testProduct()

	for _, qty := range []int{0, -1} {
		if _, err := c.AddItem(p, qty, nil, ""); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("AddItem(qty=%d) error = %v, want ErrInvalidQuantity", qty, err)
		}
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 after rejected adds", c.Len())
	}
}

func TestAddItemExtraNotOffered(t *testing.T) {
	c := New()
	p := testProduct()
	foreign := catalog.Extra{ID: "ex-other", Name: "Palta", Price: decimal.NewFromInt(400)}

	if _, err := c.AddItem(p, 1, []catalog.Extra{foreign}, ""); !errors.Is(err, ErrExtraNotOffered) {
		t.Errorf("AddItem error = %v, want ErrExtraNotOffered", err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	c := New()
	p := testProduct()
	item, _ := c.AddItem(p, 1, nil, "")

	if err := c.UpdateQuantity(item.ID, 5); err != nil {
		t.Fatalf("UpdateQuantity returned error: %v", err)
	}
	got, _ := c.Item(item.ID)
	if got.Quantity != 5 {
		t.Errorf("Quantity = %d, want 5", got.Quantity)
	}
}

func TestUpdateQuantityFloor(t *testing.T) {
	c := New()
	p := testProduct()
	item, _ := c.AddItem(p, 3, nil, "")

	// Below 1 is a silent no-op, never a removal.
	for _, qty := range []int{0, -2} {
		if err := c.UpdateQuantity(item.ID, qty); err != nil {
			t.Fatalf("UpdateQuantity(%d) returned error: %v", qty, err)
		}
	}

	got, err := c.Item(item.ID)
	if err != nil {
		t.Fatal("item was removed by a below-floor quantity update")
	}
	if got.Quantity != 3 {
		t.Errorf("Quantity = %d, want 3 (unchanged)", got.Quantity)
	}
}

func TestUpdateQuantityNotFound(t *testing.T) {
	c := New()
	if err := c.UpdateQuantity(uuid.New(), 2); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("UpdateQuantity error = %v, want ErrItemNotFound", err)
	}
}

func TestRemoveItem(t *testing.T) {
	c := New()
	p := testProduct()
	keep, _ := c.AddItem(p, 1, nil, "")
	drop, _ := c.AddItem(p, 2, nil, "")

	c.RemoveItem(drop.ID)

	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	if _, err := c.Item(keep.ID); err != nil {
		t.Error("surviving item no longer found")
	}

	// Removing an unknown id is not an error.
	c.RemoveItem(uuid.New())
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1 after removing unknown id", c.Len())
	}
}

func TestEditExtras(t *testing.T) {
	c := New()
	p := testProduct()
	target, _ := c.AddItem(p, 2, []catalog.Extra{p.AvailableExtras[0]}, "old note")
	other, _ := c.AddItem(p, 1, []catalog.Extra{p.AvailableExtras[0]}, "untouched")

	if err := c.EditExtras(target.ID, []catalog.Extra{p.AvailableExtras[1]}, "new note"); err != nil {
		t.Fatalf("EditExtras returned error: %v", err)
	}

	got, _ := c.Item(target.ID)
	if len(got.Extras) != 1 || got.Extras[0].ID != "ex-bacon" {
		t.Errorf("Extras = %v, want single ex-bacon", got.Extras)
	}
	if got.Note != "new note" {
		t.Errorf("Note = %q, want %q", got.Note, "new note")
	}
	if got.Quantity != 2 {
		t.Errorf("Quantity = %d, want 2 (must be untouched)", got.Quantity)
	}

	// The sibling line with the same product is unaffected.
	sibling, _ := c.Item(other.ID)
	if sibling.Note != "untouched" || len(sibling.Extras) != 1 || sibling.Extras[0].ID != "ex-cheese" {
		t.Error("editing one line item mutated another")
	}
}

func TestEditExtrasClears(t *testing.T) {
	c := New()
	p := testProduct()
	item, _ := c.AddItem(p, 1, []catalog.Extra{p.AvailableExtras[0]}, "note")

	if err := c.EditExtras(item.ID, nil, ""); err != nil {
		t.Fatalf("EditExtras returned error: %v", err)
	}
	got, _ := c.Item(item.ID)
	if len(got.Extras) != 0 {
		t.Errorf("Extras = %v, want empty", got.Extras)
	}
	if got.Note != "" {
		t.Errorf("Note = %q, want empty", got.Note)
	}
}

func TestEditExtrasNotFound(t *testing.T) {
	c := New()
	if err := c.EditExtras(uuid.New(), nil, ""); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("EditExtras error = %v, want ErrItemNotFound", err)
	}
}

func TestLineItemUnitPrice(t *testing.T) {
	li := LineItem{
		UnitBasePrice: decimal.NewFromInt(1000),
		Quantity:      2,
		Extras: []catalog.Extra{
			{ID: "a", Price: decimal.NewFromInt(200)},
			{ID: "b", Price: decimal.NewFromInt(300)},
		},
	}

	if got := li.UnitPrice(); !got.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("UnitPrice = %s, want 1500", got)
	}
	if got := li.LineTotal(); !got.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("LineTotal = %s, want 3000", got)
	}
}

func TestLineItemTotalQuantityFloor(t *testing.T) {
	li := LineItem{UnitBasePrice: decimal.NewFromInt(1000), Quantity: 0}
	if got := li.LineTotal(); !got.IsZero() {
		t.Errorf("LineTotal = %s, want 0 for quantity below 1", got)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	c := New()
	p := testProduct()
	item, _ := c.AddItem(p, 1, nil, "")

	items := c.Items()
	items[0].Quantity = 99

	got, _ := c.Item(item.ID)
	if got.Quantity != 1 {
		t.Error("mutating the Items() slice leaked into cart state")
	}
}

func TestClear(t *testing.T) {
	c := New()
	p := testProduct()
	c.AddItem(p, 1, nil, "")
	c.AddItem(p, 2, nil, "")

	c.Clear()

	if !c.IsEmpty() {
		t.Error("expected empty cart after Clear")
	}
}
