// Package pricing derives the monetary aggregates for a draft order.
// Totals are pure functions of (cart, order config): nothing here is
// cached, so totals can never drift from cart state.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/fogon-pos/api/internal/cart"
	"github.com/fogon-pos/api/internal/enum"
	"github.com/fogon-pos/api/internal/order"
)

var hundred = decimal.NewFromInt(100)

// FeeLookup supplies the delivery fee for an order. The fee schedule
// itself lives upstream; the calculator just adds whatever comes back.
type FeeLookup interface {
	DeliveryFee(cfg order.Config) decimal.Decimal
}

// FlatFee is a FeeLookup charging a fixed amount per delivery.
type FlatFee struct {
	Amount decimal.Decimal
}

func (f FlatFee) DeliveryFee(order.Config) decimal.Decimal {
	return f.Amount
}

// Calculator computes order totals. The tax rate is injected from
// configuration because it varies by jurisdiction.
type Calculator struct {
	taxRatePercent decimal.Decimal
	fees           FeeLookup
}

func NewCalculator(taxRatePercent decimal.Decimal, fees FeeLookup) *Calculator {
	if taxRatePercent.IsNegative() {
		taxRatePercent = decimal.Zero
	}
	if fees == nil {
		fees = FlatFee{Amount: decimal.Zero}
	}
	return &Calculator{taxRatePercent: taxRatePercent, fees: fees}
}

// Totals recomputes every aggregate from scratch. Carts are small
// (human-entered orders), so there is nothing to memoize.
//
//	subtotal = Σ quantity × (unit base price + Σ extras)
//	discount = subtotal × discountPercent / 100
//	tax      = subtotal × taxRate / 100
//	fee      = delivery fee, zero for pickup
//	total    = subtotal − discount + tax + fee
func (calc *Calculator) Totals(c *cart.Cart, cfg order.Config) order.Totals {
	subtotal := calc.Subtotal(c)
	discount := calc.Discount(subtotal, cfg.DiscountPercent)
	tax := calc.Tax(subtotal)
	fee := calc.Fee(cfg)

	total := subtotal.Sub(discount).Add(tax).Add(fee)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return order.Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		Tax:         tax,
		DeliveryFee: fee,
		Total:       total,
	}
}

// Subtotal sums the line totals. Malformed lines (quantity < 1) count
// as zero rather than poisoning the sum.
func (calc *Calculator) Subtotal(c *cart.Cart) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.Items() {
		lineTotal := item.LineTotal()
		if lineTotal.IsNegative() {
			continue
		}
		subtotal = subtotal.Add(lineTotal)
	}
	return subtotal
}

// Discount applies percent to subtotal, rounded to currency precision
// and clamped so it never exceeds the subtotal. Percentages outside
// [0,100] are clamped into range.
func (calc *Calculator) Discount(subtotal, percent decimal.Decimal) decimal.Decimal {
	if percent.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if percent.GreaterThan(hundred) {
		percent = hundred
	}
	discount := subtotal.Mul(percent).Div(hundred).Round(2)
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount
}

// Tax applies the configured rate to the subtotal.
func (calc *Calculator) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(calc.taxRatePercent).Div(hundred).Round(2)
}

// Fee returns the delivery fee for delivery orders and zero otherwise.
func (calc *Calculator) Fee(cfg order.Config) decimal.Decimal {
	if cfg.Fulfillment != enum.FulfillmentDelivery {
		return decimal.Zero
	}
	fee := calc.fees.DeliveryFee(cfg)
	if fee.IsNegative() {
		return decimal.Zero
	}
	return fee
}
