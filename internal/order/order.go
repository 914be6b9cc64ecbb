// Package order holds the order-level aggregates shared by the wizard,
// the pricing calculator and the submission adapter.
package order

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fogon-pos/api/internal/enum"
)

// Errors returned by order validation.
var (
	ErrNameRequired          = errors.New("customer name is required")
	ErrPhoneRequired         = errors.New("customer phone is required")
	ErrStreetRequired        = errors.New("delivery address street is required")
	ErrInvalidFulfillment    = errors.New("invalid fulfillment type")
	ErrInvalidChannel        = errors.New("invalid channel")
	ErrInvalidTiming         = errors.New("invalid timing")
	ErrScheduledTimeRequired = errors.New("scheduled_time is required for scheduled orders")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrInvalidPaymentStatus  = errors.New("invalid payment status")
	ErrInvalidDiscount       = errors.New("discount percent must be between 0 and 100")
)

// Address is required only for delivery orders.
type Address struct {
	Street   string `json:"street"`
	Number   string `json:"number"`
	Building string `json:"building"`
	Unit     string `json:"unit"`
	Notes    string `json:"notes"`
}

// Customer is the person the order is for.
type Customer struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   string  `json:"email"`
	Address Address `json:"address"`
}

// Validate checks the fields required to leave the customer-data step.
// Address is checked only when fulfillment is delivery.
func (c Customer) Validate(fulfillment string) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(c.Phone) == "" {
		return ErrPhoneRequired
	}
	if fulfillment == enum.FulfillmentDelivery && strings.TrimSpace(c.Address.Street) == "" {
		return ErrStreetRequired
	}
	return nil
}

// Config carries the order-level parameters that shape pricing and
// submission.
type Config struct {
	Fulfillment     string          `json:"fulfillment"`
	Channel         string          `json:"channel"`
	Timing          string          `json:"timing"`
	ScheduledTime   *time.Time      `json:"scheduled_time,omitempty"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   string          `json:"payment_status"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// DefaultConfig is the state a fresh wizard starts from.
func DefaultConfig() Config {
	return Config{
		Fulfillment:   enum.FulfillmentPickup,
		Channel:       enum.ChannelCounter,
		Timing:        enum.TimingASAP,
		PaymentMethod: enum.PaymentMethodCash,
		PaymentStatus: enum.PaymentStatusPending,
	}
}

// Validate checks enum membership and discount bounds.
func (c Config) Validate() error {
	if !enum.ValidFulfillment(c.Fulfillment) {
		return ErrInvalidFulfillment
	}
	if !enum.ValidChannel(c.Channel) {
		return ErrInvalidChannel
	}
	if !enum.ValidTiming(c.Timing) {
		return ErrInvalidTiming
	}
	if c.Timing == enum.TimingScheduled && c.ScheduledTime == nil {
		return ErrScheduledTimeRequired
	}
	if !enum.ValidPaymentMethod(c.PaymentMethod) {
		return ErrInvalidPaymentMethod
	}
	if !enum.ValidPaymentStatus(c.PaymentStatus) {
		return ErrInvalidPaymentStatus
	}
	if c.DiscountPercent.IsNegative() || c.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidDiscount
	}
	return nil
}

// Totals is the set of monetary aggregates derived from a cart and a
// Config. Always recomputed, never stored on the cart.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

// Draft identifies a persisted order being edited.
type Draft struct {
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	Status      string      `json:"status"`
	Customer    Customer    `json:"customer"`
	Config      Config      `json:"config"`
	Items       []DraftItem `json:"items"`
}

// DraftItem is a persisted line item as returned by the order service.
type DraftItem struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	UnitBasePrice decimal.Decimal `json:"unit_base_price"`
	Quantity      int             `json:"quantity"`
	Extras        []DraftExtra    `json:"extras"`
	Note          string          `json:"note"`
}

// DraftExtra is a persisted extra on a draft item.
type DraftExtra struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}
