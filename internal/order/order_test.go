package order

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fogon-pos/api/internal/enum"
)

func TestCustomerValidate(t *testing.T) {
	tests := []struct {
		name        string
		customer    Customer
		fulfillment string
		wantErr     error
	}{
		{
			name:        "valid pickup",
			customer:    Customer{Name: "Ana", Phone: "115555"},
			fulfillment: enum.FulfillmentPickup,
		},
		{
			name:        "missing name",
			customer:    Customer{Phone: "115555"},
			fulfillment: enum.FulfillmentPickup,
			wantErr:     ErrNameRequired,
		},
		{
			name:        "whitespace name",
			customer:    Customer{Name: "   ", Phone: "115555"},
			fulfillment: enum.FulfillmentPickup,
			wantErr:     ErrNameRequired,
		},
		{
			name:        "missing phone",
			customer:    Customer{Name: "Ana"},
			fulfillment: enum.FulfillmentPickup,
			wantErr:     ErrPhoneRequired,
		},
		{
			name:        "delivery without street",
			customer:    Customer{Name: "Ana", Phone: "115555"},
			fulfillment: enum.FulfillmentDelivery,
			wantErr:     ErrStreetRequired,
		},
		{
			name: "delivery with street",
			customer: Customer{
				Name:    "Ana",
				Phone:   "115555",
				Address: Address{Street: "Av. Corrientes 1234"},
			},
			fulfillment: enum.FulfillmentDelivery,
		},
		{
			name:        "pickup ignores missing address",
			customer:    Customer{Name: "Ana", Phone: "115555"},
			fulfillment: enum.FulfillmentPickup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.customer.Validate(tt.fulfillment)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults are valid", func(*Config) {}, nil},
		{"bad fulfillment", func(c *Config) { c.Fulfillment = "DRONE" }, ErrInvalidFulfillment},
		{"bad channel", func(c *Config) { c.Channel = "FAX" }, ErrInvalidChannel},
		{"bad timing", func(c *Config) { c.Timing = "LATER" }, ErrInvalidTiming},
		{"scheduled without time", func(c *Config) { c.Timing = enum.TimingScheduled }, ErrScheduledTimeRequired},
		{"scheduled with time", func(c *Config) {
			c.Timing = enum.TimingScheduled
			c.ScheduledTime = &now
		}, nil},
		{"bad payment method", func(c *Config) { c.PaymentMethod = "IOU" }, ErrInvalidPaymentMethod},
		{"bad payment status", func(c *Config) { c.PaymentStatus = "MAYBE" }, ErrInvalidPaymentStatus},
		{"negative discount", func(c *Config) { c.DiscountPercent = decimal.NewFromInt(-1) }, ErrInvalidDiscount},
		{"discount over 100", func(c *Config) { c.DiscountPercent = decimal.NewFromInt(101) }, ErrInvalidDiscount},
		{"discount at 100", func(c *Config) { c.DiscountPercent = decimal.NewFromInt(100) }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
