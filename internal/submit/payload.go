package submit

import (
	"time"

	"github.com/fogon-pos/api/internal/cart"
	"github.com/fogon-pos/api/internal/enum"
	"github.com/fogon-pos/api/internal/order"
)

// Payload is the JSON body sent to the order service. Money travels as
// fixed two-decimal strings, never floats.
type Payload struct {
	Fulfillment   string     `json:"fulfillment"`
	Channel       string     `json:"channel"`
	Timing        string     `json:"timing"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
	PaymentMethod string     `json:"payment_method"`
	PaymentStatus string     `json:"payment_status"`

	Customer PayloadCustomer `json:"customer"`
	Address  *order.Address  `json:"address,omitempty"`
	Items    []PayloadItem   `json:"items"`

	DiscountPercent string `json:"discount_percent"`
	Subtotal        string `json:"subtotal"`
	Discount        string `json:"discount"`
	Tax             string `json:"tax"`
	DeliveryFee     string `json:"delivery_fee"`
	Total           string `json:"total"`
}

// PayloadCustomer is the customer block without the address, which is
// attached at the top level only for delivery orders.
type PayloadCustomer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// PayloadItem is a flattened line item: unit price already includes the
// selected extras.
type PayloadItem struct {
	ProductID   string         `json:"product_id"`
	ProductName string         `json:"product_name"`
	Quantity    int            `json:"quantity"`
	UnitPrice   string         `json:"unit_price"`
	Subtotal    string         `json:"subtotal"`
	Extras      []PayloadExtra `json:"extras,omitempty"`
	Note        string         `json:"note,omitempty"`
}

// PayloadExtra records which extras were selected, for the kitchen
// ticket; their prices are already folded into the item's unit price.
type PayloadExtra struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// BuildPayload flattens the wizard state into the order service's
// format. The address travels only on delivery orders.
func BuildPayload(c *cart.Cart, cust order.Customer, cfg order.Config, totals order.Totals) Payload {
	p := Payload{
		Fulfillment:   cfg.Fulfillment,
		Channel:       cfg.Channel,
		Timing:        cfg.Timing,
		ScheduledTime: cfg.ScheduledTime,
		PaymentMethod: cfg.PaymentMethod,
		PaymentStatus: cfg.PaymentStatus,
		Customer: PayloadCustomer{
			Name:  cust.Name,
			Phone: cust.Phone,
			Email: cust.Email,
		},
		DiscountPercent: cfg.DiscountPercent.StringFixed(2),
		Subtotal:        totals.Subtotal.StringFixed(2),
		Discount:        totals.Discount.StringFixed(2),
		Tax:             totals.Tax.StringFixed(2),
		DeliveryFee:     totals.DeliveryFee.StringFixed(2),
		Total:           totals.Total.StringFixed(2),
	}

	if cfg.Fulfillment == enum.FulfillmentDelivery {
		addr := cust.Address
		p.Address = &addr
	}

	items := c.Items()
	p.Items = make([]PayloadItem, len(items))
	for i, item := range items {
		pi := PayloadItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice().StringFixed(2),
			Subtotal:    item.LineTotal().StringFixed(2),
			Note:        item.Note,
		}
		for _, ex := range item.Extras {
			pi.Extras = append(pi.Extras, PayloadExtra{
				ID:    ex.ID,
				Name:  ex.Name,
				Price: ex.Price.StringFixed(2),
			})
		}
		p.Items[i] = pi
	}

	return p
}
