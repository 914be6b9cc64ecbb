// Package submit translates finished wizard state into the order
// service's payload and drives the create/update call, including the
// pay-before-create branch.
package submit

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fogon-pos/api/internal/enum"
)

// ErrPaymentDeclined wraps a payment collaborator rejection on the
// pay-now branch. The order is never created in that case.
var ErrPaymentDeclined = errors.New("payment was not collected")

// Confirmation is what the order service returns for a created or
// updated order.
type Confirmation struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
}

// OrderAPI is the order create/update collaborator.
type OrderAPI interface {
	CreateOrder(ctx context.Context, p Payload) (Confirmation, error)
	UpdateOrder(ctx context.Context, orderID string, p Payload) (Confirmation, error)
}

// PaymentCollector confirms payment for new orders marked PAID before
// the order is created.
type PaymentCollector interface {
	Collect(ctx context.Context, p Payload) error
}

// Submitter sends built payloads to the collaborators.
type Submitter struct {
	api      OrderAPI
	payments PaymentCollector
	logger   *zap.Logger
}

func NewSubmitter(api OrderAPI, payments PaymentCollector, logger *zap.Logger) *Submitter {
	return &Submitter{api: api, payments: payments, logger: logger}
}

// Submit sends the payload. For a brand-new order whose payment status
// is PAID, payment is collected first and order creation only happens
// once the collector confirms; a declined payment aborts without
// creating anything. Pending payments and edits of existing orders go
// straight to the order service.
//
// Errors are returned as-is to the caller: wizard state is the caller's
// to keep, so a failed submission can be retried without re-entering
// anything.
func (s *Submitter) Submit(ctx context.Context, existingOrderID string, p Payload) (Confirmation, error) {
	if existingOrderID != "" {
		conf, err := s.api.UpdateOrder(ctx, existingOrderID, p)
		if err != nil {
			s.logger.Error("order update failed",
				zap.String("order_id", existingOrderID),
				zap.Error(err))
			return Confirmation{}, fmt.Errorf("update order: %w", err)
		}
		return conf, nil
	}

	if p.PaymentStatus == enum.PaymentStatusPaid {
		if err := s.payments.Collect(ctx, p); err != nil {
			s.logger.Warn("payment collection failed", zap.Error(err))
			return Confirmation{}, fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
		}
	}

	conf, err := s.api.CreateOrder(ctx, p)
	if err != nil {
		s.logger.Error("order creation failed", zap.Error(err))
		return Confirmation{}, fmt.Errorf("create order: %w", err)
	}
	return conf, nil
}
