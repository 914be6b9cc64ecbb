// Package wizard sequences the three-step order flow: build the cart,
// capture customer and fulfillment data, then review and confirm. Each
// session owns its cart, customer and order config exclusively; nothing
// survives a close.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/fogon-pos/api/internal/cart"
	"github.com/fogon-pos/api/internal/catalog"
	"github.com/fogon-pos/api/internal/enum"
	"github.com/fogon-pos/api/internal/order"
	"github.com/fogon-pos/api/internal/pricing"
	"github.com/fogon-pos/api/internal/submit"
)

// Errors returned by wizard transitions.
var (
	ErrClosed         = errors.New("wizard session is closed")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrAtReview       = errors.New("already at review, confirm or go back")
	ErrNotAtReview    = errors.New("submission is only allowed from review")
	ErrSubmitInFlight = errors.New("a submission is already in progress")
)

// OrderFetcher loads a persisted order for edit mode.
type OrderFetcher interface {
	GetOrderByID(ctx context.Context, orderID string) (order.Draft, error)
}

// OrderSubmitter sends the finished payload. Satisfied by
// *submit.Submitter.
type OrderSubmitter interface {
	Submit(ctx context.Context, existingOrderID string, p submit.Payload) (submit.Confirmation, error)
}

// Session is one open order wizard. All methods serialize on an
// internal mutex: the UI is a single user clicking through steps, but
// the HTTP surface must not let two racing requests corrupt the cart.
type Session struct {
	ID uuid.UUID

	mu         sync.Mutex
	step       int
	closed     bool
	submitting bool

	cart     *cart.Cart
	customer order.Customer
	config   order.Config

	// Edit mode: the persisted order being modified.
	orderID       string
	orderNumber   string
	orderStatus   string
	kitchenNotice bool

	calc      *pricing.Calculator
	submitter OrderSubmitter
}

// NewSession opens a wizard for a brand-new order, starting at the
// build-cart step with default order config.
func NewSession(calc *pricing.Calculator, submitter OrderSubmitter) *Session {
	return &Session{
		ID:        uuid.New(),
		step:      enum.StepBuildCart,
		cart:      cart.New(),
		config:    order.DefaultConfig(),
		calc:      calc,
		submitter: submitter,
	}
}

// NewEditSession opens a wizard seeded from a persisted order. The
// session starts at the build-cart step like a new one. If the kitchen
// has already started on the order, the session carries a persistent
// notice, but every edit stays allowed.
func NewEditSession(ctx context.Context, calc *pricing.Calculator, submitter OrderSubmitter, fetcher OrderFetcher, orderID string) (*Session, error) {
	draft, err := fetcher.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}

	s := NewSession(calc, submitter)
	s.orderID = draft.OrderID
	s.orderNumber = draft.OrderNumber
	s.orderStatus = draft.Status
	s.kitchenNotice = enum.InProduction(draft.Status)
	s.customer = draft.Customer
	s.config = draft.Config

	for _, item := range draft.Items {
		extras := make([]catalog.Extra, len(item.Extras))
		for i, ex := range item.Extras {
			extras[i] = catalog.Extra{ID: ex.ID, Name: ex.Name, Price: ex.Price}
		}
		// Rebuild through AddItem so seeded items go through the same
		// construction path as fresh ones. The persisted extras are the
		// offered set here: the catalog may have changed since the
		// order was taken, and the draft must load as it was sold.
		product := catalog.Product{
			ID:              item.ProductID,
			Name:            item.ProductName,
			BasePrice:       item.UnitBasePrice,
			AvailableExtras: extras,
		}
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		if _, err := s.cart.AddItem(product, qty, extras, item.Note); err != nil {
			return nil, fmt.Errorf("seed item %s: %w", item.ProductID, err)
		}
	}

	return s, nil
}

// --- Cart operations ---

// AddItem adds a configured product occurrence to the cart.
func (s *Session) AddItem(product catalog.Product, quantity int, extras []catalog.Extra, note string) (cart.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return cart.LineItem{}, err
	}
	return s.cart.AddItem(product, quantity, extras, note)
}

// UpdateQuantity changes a line item's quantity; below 1 is a no-op.
func (s *Session) UpdateQuantity(itemID uuid.UUID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	return s.cart.UpdateQuantity(itemID, quantity)
}

// RemoveItem deletes a line item; unknown ids are ignored.
func (s *Session) RemoveItem(itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	s.cart.RemoveItem(itemID)
	return nil
}

// EditExtras replaces a line item's extras and note.
func (s *Session) EditExtras(itemID uuid.UUID, extras []catalog.Extra, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	return s.cart.EditExtras(itemID, extras, note)
}

// --- Customer and config ---

// SetCustomer stores the customer data. Validation happens at the 2→3
// transition, not here, so partially filled forms are fine.
func (s *Session) SetCustomer(c order.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	s.customer = c
	return nil
}

// SetConfig stores order-level parameters after validating enum
// membership and discount bounds.
func (s *Session) SetConfig(cfg order.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.config = cfg
	return nil
}

// --- Transitions ---

// Next advances one step. Leaving build-cart requires a non-empty cart;
// leaving customer-data requires name, phone and, for delivery, a
// street. Rejections return the validation error and leave the step
// unchanged.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}

	switch s.step {
	case enum.StepBuildCart:
		if s.cart.IsEmpty() {
			return ErrEmptyCart
		}
		s.step = enum.StepCustomerData
	case enum.StepCustomerData:
		if err := s.customer.Validate(s.config.Fulfillment); err != nil {
			return err
		}
		s.step = enum.StepReview
	default:
		return ErrAtReview
	}
	return nil
}

// Back goes one step toward build-cart. Going back never validates.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	if s.step > enum.StepBuildCart {
		s.step--
	}
	return nil
}

// Submit confirms the order from the review step. State is rebuilt into
// a payload, totals freshly computed, and the submitter invoked with the
// session unlocked so other reads stay responsive. While the submission
// is in flight every mutation is rejected; a second Submit gets
// ErrSubmitInFlight. On success the session closes and all state is
// cleared; on failure the session stays at review with everything
// intact so the user can retry.
func (s *Session) Submit(ctx context.Context) (submit.Confirmation, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return submit.Confirmation{}, ErrClosed
	}
	if s.submitting {
		s.mu.Unlock()
		return submit.Confirmation{}, ErrSubmitInFlight
	}
	if s.step != enum.StepReview {
		s.mu.Unlock()
		return submit.Confirmation{}, ErrNotAtReview
	}
	if s.cart.IsEmpty() {
		s.mu.Unlock()
		return submit.Confirmation{}, ErrEmptyCart
	}
	if err := s.customer.Validate(s.config.Fulfillment); err != nil {
		s.mu.Unlock()
		return submit.Confirmation{}, err
	}

	totals := s.calc.Totals(s.cart, s.config)
	payload := submit.BuildPayload(s.cart, s.customer, s.config, totals)
	orderID := s.orderID
	s.submitting = true
	s.mu.Unlock()

	conf, err := s.submitter.Submit(ctx, orderID, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		return submit.Confirmation{}, err
	}

	s.closed = true
	s.reset()
	return conf, nil
}

// Cancel closes the session and discards all state without submitting.
// Allowed at any step, but not while a submission is in flight: once
// started, a submission runs to success or failure.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if s.submitting {
		return ErrSubmitInFlight
	}
	s.closed = true
	s.reset()
	return nil
}

// --- Reads ---

// View is a point-in-time snapshot of the session for rendering.
type View struct {
	SessionID     uuid.UUID       `json:"session_id"`
	Step          int             `json:"step"`
	Closed        bool            `json:"closed"`
	Submitting    bool            `json:"submitting"`
	EditMode      bool            `json:"edit_mode"`
	OrderID       string          `json:"order_id,omitempty"`
	OrderNumber   string          `json:"order_number,omitempty"`
	OrderStatus   string          `json:"order_status,omitempty"`
	KitchenNotice bool            `json:"kitchen_notice"`
	Items         []cart.LineItem `json:"items"`
	Customer      order.Customer  `json:"customer"`
	Config        order.Config    `json:"config"`
	Totals        order.Totals    `json:"totals"`
}

// Snapshot returns the full session state with totals recomputed from
// the current cart. Totals are derived here on every call; the session
// stores none of them.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		SessionID:     s.ID,
		Step:          s.step,
		Closed:        s.closed,
		Submitting:    s.submitting,
		EditMode:      s.orderID != "",
		OrderID:       s.orderID,
		OrderNumber:   s.orderNumber,
		OrderStatus:   s.orderStatus,
		KitchenNotice: s.kitchenNotice,
		Items:         s.cart.Items(),
		Customer:      s.customer,
		Config:        s.config,
		Totals:        s.calc.Totals(s.cart, s.config),
	}
}

// Item returns a single line item from the session's cart.
func (s *Session) Item(itemID uuid.UUID) (cart.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Item(itemID)
}

// Step returns the current step.
func (s *Session) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Closed reports whether the session has been cancelled or submitted.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Totals recomputes the monetary aggregates for the current state.
func (s *Session) Totals() order.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calc.Totals(s.cart, s.config)
}

// mutable is the gate every mutation passes: closed sessions and
// sessions with a submission in flight reject changes.
func (s *Session) mutable() error {
	if s.closed {
		return ErrClosed
	}
	if s.submitting {
		return ErrSubmitInFlight
	}
	return nil
}

// reset drops cart, customer and config back to defaults. Callers hold
// the lock.
func (s *Session) reset() {
	s.cart.Clear()
	s.customer = order.Customer{}
	s.config = order.DefaultConfig()
	s.step = enum.StepBuildCart
}
