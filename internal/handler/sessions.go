package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fogon-pos/api/internal/cart"
	"github.com/fogon-pos/api/internal/catalog"
	"github.com/fogon-pos/api/internal/enum"
	"github.com/fogon-pos/api/internal/order"
	"github.com/fogon-pos/api/internal/pricing"
	"github.com/fogon-pos/api/internal/submit"
	"github.com/fogon-pos/api/internal/wizard"
	"github.com/fogon-pos/api/internal/ws"
)

// Broadcaster publishes order events to the back office. Satisfied by
// *ws.Hub; narrow interface for testability.
type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

// SessionHandler exposes the order wizard over HTTP. One session per
// open modal; the session serializes its own mutations.
type SessionHandler struct {
	registry  *wizard.Registry
	calc      *pricing.Calculator
	submitter wizard.OrderSubmitter
	fetcher   wizard.OrderFetcher
	index     CatalogIndex
	hub       Broadcaster
	logger    *zap.Logger
}

func NewSessionHandler(
	registry *wizard.Registry,
	calc *pricing.Calculator,
	submitter wizard.OrderSubmitter,
	fetcher wizard.OrderFetcher,
	index CatalogIndex,
	hub Broadcaster,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		registry:  registry,
		calc:      calc,
		submitter: submitter,
		fetcher:   fetcher,
		index:     index,
		hub:       hub,
		logger:    logger,
	}
}

// RegisterRoutes registers wizard session endpoints on the given Chi
// router. Expected mount point: /wizard/sessions
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Open)
	r.Get("/{sid}", h.Get)
	r.Delete("/{sid}", h.Cancel)
	r.Post("/{sid}/items", h.AddItem)
	r.Patch("/{sid}/items/{iid}", h.UpdateQuantity)
	r.Delete("/{sid}/items/{iid}", h.RemoveItem)
	r.Put("/{sid}/items/{iid}/extras", h.EditExtras)
	r.Put("/{sid}/customer", h.SetCustomer)
	r.Put("/{sid}/config", h.SetConfig)
	r.Post("/{sid}/next", h.Next)
	r.Post("/{sid}/back", h.Back)
	r.Get("/{sid}/totals", h.Totals)
	r.Post("/{sid}/submit", h.Submit)
}

// --- Request / Response types ---

type openSessionRequest struct {
	// OrderID switches the wizard to edit mode, seeded from the
	// persisted order.
	OrderID string `json:"order_id"`
}

type addItemRequest struct {
	ProductID string   `json:"product_id"`
	Quantity  int      `json:"quantity"`
	ExtraIDs  []string `json:"extra_ids"`
	Note      string   `json:"note"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type editExtrasRequest struct {
	ExtraIDs []string `json:"extra_ids"`
	Note     string   `json:"note"`
}

type configRequest struct {
	Fulfillment     string     `json:"fulfillment"`
	Channel         string     `json:"channel"`
	Timing          string     `json:"timing"`
	ScheduledTime   *time.Time `json:"scheduled_time"`
	PaymentMethod   string     `json:"payment_method"`
	PaymentStatus   string     `json:"payment_status"`
	DiscountPercent string     `json:"discount_percent"`
}

type sessionResponse struct {
	SessionID     uuid.UUID      `json:"session_id"`
	Step          int            `json:"step"`
	EditMode      bool           `json:"edit_mode"`
	OrderID       string         `json:"order_id,omitempty"`
	OrderNumber   string         `json:"order_number,omitempty"`
	OrderStatus   string         `json:"order_status,omitempty"`
	KitchenNotice bool           `json:"kitchen_notice"`
	Items         []itemResponse `json:"items"`
	Customer      order.Customer `json:"customer"`
	Config        configResponse `json:"config"`
	Totals        totalsResponse `json:"totals"`
}

type itemResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	UnitBasePrice string          `json:"unit_base_price"`
	UnitPrice     string          `json:"unit_price"`
	LineTotal     string          `json:"line_total"`
	Extras        []extraResponse `json:"extras"`
	Note          string          `json:"note,omitempty"`
}

type extraResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type configResponse struct {
	Fulfillment     string     `json:"fulfillment"`
	Channel         string     `json:"channel"`
	Timing          string     `json:"timing"`
	ScheduledTime   *time.Time `json:"scheduled_time,omitempty"`
	PaymentMethod   string     `json:"payment_method"`
	PaymentStatus   string     `json:"payment_status"`
	DiscountPercent string     `json:"discount_percent"`
}

type totalsResponse struct {
	Subtotal    string `json:"subtotal"`
	Discount    string `json:"discount"`
	Tax         string `json:"tax"`
	DeliveryFee string `json:"delivery_fee"`
	Total       string `json:"total"`
}

// --- Handlers ---

// Open handles POST /wizard/sessions. Without an order_id it opens a
// blank wizard; with one it loads the persisted order for editing.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var (
		s   *wizard.Session
		err error
	)
	if req.OrderID != "" {
		s, err = wizard.NewEditSession(r.Context(), h.calc, h.submitter, h.fetcher, req.OrderID)
		if err != nil {
			h.logger.Error("open edit session failed",
				zap.String("order_id", req.OrderID),
				zap.Error(err))
			writeError(w, http.StatusBadGateway, "could not load order for editing")
			return
		}
	} else {
		s = wizard.NewSession(h.calc, h.submitter)
	}

	h.registry.Put(s)
	writeJSON(w, http.StatusCreated, toSessionResponse(s.Snapshot()))
}

// Get handles GET /wizard/sessions/{sid}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s.Snapshot()))
}

// Cancel handles DELETE /wizard/sessions/{sid}. All draft state is
// discarded without submitting.
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Cancel(); err != nil {
		h.respondError(w, err)
		return
	}
	h.registry.Remove(s.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// AddItem handles POST /wizard/sessions/{sid}/items.
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.index.ProductByID(req.ProductID)
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	extras, err := resolveExtras(product, req.ExtraIDs)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if _, err := s.AddItem(product, req.Quantity, extras, req.Note); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(s.Snapshot()))
}

// UpdateQuantity handles PATCH /wizard/sessions/{sid}/items/{iid}.
// Quantities below 1 leave the item untouched; deleting is its own
// endpoint.
func (h *SessionHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.UpdateQuantity(itemID, req.Quantity); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s.Snapshot()))
}

// RemoveItem handles DELETE /wizard/sessions/{sid}/items/{iid}.
func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}

	if err := s.RemoveItem(itemID); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s.Snapshot()))
}

// EditExtras handles PUT /wizard/sessions/{sid}/items/{iid}/extras.
// The extras list and note are replaced in full.
func (h *SessionHandler) EditExtras(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var req editExtrasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := s.Item(itemID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	product, err := h.index.ProductByID(item.ProductID)
	if err != nil {
		// Edit-mode items can reference products since retired from
		// the catalog; their extras can no longer be reconfigured.
		writeError(w, http.StatusConflict, "product no longer in catalog")
		return
	}
	extras, err := resolveExtras(product, req.ExtraIDs)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := s.EditExtras(itemID, extras, req.Note); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s.Snapshot()))
}

// SetCustomer handles PUT /wizard/sessions/{sid}/customer. Partial data
// is accepted; validation happens when leaving the customer-data step.
func (h *SessionHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var cust order.Customer
	if err := json.NewDecoder(r.Body).Decode(&cust); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.SetCustomer(cust); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s.Snapshot()))
}

// SetConfig handles PUT /wizard/sessions/{sid}/config.
func (h *SessionHandler) SetConfig(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	discount := decimal.Zero
	if req.DiscountPercent != "" {
		var err error
		discount, err = decimal.NewFromString(req.DiscountPercent)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid discount_percent")
			return
		}
	}

	cfg := order.Config{
		Fulfillment:     req.Fulfillment,
		Channel:         req.Channel,
		Timing:          req.Timing,
		ScheduledTime:   req.ScheduledTime,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   req.PaymentStatus,
		DiscountPercent: discount,
	}
	if err := s.SetConfig(cfg); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s.Snapshot()))
}

// Next handles POST /wizard/sessions/{sid}/next.
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Next(); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s.Snapshot()))
}

// Back handles POST /wizard/sessions/{sid}/back. Never validates.
func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Back(); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s.Snapshot()))
}

// Totals handles GET /wizard/sessions/{sid}/totals. Totals are always
// recomputed from current cart state, never read from a cache.
func (h *SessionHandler) Totals(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toTotalsResponse(s.Totals()))
}

// Submit handles POST /wizard/sessions/{sid}/submit. On success the
// session is closed and removed; on failure it stays at review with all
// state intact so the user can retry.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	snap := s.Snapshot()
	if !snap.EditMode && snap.Config.PaymentStatus == enum.PaymentStatusPaid && readyToSubmit(snap) {
		h.hub.Broadcast(ws.EventPaymentRequired, map[string]string{
			"session_id": s.ID.String(),
			"total":      snap.Totals.Total.StringFixed(2),
		})
	}
	conf, err := s.Submit(r.Context())
	if err != nil {
		if isWizardStateError(err) {
			h.respondError(w, err)
			return
		}
		if errors.Is(err, submit.ErrPaymentDeclined) {
			h.hub.Broadcast(ws.EventSubmitFailed, map[string]string{
				"session_id": s.ID.String(),
				"error":      "payment declined",
			})
			writeError(w, http.StatusPaymentRequired, "payment was not collected")
			return
		}
		h.logger.Error("submission failed",
			zap.String("session_id", s.ID.String()),
			zap.Error(err))
		h.hub.Broadcast(ws.EventSubmitFailed, map[string]string{
			"session_id": s.ID.String(),
			"error":      "order service rejected the order",
		})
		writeError(w, http.StatusBadGateway, "order service rejected the order, draft preserved")
		return
	}

	eventType := ws.EventOrderSubmitted
	if snap.EditMode {
		eventType = ws.EventOrderUpdated
	}
	h.hub.Broadcast(eventType, map[string]string{
		"order_id":     conf.OrderID,
		"order_number": conf.OrderNumber,
		"status":       conf.Status,
		"total":        snap.Totals.Total.StringFixed(2),
	})

	h.registry.Remove(s.ID)
	writeJSON(w, http.StatusOK, conf)
}

// --- Helpers ---

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	sid, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return nil, false
	}
	s, ok := h.registry.Get(sid)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	iid, err := uuid.Parse(chi.URLParam(r, "iid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return uuid.Nil, false
	}
	return iid, true
}

// respondError maps known errors to HTTP statuses: validation problems
// are 400, missing items 404, state conflicts 409, closed sessions 410.
func (h *SessionHandler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, wizard.ErrClosed):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, wizard.ErrSubmitInFlight),
		errors.Is(err, wizard.ErrAtReview),
		errors.Is(err, wizard.ErrNotAtReview):
		writeError(w, http.StatusConflict, err.Error())
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("wizard operation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// isValidationError checks if the error is a known validation error
// that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, cart.ErrInvalidQuantity) ||
		errors.Is(err, cart.ErrExtraNotOffered) ||
		errors.Is(err, wizard.ErrEmptyCart) ||
		errors.Is(err, order.ErrNameRequired) ||
		errors.Is(err, order.ErrPhoneRequired) ||
		errors.Is(err, order.ErrStreetRequired) ||
		errors.Is(err, order.ErrInvalidFulfillment) ||
		errors.Is(err, order.ErrInvalidChannel) ||
		errors.Is(err, order.ErrInvalidTiming) ||
		errors.Is(err, order.ErrScheduledTimeRequired) ||
		errors.Is(err, order.ErrInvalidPaymentMethod) ||
		errors.Is(err, order.ErrInvalidPaymentStatus) ||
		errors.Is(err, order.ErrInvalidDiscount)
}

// readyToSubmit mirrors the session's own submit gates. Payment events
// are only pushed for a call the session will accept.
func readyToSubmit(v wizard.View) bool {
	return v.Step == enum.StepReview &&
		!v.Closed &&
		!v.Submitting &&
		len(v.Items) > 0 &&
		v.Customer.Validate(v.Config.Fulfillment) == nil
}

// isWizardStateError reports whether a submit failure came from the
// wizard's own gates rather than from the collaborators.
func isWizardStateError(err error) bool {
	return errors.Is(err, wizard.ErrClosed) ||
		errors.Is(err, wizard.ErrSubmitInFlight) ||
		errors.Is(err, wizard.ErrNotAtReview) ||
		isValidationError(err)
}

func resolveExtras(product catalog.Product, extraIDs []string) ([]catalog.Extra, error) {
	extras := make([]catalog.Extra, 0, len(extraIDs))
	for _, id := range extraIDs {
		found := false
		for _, ex := range product.AvailableExtras {
			if ex.ID == id {
				extras = append(extras, ex)
				found = true
				break
			}
		}
		if !found {
			return nil, cart.ErrExtraNotOffered
		}
	}
	return extras, nil
}

func toSessionResponse(v wizard.View) sessionResponse {
	resp := sessionResponse{
		SessionID:     v.SessionID,
		Step:          v.Step,
		EditMode:      v.EditMode,
		OrderID:       v.OrderID,
		OrderNumber:   v.OrderNumber,
		OrderStatus:   v.OrderStatus,
		KitchenNotice: v.KitchenNotice,
		Customer:      v.Customer,
		Config: configResponse{
			Fulfillment:     v.Config.Fulfillment,
			Channel:         v.Config.Channel,
			Timing:          v.Config.Timing,
			ScheduledTime:   v.Config.ScheduledTime,
			PaymentMethod:   v.Config.PaymentMethod,
			PaymentStatus:   v.Config.PaymentStatus,
			DiscountPercent: v.Config.DiscountPercent.StringFixed(2),
		},
		Totals: toTotalsResponse(v.Totals),
	}

	resp.Items = make([]itemResponse, len(v.Items))
	for i, item := range v.Items {
		ir := itemResponse{
			ID:            item.ID,
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Quantity:      item.Quantity,
			UnitBasePrice: item.UnitBasePrice.StringFixed(2),
			UnitPrice:     item.UnitPrice().StringFixed(2),
			LineTotal:     item.LineTotal().StringFixed(2),
			Note:          item.Note,
			Extras:        make([]extraResponse, len(item.Extras)),
		}
		for j, ex := range item.Extras {
			ir.Extras[j] = extraResponse{
				ID:    ex.ID,
				Name:  ex.Name,
				Price: ex.Price.StringFixed(2),
			}
		}
		resp.Items[i] = ir
	}

	return resp
}

func toTotalsResponse(t order.Totals) totalsResponse {
	return totalsResponse{
		Subtotal:    t.Subtotal.StringFixed(2),
		Discount:    t.Discount.StringFixed(2),
		Tax:         t.Tax.StringFixed(2),
		DeliveryFee: t.DeliveryFee.StringFixed(2),
		Total:       t.Total.StringFixed(2),
	}
}
