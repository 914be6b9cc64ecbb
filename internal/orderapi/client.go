// Package orderapi is the HTTP client for the order service and the
// payment collection endpoint. It implements the collaborator
// interfaces consumed by the wizard and the submission adapter.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fogon-pos/api/internal/config"
	"github.com/fogon-pos/api/internal/order"
	"github.com/fogon-pos/api/internal/submit"
)

// Errors returned by the order API client.
var (
	ErrOrderNotFound = errors.New("order not found")
	ErrRejected      = errors.New("order service rejected the request")
)

// Client talks to the order service. The timeout comes from
// configuration; callers can tighten it further per request through the
// context.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// CreateOrder implements submit.OrderAPI.
func (c *Client) CreateOrder(ctx context.Context, p submit.Payload) (submit.Confirmation, error) {
	var conf submit.Confirmation
	if err := c.doJSON(ctx, http.MethodPost, "/orders", p, &conf); err != nil {
		return submit.Confirmation{}, err
	}
	return conf, nil
}

// UpdateOrder implements submit.OrderAPI.
func (c *Client) UpdateOrder(ctx context.Context, orderID string, p submit.Payload) (submit.Confirmation, error) {
	var conf submit.Confirmation
	if err := c.doJSON(ctx, http.MethodPut, "/orders/"+orderID, p, &conf); err != nil {
		return submit.Confirmation{}, err
	}
	return conf, nil
}

// GetOrderByID implements wizard.OrderFetcher.
func (c *Client) GetOrderByID(ctx context.Context, orderID string) (order.Draft, error) {
	var draft order.Draft
	if err := c.doJSON(ctx, http.MethodGet, "/orders/"+orderID, nil, &draft); err != nil {
		return order.Draft{}, err
	}
	return draft, nil
}

// Collect implements submit.PaymentCollector. The endpoint blocks until
// the payment terminal confirms or declines.
func (c *Client) Collect(ctx context.Context, p submit.Payload) error {
	return c.doJSON(ctx, http.MethodPost, "/payments/collect", p, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("order service request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("order service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrOrderNotFound
	case resp.StatusCode >= 400:
		c.logger.Warn("order service rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, errorMessage(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage pulls the `error` field out of a rejection body, falling
// back to the raw body.
func errorMessage(body []byte) string {
	var wire struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &wire); err == nil && wire.Error != "" {
		return wire.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
