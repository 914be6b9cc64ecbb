package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fogon-pos/api/internal/config"
)

// Client fetches the catalog from the upstream REST service. The
// upstream predates this service and is loose about shapes: categories
// arrive as bare strings or as objects keyed either `id` or
// `categoria_id`, prices as numbers or strings. All of that is absorbed
// here so Provider consumers only ever see normalized records.
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

// ListCategories implements Provider.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var wire []wireCategory
	if err := c.getJSON(ctx, "/categories", &wire); err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(wire))
	for _, wc := range wire {
		if wc.ID == "" {
			continue
		}
		categories = append(categories, Category{ID: wc.ID, Name: wc.Name})
	}
	return categories, nil
}

// ListProducts implements Provider.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var wire []wireProduct
	if err := c.getJSON(ctx, "/products", &wire); err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(wire))
	for _, wp := range wire {
		if wp.ID == "" {
			continue
		}
		products = append(products, wp.normalize())
	}
	return products, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("catalog request failed",
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("catalog returned non-200",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// --- Wire shapes ---

// wireCategory accepts a bare string id, or an object with either
// `id`/`name` or legacy `categoria_id`/`nombre` keys.
type wireCategory struct {
	ID   string
	Name string
}

func (wc *wireCategory) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		wc.ID = s
		wc.Name = s
		return nil
	}

	var obj struct {
		ID          jsonString `json:"id"`
		CategoriaID jsonString `json:"categoria_id"`
		Name        string     `json:"name"`
		Nombre      string     `json:"nombre"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	wc.ID = string(obj.ID)
	if wc.ID == "" {
		wc.ID = string(obj.CategoriaID)
	}
	wc.Name = obj.Name
	if wc.Name == "" {
		wc.Name = obj.Nombre
	}
	if wc.Name == "" {
		wc.Name = wc.ID
	}
	return nil
}

type wireProduct struct {
	ID          jsonString  `json:"id"`
	Name        string      `json:"name"`
	Nombre      string      `json:"nombre"`
	BasePrice   jsonPrice   `json:"base_price"`
	Precio      jsonPrice   `json:"precio"`
	CategoryID  jsonString  `json:"category_id"`
	CategoriaID jsonString  `json:"categoria_id"`
	Image       string      `json:"image"`
	Imagen      string      `json:"imagen"`
	Extras      []wireExtra `json:"extras"`
}

type wireExtra struct {
	ID     jsonString `json:"id"`
	Name   string     `json:"name"`
	Nombre string     `json:"nombre"`
	Price  jsonPrice  `json:"price"`
	Precio jsonPrice  `json:"precio"`
}

func (wp wireProduct) normalize() Product {
	p := Product{
		ID:         string(wp.ID),
		Name:       firstNonEmpty(wp.Name, wp.Nombre),
		CategoryID: firstNonEmpty(string(wp.CategoryID), string(wp.CategoriaID)),
		BasePrice:  decimal.Decimal(wp.BasePrice),
		Image:      firstNonEmpty(wp.Image, wp.Imagen),
	}
	if p.BasePrice.IsZero() {
		p.BasePrice = decimal.Decimal(wp.Precio)
	}
	if p.BasePrice.IsNegative() {
		p.BasePrice = decimal.Zero
	}
	for _, we := range wp.Extras {
		if string(we.ID) == "" {
			continue
		}
		price := decimal.Decimal(we.Price)
		if price.IsZero() {
			price = decimal.Decimal(we.Precio)
		}
		if price.IsNegative() {
			price = decimal.Zero
		}
		p.AvailableExtras = append(p.AvailableExtras, Extra{
			ID:    string(we.ID),
			Name:  firstNonEmpty(we.Name, we.Nombre),
			Price: price,
		})
	}
	return p
}

// jsonString tolerates upstream ids sent as numbers.
type jsonString string

func (js *jsonString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*js = jsonString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*js = jsonString(n.String())
	return nil
}

// jsonPrice tolerates prices sent as numbers or strings.
type jsonPrice decimal.Decimal

func (jp *jsonPrice) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*jp = jsonPrice(decimal.Zero)
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", s, err)
	}
	*jp = jsonPrice(d)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
