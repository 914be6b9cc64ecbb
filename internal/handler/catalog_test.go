package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fogon-pos/api/internal/catalog"
	"github.com/fogon-pos/api/internal/handler"
)

type flakyProvider struct {
	products []catalog.Product
	fail     bool
	calls    int
}

func (p *flakyProvider) ListCategories(context.Context) ([]catalog.Category, error) {
	p.calls++
	if p.fail {
		return nil, errors.New("upstream down")
	}
	return []catalog.Category{{ID: "cat-1", Name: "Hamburguesas"}}, nil
}

func (p *flakyProvider) ListProducts(context.Context) ([]catalog.Product, error) {
	if p.fail {
		return nil, errors.New("upstream down")
	}
	return p.products, nil
}

func setupCatalogRouter(provider catalog.Provider) *chi.Mux {
	h := handler.NewCatalogHandler(catalog.NewIndex(), provider, zap.NewNop())
	r := chi.NewRouter()
	r.Route("/catalog", h.RegisterRoutes)
	return r
}

func catalogProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "p1", Name: "Hamburguesa Clásica", CategoryID: "cat-1", BasePrice: decimal.NewFromInt(1000)},
		{ID: "p2", Name: "Hamburguesa Doble", CategoryID: "cat-1", BasePrice: decimal.NewFromInt(1400)},
		{ID: "p3", Name: "Limonada", CategoryID: "cat-2", BasePrice: decimal.NewFromInt(300)},
	}
}

func TestListCategoriesLazyLoads(t *testing.T) {
	provider := &flakyProvider{products: catalogProducts()}
	router := setupCatalogRouter(provider)

	rr := doRequest(t, router, http.MethodGet, "/catalog/categories", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (lazy first load)", provider.calls)
	}

	var categories []catalog.Category
	if err := json.NewDecoder(rr.Body).Decode(&categories); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(categories) != 1 || categories[0].ID != "cat-1" {
		t.Errorf("categories = %+v", categories)
	}

	// Second request hits the snapshot, not the upstream.
	doRequest(t, router, http.MethodGet, "/catalog/categories", nil)
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (snapshot reuse)", provider.calls)
	}
}

func TestListProductsFilters(t *testing.T) {
	router := setupCatalogRouter(&flakyProvider{products: catalogProducts()})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"all", "/catalog/products", 3},
		{"by category", "/catalog/products?category=cat-1", 2},
		{"by query", "/catalog/products?q=limonada", 1},
		{"combined", "/catalog/products?category=cat-1&q=doble", 1},
		{"no match returns empty array", "/catalog/products?q=pizza", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, http.MethodGet, tt.path, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			var products []catalog.Product
			if err := json.NewDecoder(rr.Body).Decode(&products); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if len(products) != tt.want {
				t.Errorf("products = %d, want %d", len(products), tt.want)
			}
		})
	}
}

func TestCatalogUnavailable(t *testing.T) {
	router := setupCatalogRouter(&flakyProvider{fail: true})

	rr := doRequest(t, router, http.MethodGet, "/catalog/products", nil)
	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "catalog unavailable" {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestRefreshEndpoint(t *testing.T) {
	provider := &flakyProvider{products: catalogProducts()}
	router := setupCatalogRouter(provider)

	rr := doRequest(t, router, http.MethodPost, "/catalog/refresh", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	// A failed refresh reports upstream trouble but the previously
	// loaded snapshot keeps serving.
	provider.fail = true
	rr = doRequest(t, router, http.MethodPost, "/catalog/refresh", nil)
	if rr.Code != http.StatusBadGateway {
		t.Errorf("refresh status = %d, want 502", rr.Code)
	}

	rr = doRequest(t, router, http.MethodGet, "/catalog/products", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("products status = %d, want 200 from surviving snapshot", rr.Code)
	}
}
