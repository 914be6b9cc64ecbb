package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fogon-pos/api/internal/catalog"
)

// CatalogIndex defines the catalog methods needed by catalog handlers.
// Satisfied by *catalog.Index; narrow interface for testability.
type CatalogIndex interface {
	Loaded() bool
	Categories() []catalog.Category
	Products(categoryID, query string) []catalog.Product
	ProductByID(id string) (catalog.Product, error)
	Refresh(ctx context.Context, p catalog.Provider) error
}

// CatalogHandler serves the product grid for the build-cart step.
type CatalogHandler struct {
	index    CatalogIndex
	provider catalog.Provider
	logger   *zap.Logger
}

func NewCatalogHandler(index CatalogIndex, provider catalog.Provider, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{index: index, provider: provider, logger: logger}
}

// RegisterRoutes registers catalog endpoints on the given Chi router.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Get("/products", h.ListProducts)
	r.Post("/refresh", h.Refresh)
}

// ListCategories handles GET /catalog/categories.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.index.Categories())
}

// ListProducts handles GET /catalog/products?category=&q=.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(w, r) {
		return
	}
	products := h.index.Products(
		r.URL.Query().Get("category"),
		r.URL.Query().Get("q"),
	)
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// Refresh handles POST /catalog/refresh.
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.index.Refresh(r.Context(), h.provider); err != nil {
		h.logger.Error("catalog refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// ensureLoaded lazily loads the catalog on first use. A failed load is
// an inline error state for the grid; it never touches any open cart.
func (h *CatalogHandler) ensureLoaded(w http.ResponseWriter, r *http.Request) bool {
	if h.index.Loaded() {
		return true
	}
	if err := h.index.Refresh(r.Context(), h.provider); err != nil {
		h.logger.Error("catalog load failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "catalog unavailable")
		return false
	}
	return true
}
