package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/fogon-pos/api/internal/catalog"
	"github.com/fogon-pos/api/internal/config"
	"github.com/fogon-pos/api/internal/handler"
	"github.com/fogon-pos/api/internal/pricing"
	"github.com/fogon-pos/api/internal/wizard"
	"github.com/fogon-pos/api/internal/ws"
)

// Deps holds the shared collaborators the routes are built from.
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Index     *catalog.Index
	Provider  catalog.Provider
	Calc      *pricing.Calculator
	Registry  *wizard.Registry
	Submitter wizard.OrderSubmitter
	Fetcher   wizard.OrderFetcher
	Hub       *ws.Hub
}

// New creates a Chi router with all application routes wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// WebSocket route for back-office order events
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, d.Logger, w, r)
	})

	catalogHandler := handler.NewCatalogHandler(d.Index, d.Provider, d.Logger)
	r.Route("/catalog", catalogHandler.RegisterRoutes)

	sessionHandler := handler.NewSessionHandler(
		d.Registry,
		d.Calc,
		d.Submitter,
		d.Fetcher,
		d.Index,
		d.Hub,
		d.Logger,
	)
	r.Route("/wizard/sessions", sessionHandler.RegisterRoutes)

	return r
}
