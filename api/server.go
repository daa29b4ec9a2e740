/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the mobile dev client

ROUTE GROUPS:
  /api/sessions/*   Journey sessions (state, forms, pricing, submit)
  /api/addons       Standard add-on catalog

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:8081", "http://localhost:19006"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/addons", h.GetAddonCatalog)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetState)
				r.Delete("/", h.DeleteSession)

				r.Post("/selection", h.UpdateSelection)
				r.Post("/vehicle", h.UpdateVehicle)
				r.Post("/pricing-inputs", h.UpdatePricingInputs)
				r.Post("/client", h.UpdateClient)
				r.Post("/step", h.SetStep)
				r.Post("/undo", h.Undo)
				r.Post("/redo", h.Redo)
				r.Post("/reset", h.Reset)

				r.Post("/premium", h.RequestPremium)
				r.Post("/premium/now", h.CalculatePremiumNow)
				r.Post("/comparison", h.Compare)
				r.Get("/underwriters", h.LoadUnderwriters)
				r.Post("/underwriter", h.SelectUnderwriter)
				r.Post("/submit", h.Submit)

				r.Get("/addons", h.GetApplicableAddons)
				r.Post("/addons", h.SelectAddons)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
