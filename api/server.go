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
	4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
	/api/health           Liveness and database reachability
	/api/groups/*         Groups, members, expenses, balances, settlement
	/api/expenses/*       Expense lookup, deletion, contribution
	/api/settlements/*    Marking recommended payments paid
	/api/scenarios/*      Demo scenarios and database reset
	/*                    Static files (frontend)

STATIC FILE SERVING:
	Serves a built frontend from web/dist/ when present, with index.html
	fallback for client-side routing. Without one, serves a plain HTML
	page listing the API endpoints.

SECURITY NOTE:
	No authentication middleware currently. All endpoints are public.

SEE ALSO:
	- handlers.go: Handler implementations
	- cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

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
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)

		// Group management
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Post("/", h.CreateGroup)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetGroup)
				r.Get("/members", h.ListMembers)
				r.Post("/members", h.AddMember)
				r.Get("/expenses", h.ListExpenses)
				r.Post("/expenses", h.CreateExpense)
				r.Get("/balances", h.GetBalances)
				r.Get("/analytics", h.GetReport)
				r.Post("/settle", h.SettleGroup)
				r.Get("/settlements", h.GetSettlements)
			})
		})

		// Expense lookup by ID
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/{id}", h.GetExpense)
			r.Delete("/{id}", h.DeleteExpense)
			r.Get("/{id}/contribution", h.GetContribution)
		})

		// Settlement payments
		r.Route("/settlements", func(r chi.Router) {
			r.Post("/{id}/pay", h.PaySettlement)
		})

		// Demo scenarios
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	// Serve static files (frontend)
	// First try ./web/dist (development), then relative to the executable
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, r.URL.Path)

			// SPA routing: unknown paths get index.html
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Expensiver</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Expensiver API</h1>
<p>Group expense sharing and debt settlement.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/groups">/api/groups</a> - List groups</li>
<li>POST /api/groups - Create a group with members</li>
<li>POST /api/groups/{id}/expenses - Record an expense</li>
<li>GET /api/groups/{id}/balances - Net balances</li>
<li>POST /api/groups/{id}/settle - Compute a settlement plan</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List demo scenarios</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
