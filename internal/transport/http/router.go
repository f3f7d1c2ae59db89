package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"companion-world/internal/config"
	"companion-world/internal/session"
)

func NewRouter(mgr *session.Manager, cfg config.ServerConfig) *chi.Mux {
	repo := mgr.Repository()
	sessionHandlers := NewSessionHandlers(mgr)
	eventHandlers := NewEventHandlers(mgr)
	publicHandlers := NewPublicHandlers(repo, mgr.Catalog())
	adminHandlers := NewAdminHandlers(repo, mgr)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())
	r.Handle("/metrics", promhttp.HandlerFor(session.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/catalog", publicHandlers.Catalog())

		r.Post("/sessions", sessionHandlers.Open())
		r.Delete("/sessions/{user_id}", sessionHandlers.Close())
		r.Get("/sessions/{user_id}/state", sessionHandlers.State())
		r.Post("/sessions/{user_id}/commands", sessionHandlers.Commands())
		r.Delete("/sessions/{user_id}/agents/{agent_id}", sessionHandlers.RemoveAgent())
		r.Get("/sessions/{user_id}/events", eventHandlers.SSE())
		r.Get("/sessions/{user_id}/ws", eventHandlers.WS())

		r.Get("/users/{user_id}/transactions", publicHandlers.Transactions())
		r.Get("/users/{user_id}/logs", publicHandlers.Logs())

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Get("/stats", adminHandlers.Stats())
			r.Get("/users", adminHandlers.Users())
			r.Get("/agents", adminHandlers.Agents())
			r.Get("/transactions", adminHandlers.Transactions())

			r.Route("/debug", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Get("/vars", expvar.Handler().ServeHTTP)
			})
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
