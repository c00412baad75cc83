package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ciphercircuit/cipher-circuit-backend/internal/auth"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/presence"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/queue"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/session"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/store"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/ws"
)

func SetupRoutes(
	hub *session.Hub,
	st store.Store,
	assigner *queue.Assigner,
	verifier *auth.Verifier,
	reg *presence.Registry,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	// Public routes
	r.Post("/api/auth/login", Login(st, verifier, logger))
	r.Get("/api/leaderboard", Leaderboard(st))
	r.Get("/api/teams", Teams(st))
	r.Get("/api/lookup-table", LookupTable)
	r.Get("/health", Health(st, reg))
	r.Get("/ws", ws.Handler(hub, verifier, reg, logger))

	// Credentialed routes
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(verifier))
		r.Get("/api/team/{teamId}", TeamState(st, assigner))
		r.Get("/api/team/{teamId}/logs", Logs(st))
		r.Get("/api/queue/status", QueueStatus(st))
		r.Get("/api/queue/assignments", QueueAssignments(st))
		r.Post("/api/queue/assign/{teamId}", AssignTeam(assigner))
		r.Post("/api/queue/reset", ResetQueue(st, logger))
	})

	return r
}
