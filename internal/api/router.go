package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/soltown/promenade/internal/api/response"
	"github.com/soltown/promenade/internal/game"
	"github.com/soltown/promenade/internal/middleware"
	"github.com/soltown/promenade/internal/storage"
)

// RouterConfig holds configuration for the HTTP router
type RouterConfig struct {
	Logger           *slog.Logger
	Registry         *game.Registry
	Storage          storage.Storage
	WSHandler        http.Handler
	LeaderboardLimit int
}

// NewRouter creates the HTTP router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler))

	// The game socket; no request logging here, connections are long-lived
	r.Handle("/ws", cfg.WSHandler).Methods(http.MethodGet)

	r.HandleFunc("/healthz", healthHandler(cfg.Storage)).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Logging(cfg.Logger))
	api.HandleFunc("/leaderboard", leaderboardHandler(cfg.Registry, cfg.LeaderboardLimit)).Methods(http.MethodGet)

	return r
}

func healthHandler(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func leaderboardHandler(registry *game.Registry, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				response.JSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}

		entries := registry.Leaderboard(r.Context(), limit)
		response.JSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
	}
}
