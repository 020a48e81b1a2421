package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/scorekeeper/internal/api/handler"
	"github.com/mcoot/scorekeeper/internal/api/middleware"
	"github.com/mcoot/scorekeeper/internal/dependencies/clock"
	"github.com/mcoot/scorekeeper/internal/notify"
	"github.com/mcoot/scorekeeper/internal/services/tracker"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	Tracker       tracker.ControllerInterface
	Hub           *notify.Hub
	Clock         clock.Clock
	RemoteEnabled bool
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.Tracker)
	gameHandler := handler.NewGameHandler(cfg.Tracker)
	transferHandler := handler.NewTransferHandler(cfg.Tracker, cfg.Clock)
	identityHandler := handler.NewIdentityHandler(cfg.Tracker)
	systemHandler := handler.NewSystemHandler(cfg.Tracker, cfg.Hub, cfg.RemoteEnabled)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", systemHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/events", systemHandler.Events).Methods(http.MethodGet)

	// Players
	api.HandleFunc("/players", playerHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/players", playerHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/players/{id}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}/avatar", playerHandler.SetAvatar).Methods(http.MethodPut)
	api.HandleFunc("/players/{id}/manual-total", playerHandler.SetManualTotal).Methods(http.MethodPut)
	api.HandleFunc("/players/{id}/money", playerHandler.SetMoney).Methods(http.MethodPut)
	api.HandleFunc("/rankings", playerHandler.Rankings).Methods(http.MethodGet)

	// Games; fixed paths are registered before /games/{id}
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games", gameHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/games/delete", gameHandler.DeleteMany).Methods(http.MethodPost)
	api.HandleFunc("/games/by-code/{code}", gameHandler.GetByCode).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", gameHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/games/{id}/summary", gameHandler.Summary).Methods(http.MethodGet)

	// Rounds
	api.HandleFunc("/games/{id}/rounds", gameHandler.AddRound).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/rounds/{rid}", gameHandler.UpdateRound).Methods(http.MethodPut)
	api.HandleFunc("/games/{id}/rounds/{rid}", gameHandler.DeleteRound).Methods(http.MethodDelete)
	api.HandleFunc("/games/{id}/rounds/{rid}/scores/{pid}", gameHandler.UpdateScore).Methods(http.MethodPut)

	// Import and export
	api.HandleFunc("/export/json", transferHandler.ExportJSON).Methods(http.MethodGet)
	api.HandleFunc("/export/csv", transferHandler.ExportCSV).Methods(http.MethodGet)
	api.HandleFunc("/import/json", transferHandler.ImportJSON).Methods(http.MethodPost)
	api.HandleFunc("/import/csv", transferHandler.ImportCSV).Methods(http.MethodPost)

	// Identity signal from the external auth provider
	api.HandleFunc("/identity", identityHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/identity", identityHandler.Set).Methods(http.MethodPut)
	api.HandleFunc("/identity", identityHandler.Clear).Methods(http.MethodDelete)

	return r
}
