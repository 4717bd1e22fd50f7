package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates the HTTP handler with all routes and middleware.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /panoramas", h.CreatePanorama)
	mux.HandleFunc("GET /panoramas", h.ListPanoramas)
	mux.HandleFunc("GET /panoramas/{id}", h.GetPanorama)
	mux.HandleFunc("GET /panoramas/{id}/image", h.GetImage)
	mux.HandleFunc("DELETE /panoramas/{id}", h.CancelPanorama)
	mux.HandleFunc("GET /history", h.ListHistory)
	mux.Handle("GET /metrics", h.metrics.Handler())

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
