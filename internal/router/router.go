package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"ytresearch-backend/internal/handlers"
	"ytresearch-backend/internal/middleware"
	"ytresearch-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	videoHandler *handlers.VideoHandler,
	exportHandler *handlers.ExportHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Auth (public, rate limited)
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/token", authHandler.Token)
		})

		// Videos
		r.Route("/videos", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", videoHandler.Ingest)
			r.Post("/batch", videoHandler.BatchIngest)
			r.Get("/", videoHandler.List)
			r.Get("/{videoID}", videoHandler.Get)
			r.Delete("/{videoID}", videoHandler.Delete)
			r.Get("/{videoID}/estimate", videoHandler.Estimate)
		})

		// Research export
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/export", exportHandler.Export)
			r.Get("/stats", videoHandler.Stats)
			r.Get("/quota", videoHandler.Quota)
		})

		// WebSocket progress stream (token via query param)
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
