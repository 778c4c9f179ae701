package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ytresearch-backend/internal/config"
	"ytresearch-backend/internal/database"
	"ytresearch-backend/internal/handlers"
	"ytresearch-backend/internal/middleware"
	"ytresearch-backend/internal/pipeline"
	"ytresearch-backend/internal/repository"
	"ytresearch-backend/internal/router"
	"ytresearch-backend/internal/services"
	"ytresearch-backend/internal/websocket"
	"ytresearch-backend/internal/worker"
	"ytresearch-backend/migrations"
)

func main() {
	log.Println("🚀 Starting YouTube Research Backend...")

	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	if err := database.RunMigrations(pool, migrations.FS); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	videoRepo := repository.NewVideoRepo(pool)
	transcriptRepo := repository.NewTranscriptRepo(pool)
	motifRepo := repository.NewMotifRepo(pool)

	motifCoder, err := services.NewMotifCoder(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxTranscriptChars, cfg.GeminiConcurrentReqs)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer motifCoder.Close()
	log.Printf("✓ Gemini client initialized (%s)", cfg.GeminiModel)

	// The authenticated YouTube strategy is optional: without usable
	// credentials the pipeline runs on the scrape strategy alone.
	var ytData *services.YouTubeDataService
	provider := services.NewFileCredentialProvider(cfg.YouTubeCredentialsPath, cfg.YouTubeTokenPath)
	if svc, err := provider.AuthorizedService(context.Background()); err != nil {
		log.Printf("⚠ YouTube Data API unavailable (%v), using unauthenticated access only", err)
	} else {
		ytData = services.NewYouTubeDataService(svc)
		log.Println("✓ YouTube Data API client authorized")
	}

	scrape := services.NewScrapeTranscriptService()

	var official services.CaptionAcquirer
	var quota pipeline.QuotaReader
	metadata := services.MetadataFetcher(services.NewWatchPageMetadataService())
	if ytData != nil {
		official = ytData
		quota = ytData
		metadata = &services.FallbackMetadataFetcher{Primary: ytData, Secondary: metadata}
	}
	captions := services.NewFallbackAcquirer(cfg.CaptionSourceOrder, official, scrape)

	pipe := pipeline.New(videoRepo, transcriptRepo, motifRepo, metadata, captions, motifCoder, quota)

	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)

	authHandler := handlers.NewAuthHandler(jwtAuth, cfg.OperatorKeyHash)
	videoHandler := handlers.NewVideoHandler(videoRepo, transcriptRepo, motifRepo, pipe, redisClients.Queue, motifCoder, quota)
	exportHandler := handlers.NewExportHandler(videoRepo, transcriptRepo, motifRepo)

	ingestWorker := worker.New(redisClients.Queue, pipe)
	ingestWorker.Start()
	log.Println("✓ Ingestion worker started")

	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	r := router.New(jwtAuth, authHandler, videoHandler, exportHandler, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		// Synchronous batch ingestion holds the response open while each
		// video runs through the remote APIs.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ingestWorker.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ YouTube Research Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
