package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"newsagg/internal/aggregator"
	"newsagg/internal/api"
	"newsagg/internal/auth"
	"newsagg/internal/cache"
	"newsagg/internal/config"
	"newsagg/internal/ingest"
	"newsagg/internal/provider"
	"newsagg/internal/scheduler"
	"newsagg/internal/storage"

	_ "newsagg/docs"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize cache for hot listing data
	cacheManager := cache.NewManager(cfg.CacheTTL)

	// Initialize persistent storage
	store, err := storage.NewStorage(cfg.DataDir)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	// Clean up old articles based on retention policy
	log.Printf("Cleaning up articles older than %d days", cfg.RetentionDays)
	if deleted, err := store.DeleteOlderThan(cfg.RetentionDays); err != nil {
		log.Printf("Warning: failed to cleanup old articles: %v", err)
	} else if deleted > 0 {
		log.Printf("Startup cleanup deleted %d articles", deleted)
	}

	// Initialize provider adapters and the aggregator
	registry := provider.NewRegistry(cfg)
	agg := aggregator.New(registry.All(), cfg.EnabledSources())

	// Initialize the ingestion service and background scheduler
	ingestService := ingest.New(agg, store, cacheManager, cfg.ArticlesPerSource)
	sched := scheduler.New(ingestService, cfg.FetchInterval, cfg.CleanupInterval, cfg.RetentionDays)
	sched.Start()

	// Initialize auth and the API server
	if cfg.JWTSecret == "" {
		log.Printf("Warning: JWT_SECRET is empty, issued tokens are not safe for production")
	}
	authService := auth.NewService(store, cfg.JWTSecret, cfg.JWTTTL)
	server := api.NewServer(store, agg, ingestService, sched, authService, cacheManager, cfg)

	log.Printf("Starting News Aggregator server on port %d", cfg.Port)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Cache TTL: %v", cfg.CacheTTL)
	log.Printf("Article retention: %d days", cfg.RetentionDays)
	log.Printf("Fetch interval: %v", cfg.FetchInterval)
	log.Printf("Enabled sources: %v", cfg.EnabledSources())

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Create a context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start signal handler in goroutine
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping services...")
		sched.Stop()
		cancel()
	}()

	// Start the server with context for graceful shutdown
	if err := server.StartWithContext(ctx); err != nil && err != context.Canceled {
		log.Fatal("Failed to start server:", err)
	}

	if err := store.Close(); err != nil {
		log.Printf("Warning: failed to close storage: %v", err)
	}
}
