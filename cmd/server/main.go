package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storefront/backend/config"
	httpDelivery "github.com/storefront/backend/internal/delivery/http"
	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/catalogapi"
	"github.com/storefront/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Storefront Search v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s (TTL %s)", cfg.Cache.Type, cfg.Cache.TTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	snapshotCache, closeCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer closeCache()

	catalogClient := catalogapi.NewClient(catalogapi.ClientConfig{
		BaseURL:           cfg.Catalog.BaseURL,
		APIKey:            cfg.Catalog.APIKey,
		Timeout:           cfg.Catalog.Timeout,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		Burst:             cfg.Catalog.Burst,
	})

	if cfg.Server.Environment == "development" {
		catalogClient.SetDebug(true)
		log.Printf("Catalog client debug mode enabled")
	}
	log.Printf("Catalog API configured: %s (key configured: %v)", cfg.Catalog.BaseURL, cfg.Catalog.APIKey != "")

	sessions := usecase.NewSessionStore(cfg.Session.TTL)
	go sessions.RunEviction(time.Minute, ctx.Done())

	// Initialize usecase layer
	searchService := usecase.NewSearchService(
		snapshotCache,
		catalogClient,
		sessions,
		usecase.SearchServiceConfig{
			CacheTTL: cfg.Cache.TTL,
			// one client timeout per attempt
			FetchTimeout: 3 * cfg.Catalog.Timeout,
			Scoring: usecase.ScoringConfig{
				ModelCutoffRatio:     cfg.Search.ModelCutoffRatio,
				AccessoryPenalty:     cfg.Search.AccessoryPenalty,
				UnmatchedNamePenalty: cfg.Search.UnmatchedNamePenalty,
				EnableDebugLogging:   cfg.Search.EnableDebugLogging,
			},
		},
	)

	log.Printf("Search: model cutoff=%.2f, accessory penalty=%.2f, unmatched name penalty=%.2f, debug=%v",
		cfg.Search.ModelCutoffRatio,
		cfg.Search.AccessoryPenalty,
		cfg.Search.UnmatchedNamePenalty,
		cfg.Search.EnableDebugLogging)

	handler := httpDelivery.NewHandler(searchService)
	router := httpDelivery.SetupRouter(cfg, handler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// newCache builds the snapshot cache selected by configuration
func newCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, func(), error) {
	if cfg.Type == "redis" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, "storefront:")
		if err != nil {
			return nil, nil, err
		}
		return redisCache, func() { redisCache.Close() }, nil
	}

	memoryCache := cache.NewMemoryCache(10 * time.Minute)
	return memoryCache, func() { memoryCache.Close() }, nil
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
