package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/voxline/callbot/internal/archive"
	"github.com/voxline/callbot/internal/brain"
	"github.com/voxline/callbot/internal/config"
	"github.com/voxline/callbot/internal/conversation"
	"github.com/voxline/callbot/internal/httpapi"
	"github.com/voxline/callbot/internal/observability"
	"github.com/voxline/callbot/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	sink, err := archive.NewSink(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("archive sink init failed: %v", err)
	}
	defer sink.Close()

	adapter, err := brain.NewAdapter(brain.Config{
		Mode:        cfg.BrainMode,
		APIKey:      cfg.BrainAPIKey,
		BaseURL:     cfg.BrainBaseURL,
		Model:       cfg.BrainModel,
		MaxTokens:   cfg.BrainMaxTokens,
		Temperature: cfg.BrainTemperature,
		MaxHistory:  cfg.ConversationHistory,
		Timeout:     cfg.BrainTimeout,
		Persona:     brain.Persona{Name: cfg.BotName},
	})
	if err != nil {
		log.Fatalf("reply adapter init failed: %v", err)
	}
	switch adapter.(type) {
	case *brain.MockAdapter:
		log.Printf("reply adapter: mock")
	default:
		log.Printf("reply adapter: http (%s)", cfg.BrainModel)
	}

	store := conversation.NewStore(conversation.Options{
		MaxConversations: cfg.MaxConversations,
		CleanupInterval:  cfg.CleanupInterval,
		MaxAge:           cfg.ConversationMaxAge,
	})
	store.SetEvictHook(func(evicted int) {
		metrics.Evictions.Add(float64(evicted))
	})

	limiter := ratelimit.NewLimiter(ratelimit.Limits{
		PerMinute: cfg.CallsPerMinute,
		PerHour:   cfg.CallsPerHour,
		PerDay:    cfg.CallsPerDay,
	})

	api := httpapi.New(cfg, store, adapter, limiter, sink, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
