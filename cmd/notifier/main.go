package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vestacare/credops/common/bootstrap"
)

// The notifier fans Redis assignment events out to WebSocket clients:
// per-agent feeds for "my work" views, an all-agents feed for team
// dashboards. Stateless; no database.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := bootstrap.Setup(ctx, "notifier",
		bootstrap.WithoutDB(),
		bootstrap.WithoutCache(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap notifier: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	log := components.Logger
	cfg := components.Config

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	hub := NewHub(log)
	go hub.Run()

	subscriber := NewSubscriber(redisClient, hub, log)
	go func() {
		if err := subscriber.Start(ctx); err != nil {
			log.Error("subscriber failed", "error", err)
			os.Exit(1)
		}
	}()

	wsServer := NewServer(hub, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","connections":%d}`, hub.ConnectionCount())
	})

	// Read/write timeouts stay zero: they would kill long-lived
	// WebSocket connections. Liveness comes from ping/pong deadlines.
	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Service.Port),
		Handler:     mux,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Info("notifier starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down notifier")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", "error", err)
	}

	log.Info("notifier stopped")
}
