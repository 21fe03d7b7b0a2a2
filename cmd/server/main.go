package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "plane-battle/internal/api/http"
	"plane-battle/internal/api/ws"
	"plane-battle/internal/config"
	"plane-battle/internal/feed"
	"plane-battle/internal/observability"
	"plane-battle/internal/room"
	"plane-battle/internal/store"
)

const shutdownTimeout = 10 * time.Second

// @title Plane Battle API
// @version 1.0
// @description Room and match coordinator for two-player plane battle (Go + Gin)
// @BasePath /
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := observability.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []room.Option{}
	if cfg.RedisURL != "" {
		rdb, err := feed.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()

		pub := feed.NewPublisher(rdb, cfg.EventsChannel, log)
		go pub.Run(ctx)
		opts = append(opts, room.WithEventSink(pub))
		log.Info("match event feed enabled", zap.String("channel", cfg.EventsChannel))
	}

	mem := store.NewMemoryStore()
	hub := ws.NewHub(*cfg, log)
	rm := room.NewManager(mem, hub, *cfg, log, opts...)
	hub.SetRoomManager(rm)
	go rm.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(rm, hub, *cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	hub.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
