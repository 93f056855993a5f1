// Command weave starts the Audit Subscriber: an HTTP sink that accepts
// CloudEvents from the decision engine, mints receipts, and answers
// receipt lookups by trace id.
//
// Usage:
//
//	go run ./cmd/weave [flags]
//
// Flags:
//
//	-port  HTTP port to listen on (default: 8081)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"lumina/orca/internal/weave"
)

func main() {
	port := flag.Int("port", 8081, "HTTP port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if p, err := strconv.Atoi(envPort); err == nil {
			*port = p
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	store := weave.New()
	subscriber := weave.NewSubscriber(store)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      subscriber.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("weave audit subscriber listening", "port", *port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
}
