// Package main runs the prepaid fuel-payment server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fueltag-io/fueltag/internal/app/runtime"
	"github.com/fueltag-io/fueltag/pkg/logger"
)

func main() {
	_ = godotenv.Load() // allow .env for local runs

	log := logger.NewDefault("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := runtime.NewApplication(ctx, nil)
	if err != nil {
		log.Fatalf("initialise application: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Fatalf("run application: %v", err)
	}

	if err := application.Shutdown(context.Background()); err != nil {
		log.WithError(err).Warn("shutdown did not complete cleanly")
	}
	log.Info("server stopped")
}
