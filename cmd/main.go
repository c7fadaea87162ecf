package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/yungbote/trailmark-backend/internal/app"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(); err != nil {
		a.Log.Error("Failed to start background workers", "error", err)
		return
	}
	if err := a.Run(ctx); err != nil {
		a.Log.Error("Server failed", "error", err)
	}
}
