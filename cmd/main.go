package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/healthlog-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Start(ctx)
	if err := application.Run(ctx); err != nil {
		application.Log.Error("Server stopped", "error", err)
		application.Close()
		os.Exit(1)
	}
	application.Log.Info("Server shut down")
}
