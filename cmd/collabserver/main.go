package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KhamessiTaha/collaborative-code-editor/internal/app"
	"github.com/KhamessiTaha/collaborative-code-editor/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("collabserver failed: %v", err)
	}
}

func run() error {
	cfg := config.LoadConfigWithPrecedence(os.Getenv("COLLAB_CONFIG_FILE"))

	application, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		return err
	}

	log.Printf("collabserver listening on %s", application.GetAddr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received signal %v, shutting down", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	return application.Stop(shutdownCtx)
}
