package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/KhamessiTaha/collaborative-code-editor/internal/api"
	"github.com/KhamessiTaha/collaborative-code-editor/internal/config"
	"github.com/KhamessiTaha/collaborative-code-editor/internal/gateway"
	"github.com/KhamessiTaha/collaborative-code-editor/internal/journal"
	"github.com/KhamessiTaha/collaborative-code-editor/internal/store"
	"github.com/KhamessiTaha/collaborative-code-editor/internal/websocket"
	"github.com/KhamessiTaha/collaborative-code-editor/pkg/interfaces"
)

// Application coordinates all components. Initialization order follows
// the dependency chain: Journal -> Store -> Registry -> Gateway -> API ->
// HTTP; shutdown runs it in reverse.
type Application struct {
	config     *config.Config
	journal    interfaces.EventJournal
	fileStore  *store.Store
	registry   *websocket.Registry
	gateway    *gateway.Gateway
	apiServer  *api.Server
	httpServer *http.Server
}

// NewApplication creates an application instance with all components
// initialized and the seed file loaded.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Journal is optional; an empty path disables it
	var eventJournal interfaces.EventJournal
	if cfg.Journal.Path != "" {
		j, err := journal.NewManager(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize event journal: %w", err)
		}
		eventJournal = j
	}

	fileStore := store.New()
	if err := fileStore.Load(store.DefaultSeed()); err != nil {
		return nil, fmt.Errorf("failed to seed file store: %w", err)
	}

	registry := websocket.NewRegistry()
	gw := gateway.NewGateway(fileStore, registry, eventJournal)
	apiServer := api.NewServer(fileStore, registry, eventJournal)

	authorize := authorizerFromConfig(cfg.Auth)
	wsHandler := websocket.NewHandler(gw, authorize, cfg.WebSocket.PingInterval, cfg.WebSocket.ReadTimeout)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer)
	mux.Handle("/health", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		journal:    eventJournal,
		fileStore:  fileStore,
		registry:   registry,
		gateway:    gw,
		apiServer:  apiServer,
		httpServer: httpServer,
	}, nil
}

// authorizerFromConfig builds the handshake predicate: open access when
// no token is configured, exact token match otherwise. Deployments with
// real credential infrastructure swap in their own Authorizer.
func authorizerFromConfig(auth *config.AuthConfig) websocket.Authorizer {
	if auth.Token == "" {
		return func(string) bool { return true }
	}
	expected := auth.Token
	return func(token string) bool { return token == expected }
}

// Start begins application execution: gateway first so intents can be
// handled, then the HTTP server.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting collabserver on %s", app.httpServer.Addr)

	if err := app.gateway.Start(ctx); err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		_ = app.gateway.Stop()
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("collabserver started successfully")
		return nil
	case <-ctx.Done():
		_ = app.gateway.Stop()
		return ctx.Err()
	}
}

// Stop shuts the application down in reverse dependency order:
// HTTP -> Gateway -> Journal.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down collabserver")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := app.gateway.Stop(); err != nil {
		log.Printf("Gateway shutdown error: %v", err)
	}

	if app.journal != nil {
		if err := app.journal.Close(); err != nil {
			log.Printf("Journal shutdown error: %v", err)
		}
	}

	log.Printf("collabserver shutdown complete")
	return nil
}

// GetAddr returns the server address for external connections.
func (app *Application) GetAddr() string {
	return app.httpServer.Addr
}
