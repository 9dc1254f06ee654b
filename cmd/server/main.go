package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"huddle/infrastructure/api"
	"huddle/infrastructure/storage"
	"huddle/infrastructure/ws"
	"huddle/internal"
	"huddle/repositories"
	"huddle/runtime"
	"huddle/runtime/workers"
	"huddle/services"
	"huddle/sink"

	"github.com/dgraph-io/badger/v4"
	_ "github.com/joho/godotenv/autoload"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a fatal error.
// Returning instead of exiting lets the deferred cleanups run.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.Load()
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)
	clock := func() time.Time { return time.Now().UTC() }

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Session state, owned by the coordinator
	coordinator := runtime.NewCoordinator(logger,
		repositories.NewSettingsStore(config.InitialSettings()),
		repositories.NewPresenceRegistry(),
		repositories.NewMessageStore(clock),
		runtime.NewVoiceRoomRegistry(),
		clock,
	)

	// 4. Supervision & Orchestration
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(logger, sup, coordinator, runtime.NewConnections(),
		config.CommandBufferSize, config.DeliveryBufferSize, config.SinkTimeout)

	// 5. Optional audit journal (BadgerDB)
	if config.JournalPath != "" {
		db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
		if err != nil {
			return exitRuntime, fmt.Errorf("journal opening failed: %w", err)
		}
		defer func() {
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
		orchestrator.Add(sink.NewJournalSink(storage.NewJournalRepository(db, logger), logger, clock))

		if logger.Enabled(ctx, slog.LevelDebug) {
			endpoint := "/inspect"
			logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s?prefix=%s", config.DebugPort, endpoint, storage.JournalPrefix))
			database.StartDebugServer(db, config.DebugPort, endpoint, storage.JournalMapper)
		}
	}

	errChan := make(chan error, 1)
	orchestratorDone := make(chan struct{})
	go func() {
		defer close(orchestratorDone)
		if err := orchestrator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("orchestrator error: %w", err)
		}
	}()

	// 6. HTTP Server Setup
	chatService := services.NewChatService(orchestrator)
	uploadService := services.NewUploadService(logger, config.UploadDir, config.UploadMaxBytes, config.UploadPublicPrefix)
	wsHandler := ws.NewHandler(logger, chatService, ws.Options{
		OutboxSize:    config.ConnectionBufferSize,
		PingInterval:  config.PingInterval,
		PongWait:      config.PongWait,
		WriteWait:     config.WriteWait,
		MaxFrameBytes: config.MaxFrameBytes,
	})
	router := api.NewRouter(logger, wsHandler, uploadService, orchestrator, api.Options{
		UploadDir:      config.UploadDir,
		UploadMaxBytes: config.UploadMaxBytes,
		PublicPrefix:   config.UploadPublicPrefix,
	})
	srv := &http.Server{
		Addr:              config.Address(),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", "address", srv.Addr, "at", time.Now().UTC())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		orchestrator.Stop()
		<-orchestratorDone
		return exitRuntime, err
	}

	// 8. Graceful Shutdown
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", "error", err)
	}
	orchestrator.Stop()
	<-orchestratorDone
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.JournalPath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}
