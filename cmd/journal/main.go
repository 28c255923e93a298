package main

import (
	"context"
	"errors"
	"fmt"
	"journal-live/auth"
	"journal-live/contract"
	"journal-live/infrastructure/api"
	"journal-live/infrastructure/push"
	"journal-live/infrastructure/storage"
	"journal-live/infrastructure/websocket"
	"journal-live/internal"
	"journal-live/runtime"
	"journal-live/runtime/workers"
	"journal-live/services"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
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
		fmt.Fprintf(os.Stderr, "Journal terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a server failure.
// Deferred cleanups run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Pairing store (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	pairings := storage.NewPairingRepository(db, logger)

	// 3. Push transport
	var notifier contract.IPushNotifier = push.NewLogNotifier(logger)
	if config.NatsURL != "" {
		nc, err := push.Connect(logger, push.ConnectParams{
			URL:                 config.NatsURL,
			ConnectTimeout:      5 * time.Second,
			MaxReconnectAttempt: -1,
			ReconnectWait:       2 * time.Second,
		})
		if err != nil {
			return exitRuntime, err
		}
		defer nc.Close()
		notifier = push.NewNatsNotifier(logger, nc, config.NatsSubject)
		logger.Info("Push notifications sent over NATS", "url", config.NatsURL, "subject", config.NatsSubject)
	} else {
		logger.Warn("NATS_URL not set, push notifications are only logged")
	}

	// 4. Live runtime
	tokens := auth.NewJWTService(config.JWTSecret, config.AuthTokenDuration)
	registry, err := runtime.NewRegistry(logger, pairings, runtime.RegistryConfig{
		ParticipantsTTL:   config.ParticipantsTTL,
		PairingTimeout:    config.PairingTimeout,
		MaxCachedJournals: config.MaxCachedJournals,
	})
	if err != nil {
		return exitRuntime, err
	}
	monitor := runtime.NewTokenMonitor(logger, tokens, config.TokenRefreshThreshold, config.TokenRefreshTimeout)
	orchestrator := runtime.NewOrchestrator(logger,
		workers.NewSupervisor(logger, config.RestartInterval),
		registry, monitor, notifier,
		runtime.OrchestratorConfig{
			PushWorkers:    config.PushWorkers,
			PushQueueSize:  config.PushQueueSize,
			PushTimeout:    config.PushTimeout,
			MetricInterval: config.MetricInterval,
		})
	if err = orchestrator.Start(ctx); err != nil {
		return exitRuntime, fmt.Errorf("orchestrator failed to start: %w", err)
	}
	defer orchestrator.Stop()

	// 5. HTTP: client websocket + internal API
	wsServer := websocket.NewServer(logger, auth.NewAuthenticator(tokens, logger), orchestrator, websocket.Config{
		SendBufferSize:   config.ConnectionBufferSize,
		InboundQueueSize: config.InboundQueueSize,
		WriteTimeout:     config.WriteTimeout,
		PingInterval:     config.PingInterval,
		MaxFrameBytes:    config.MaxFrameBytes,
		AllowedOrigins:   config.Origins(),
	})
	journalService := services.NewJournalService(orchestrator, pairings)
	router := api.NewRouter(api.NewHandler(logger, journalService, config.InternalAPIKey), wsServer)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	errChan := make(chan error, 2)
	go func() {
		logger.Info("Starting journal server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	if logger.Enabled(ctx, slog.LevelDebug) {
		debugServer := startDebugServer(logger, db, config.DebugPort, journalService.Stats, errChan)
		defer func() { _ = debugServer.Close() }()
	}

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 7. Graceful shutdown: stop accepting, close live sockets, then the workers
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	if err = wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Websocket shutdown incomplete", "error", err)
	}
	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}
