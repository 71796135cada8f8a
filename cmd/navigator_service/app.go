package navigatorservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"gps-navigator/internal/common/config"
	"gps-navigator/internal/common/contextx"
	"gps-navigator/internal/common/log"
	commonws "gps-navigator/internal/common/ws"
	"gps-navigator/internal/general/jwt"
	"gps-navigator/internal/general/postgres"
	"gps-navigator/internal/general/rabbitmq"
	"gps-navigator/internal/navigation/adapters/api"
	"gps-navigator/internal/navigation/adapters/push"
	"gps-navigator/internal/navigation/adapters/queue"
	"gps-navigator/internal/navigation/adapters/repository"
	"gps-navigator/internal/navigation/adapters/routing"
	navws "gps-navigator/internal/navigation/adapters/ws"
	"gps-navigator/internal/navigation/app"
)

// Run wires the navigator service and blocks until ctx is cancelled.
func Run(ctx context.Context, maxConcurrent int) error {
	// logger with a static request ID for startup logs
	logger := log.New("navigator-service")
	ctx = contextx.WithRequestID(ctx, "startup-001")

	// load config from file
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Error(ctx, logger, "config_load_failed", "Failed to load configuration", err)
		return err
	}

	// Postgres connection pool
	pool, err := postgres.NewPool(ctx, cfg, logger)
	if err != nil {
		log.Error(ctx, logger, "db_connection_failed", "Failed to initialize Postgres pool", err)
		return err
	}
	defer pool.Close()

	// RabbitMQ connection with topology
	rmq, err := rabbitmq.Connect(ctx, cfg, logger)
	if err != nil {
		log.Error(ctx, logger, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err)
		return err
	}
	defer rmq.Close()

	// JWT manager for head-unit tokens
	jwtManager := jwt.NewManager(cfg.JWT.Secret, 2*time.Hour)

	// repositories
	favoriteRepo := repository.NewFavoriteRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	positionRepo := repository.NewPositionRepository(pool)

	// position source backed by the archive for one-shot polls
	locator := repository.NewArchiveLocator(positionRepo)
	source := app.NewSource(locator, logger)

	// route service client
	routeClient := routing.NewClient(cfg.Routing.BaseURL, time.Duration(cfg.Routing.TimeoutSeconds)*time.Second, logger)

	// outbound adapters
	publisher := queue.NewNavPublisher(rmq, logger)
	hub := commonws.NewHub(logger)
	talker := navws.NewTalker(hub)

	// application service
	svc := app.NewAppService(ctx, source, routeClient, favoriteRepo, historyRepo, positionRepo, publisher, talker, logger)

	// WebSocket handler for head units and observers
	wsHandler := navws.NewWSHandler(logger, hub, jwtManager, svc)

	// optional push channel: consume provider gps_update frames when configured
	if cfg.Push.URL != "" {
		consumer := push.NewConsumer(cfg.Push.URL, source, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error(ctx, logger, "push_consumer_stopped", "Push consumer terminated", err)
			}
		}()
	}

	// HTTP handler and routes
	httpHandler := api.NewHandler(svc, wsHandler, jwtManager, logger)

	// concurrency limiter (global), blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, httpHandler.Router())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Info(ctx, logger, "service_started",
		fmt.Sprintf("Navigator Service started on port %d (max_concurrent=%d)", cfg.Server.Port, maxConcurrent))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		// graceful HTTP shutdown on context cancel
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info(ctx, logger, "shutdown_started", "Starting graceful shutdown")
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, logger, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error(ctx, logger, "http_server_error", "HTTP server terminated with error", err)
			return err
		}
		return nil
	}

	return nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
