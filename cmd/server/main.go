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

	"pos_backend/internal/config"
	"pos_backend/internal/database"
	"pos_backend/internal/events"
	"pos_backend/internal/handlers"
	"pos_backend/internal/observability"
	"pos_backend/internal/repositories"
	"pos_backend/internal/router"
	"pos_backend/internal/services"
	"pos_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	utils.InitLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Enabled:  cfg.Tracing.Enabled,
		Endpoint: cfg.Tracing.Endpoint,
		Insecure: cfg.Tracing.Insecure,
	})
	if err != nil {
		// Tracing is optional; keep serving without it.
		utils.LogError(err, "Failed to set up tracing")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			utils.LogError(err, "Failed to flush traces")
		}
	}()

	db, err := database.InitDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	sink, err := buildSink(cfg.Events)
	if err != nil {
		return err
	}
	defer sink.Close()

	// Initialize engine
	store := repositories.NewUnitOfWork(db, cfg.Database.LockTimeout)
	emitter := events.NewEmitter(sink, cfg.Events.PublishTimeout)
	ledger := services.NewStockLedger()
	builder := services.NewOrderBuilder(services.NewOrderCode)
	lifecycle := services.NewOrderLifecycle(store, ledger)

	orderService := services.NewOrderService(store, builder, lifecycle, emitter)
	inventoryService := services.NewInventoryService(store, ledger, emitter)
	tableService := services.NewTableService(store, emitter)

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, router.Handlers{
		Orders:    handlers.NewOrderHandler(orderService),
		Inventory: handlers.NewInventoryHandler(inventoryService),
		Movements: handlers.NewInventoryMovementHandler(inventoryService),
		Tables:    handlers.NewTableHandler(tableService),
		Health:    handlers.NewHealthHandler(db),
	}, []byte(cfg.JWTSecret))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "event_sink": cfg.Events.Sink})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		utils.LogInfo("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildSink(cfg config.EventsConfig) (events.Sink, error) {
	logSink := events.NewLogSink()
	switch cfg.Sink {
	case config.SinkRabbitMQ:
		rmq, err := events.NewRabbitMQSink(events.RabbitMQConfig{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
		if err != nil {
			return nil, err
		}
		return events.MultiSink{logSink, rmq}, nil
	case config.SinkKafka:
		kafkaSink := events.NewKafkaSink(events.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		return events.MultiSink{logSink, kafkaSink}, nil
	default:
		return logSink, nil
	}
}
