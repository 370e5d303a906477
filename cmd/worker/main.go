package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	notificationapp "github.com/oficina/backend/internal/application/notification"
	serviceorderapp "github.com/oficina/backend/internal/application/serviceorder"
	stockapp "github.com/oficina/backend/internal/application/stock"
	"github.com/oficina/backend/internal/infrastructure/cache"
	"github.com/oficina/backend/internal/infrastructure/config"
	"github.com/oficina/backend/internal/infrastructure/event"
	"github.com/oficina/backend/internal/infrastructure/logger"
	"github.com/oficina/backend/internal/infrastructure/messaging"
	"github.com/oficina/backend/internal/infrastructure/notification"
	"github.com/oficina/backend/internal/infrastructure/persistence"
	"github.com/oficina/backend/internal/infrastructure/scheduler"
	"github.com/oficina/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otel, err := telemetry.NewProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = otel.Shutdown(shutdownCtx)
	}()
	if level, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
		log = otel.BridgeLogger(log, level)
	}

	log.Info("Starting oficina worker",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("database_driver", cfg.Database.Driver),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.IsSQLite() {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate SQLite schema", zap.Error(err))
		}
	}

	dbSystem := "postgresql"
	if cfg.Database.IsSQLite() {
		dbSystem = "sqlite"
	}
	if err := telemetry.InstrumentDB(db.DB, cfg.Telemetry, dbSystem, log); err != nil {
		log.Fatal("Failed to enable database tracing", zap.Error(err))
	}
	meter := otel.Meter("oficina")
	if sqlDB, err := db.DB.DB(); err == nil {
		if err := telemetry.RegisterDBPoolMetrics(meter, sqlDB); err != nil {
			log.Warn("Failed to register database pool metrics", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	vehicleRepo := persistence.NewGormVehicleRepository(db.DB)
	serviceRepo := persistence.NewGormServiceRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	stockRepo := persistence.NewGormStockItemRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB, log)

	orderMetrics, err := telemetry.NewOrderMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create order metrics", zap.Error(err))
	}
	eventBus := event.NewInMemoryEventBus(log).WithObserver(orderMetrics)

	ledger := stockapp.NewLedger(log, stockapp.WithMaxRetries(cfg.Stock.MaxRetries))
	allocationService := serviceorderapp.NewAllocationService(log, txScope, ledger, eventBus)
	lifecycleService := serviceorderapp.NewLifecycleService(log, txScope, orderRepo, serviceorderapp.CatalogRepositories{
		Customers: customerRepo,
		Vehicles:  vehicleRepo,
		Services:  serviceRepo,
	}, eventBus)

	sender, err := notification.NewSender(cfg.Notification, log)
	if err != nil {
		log.Fatal("Failed to create notification sender", zap.Error(err))
	}
	renderer, err := notificationapp.NewRenderer()
	if err != nil {
		log.Fatal("Failed to parse notification templates", zap.Error(err))
	}

	throttle, closeThrottle := cache.NewAlertThrottle(ctx, cfg.Redis, log)
	defer func() { _ = closeThrottle() }()
	lowStockHandler := stockapp.NewLowStockHandler(log, notification.NewStockAlerter(sender, cfg.Notification.AlertTo)).
		WithThrottle(throttle, cfg.Stock.AlertTTL)

	// Registration order is delivery order: stock is returned before anyone is told an order closed.
	eventBus.Subscribe(serviceorderapp.NewOrderCancelledHandler(allocationService, log))
	eventBus.Subscribe(serviceorderapp.NewOrderBudgetExpiredHandler(allocationService, log))
	eventBus.Subscribe(lowStockHandler)
	eventBus.Subscribe(orderMetrics)
	for _, h := range notificationapp.Handlers(customerRepo, sender, renderer, log) {
		eventBus.Subscribe(h)
	}

	if cfg.Kafka.Enabled {
		forwarder := messaging.NewKafkaEventForwarder(
			messaging.NewKafkaWriter(cfg.Kafka),
			event.NewDomainEventSerializer(),
			log,
		)
		defer func() {
			if err := forwarder.Close(); err != nil {
				log.Error("Error closing Kafka writer", zap.Error(err))
			}
		}()
		eventBus.Subscribe(forwarder)
		log.Info("Forwarding domain events to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	if sent, err := lowStockHandler.AlertBelowMinimum(ctx, stockRepo); err != nil {
		log.Warn("Startup low stock sweep failed", zap.Error(err))
	} else if sent > 0 {
		log.Info("Startup low stock sweep sent alerts", zap.Int("alerts", sent))
	}

	budgetScheduler := scheduler.NewBudgetExpiryScheduler(lifecycleService, cfg.Budget, log)
	if err := budgetScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start budget expiry scheduler", zap.Error(err))
	}

	<-ctx.Done()
	log.Info("Shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := budgetScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Budget expiry scheduler did not stop cleanly", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}

	log.Info("Worker exited")
}
