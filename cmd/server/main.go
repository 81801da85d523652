package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/restohub/supply-service/config"
	"github.com/restohub/supply-service/internal/catalog"
	catalogRepository "github.com/restohub/supply-service/internal/catalog/repository"
	catalogUseCase "github.com/restohub/supply-service/internal/catalog/usecase"
	"github.com/restohub/supply-service/internal/ledger"
	ledgerRepository "github.com/restohub/supply-service/internal/ledger/repository"
	ledgerUseCase "github.com/restohub/supply-service/internal/ledger/usecase"
	"github.com/restohub/supply-service/internal/order"
	"github.com/restohub/supply-service/internal/order/listener"
	orderRepository "github.com/restohub/supply-service/internal/order/repository"
	orderUseCase "github.com/restohub/supply-service/internal/order/usecase"
	"github.com/restohub/supply-service/internal/pkg/broker"
	"github.com/restohub/supply-service/internal/pkg/cache"
	"github.com/restohub/supply-service/internal/pkg/logger"
	"github.com/restohub/supply-service/internal/pkg/postgres"
	"github.com/restohub/supply-service/internal/routing"
	routingRepository "github.com/restohub/supply-service/internal/routing/repository"
	routingUseCase "github.com/restohub/supply-service/internal/routing/usecase"
	"github.com/restohub/supply-service/internal/tenant"
	tenantRepository "github.com/restohub/supply-service/internal/tenant/repository"
	tenantStorage "github.com/restohub/supply-service/internal/tenant/storage"
	tenantUseCase "github.com/restohub/supply-service/internal/tenant/usecase"
)

// core bundles the wired use cases. Transport adapters (gRPC, HTTP) mount on
// top of this; the binary itself only runs the delivery listener.
type core struct {
	Tenants tenant.UseCase
	Catalog catalog.UseCase
	Ledger  ledger.UseCase
	Routing routing.UseCase
	Orders  order.UseCase
}

func main() {
	// .env is optional; container environments set real env vars.
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	log := logger.New(&logger.Config{
		IsDevelopment:     cfg.Server.AppEnv == "development",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer log.Sync()

	db, err := postgres.New(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()
	log.Info("connected to postgres", zap.String("host", cfg.Postgres.Host))

	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		// The database row locks keep the ledger correct without redis; run
		// degraded rather than refuse to start.
		log.Warn("redis unavailable, stock locks disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	brokerCfg := &broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	}
	producer := broker.NewProducer(brokerCfg)
	defer producer.Close()
	consumer := broker.NewConsumer(brokerCfg)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage := tenantStorage.NewPGBackend(db)
	if err := storage.EnsureRegistry(ctx); err != nil {
		log.Fatal("failed to ensure tenant registry", zap.Error(err))
	}

	tenantRepo := tenantRepository.NewPGRepository(db)
	catalogRepo := catalogRepository.NewPGRepository(db)
	ledgerRepo := ledgerRepository.NewPGRepository(db)
	routingRepo := routingRepository.NewPGRepository(db)
	orderRepo := orderRepository.NewPGRepository(db)

	ledgerUC := ledgerUseCase.NewLedgerUseCase(ledgerRepo, redisClient, log)
	routingUC := routingUseCase.NewRoutingUseCase(routingRepo, log)
	app := &core{
		Tenants: tenantUseCase.NewTenantUseCase(tenantRepo, storage, catalogRepo, log),
		Catalog: catalogUseCase.NewCatalogUseCase(catalogRepo, log),
		Ledger:  ledgerUC,
		Routing: routingUC,
		Orders:  orderUseCase.NewOrderUseCase(orderRepo, catalogRepo, routingUC, ledgerUC, producer, log),
	}

	deliveryListener := listener.NewDeliveryListener(consumer, app.Ledger, log)
	go deliveryListener.Run(ctx)
	log.Info("delivery listener started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", cfg.Kafka.GroupID))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", zap.String("signal", sig.String()))
	cancel()
}
