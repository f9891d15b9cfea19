package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	catalogapp "storefront/internal/application/catalog"
	"storefront/internal/application/history"
	"storefront/internal/application/inventory"
	"storefront/internal/application/order"
	"storefront/internal/config"
	"storefront/internal/domain/repository"
	rediscache "storefront/internal/infrastructure/cache/redis"
	"storefront/internal/infrastructure/encoding/avro"
	ginserver "storefront/internal/infrastructure/http/gin"
	kafkainfra "storefront/internal/infrastructure/messaging/kafka"
	"storefront/internal/infrastructure/persistence/memory"
	"storefront/internal/infrastructure/persistence/postgres"
	"storefront/internal/interfaces/http/handler"
	"storefront/internal/interfaces/http/router"
	"storefront/pkg/logger"
)

type stores struct {
	catalog  repository.CatalogStore
	orders   repository.OrderStore
	events   repository.EventLog
	sequence repository.Sequence
	closers  []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	appLog, err := logger.NewZapLogger(logger.Options{Service: cfg.App.Name, Env: cfg.App.Env, Level: cfg.App.LogLevel})
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal("Open stores failed", logger.String("driver", cfg.Store.Driver), logger.Error(err))
	}
	defer st.Close()

	historySvc := history.NewService(st.events, appLog, cfg.Order.StoreTimeout)

	var publisher order.EventPublisher = historySvc
	if cfg.Kafka.Enabled {
		codec, err := avro.NewOrderEventCodec()
		if err != nil {
			appLog.Fatal("Init avro codec failed", logger.Error(err))
		}

		producer, err := kafkainfra.NewEventProducer(cfg.Kafka, codec, appLog)
		if err != nil {
			appLog.Fatal("Init kafka producer failed", logger.Error(err))
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = producer.Close(closeCtx)
		}()
		publisher = producer

		consumer := kafkainfra.NewEventConsumer(cfg.Kafka, codec, historySvc, appLog)
		defer func() { _ = consumer.Close() }()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("Kafka consumer stopped", logger.Error(err))
			}
		}()
	}

	coordinator := inventory.NewCoordinator(st.catalog, appLog, cfg.Order.StoreTimeout)
	numbers := order.NewNumberGenerator(st.sequence, cfg.Order.NumberPrefix, cfg.Order.StoreTimeout)
	orderSvc := order.NewService(
		st.catalog,
		st.orders,
		coordinator,
		numbers,
		publisher,
		appLog,
		cfg.Order.StoreTimeout,
	)
	catalogSvc := catalogapp.NewService(st.catalog, orderSvc, cfg.Order.LowStockThreshold, cfg.Order.StoreTimeout)

	engine := ginserver.NewEngine(cfg.App.Env)
	router.RegisterRoutes(engine, router.Handlers{
		Orders:   handler.NewOrderHandler(orderSvc, historySvc, appLog),
		Products: handler.NewProductHandler(catalogSvc, appLog),
		Health:   handler.NewHealthHandler(cfg.App.Name, cfg.Store.Driver),
	}, appLog)

	server := ginserver.NewServer(cfg.Server, engine, appLog)
	if err := server.Run(ctx); err != nil {
		appLog.Error("Server run failed", logger.Error(err))
		return
	}
	appLog.Info("Server stopped")
}

func openStores(ctx context.Context, cfg *config.Config, log logger.Logger) (*stores, error) {
	st := &stores{}

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		products, err := catalogapp.SeedProducts()
		if err != nil {
			return nil, fmt.Errorf("load seed: %w", err)
		}
		orders := memory.NewOrderStore()
		st.catalog = memory.NewCatalogStore(products...)
		st.orders = orders
		st.events = memory.NewEventLog()
		st.sequence = orders
		log.Info("Using in-memory stores", logger.Int("products", len(products)))

	case config.StoreDriverPostgres:
		if cfg.DB.Migrate {
			if err := postgres.Migrate(cfg.DB); err != nil {
				return nil, err
			}
			log.Info("Database migrations applied")
		}
		pool, err := postgres.NewPool(cfg.DB)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)

		orders := postgres.NewOrderRepository(pool)
		st.catalog = postgres.NewProductRepository(pool)
		st.orders = orders
		st.events = postgres.NewEventLogRepository(pool)
		st.sequence = orders
		log.Info("Using postgres stores", logger.String("host", cfg.DB.Host), logger.String("db", cfg.DB.DBName))

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	if cfg.Redis.URL != "" {
		client, err := rediscache.NewClient(cfg.Redis)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = client.Close() })

		seq := rediscache.NewSequence(client, cfg.Redis.SequenceKey)
		floor, err := st.orders.MaxOrderSequence(ctx)
		if err != nil {
			st.Close()
			return nil, err
		}
		if err := seq.EnsureAtLeast(ctx, floor); err != nil {
			st.Close()
			return nil, err
		}
		st.sequence = seq
		log.Info("Using redis order sequence", logger.String("key", cfg.Redis.SequenceKey))
	}
	return st, nil
}
