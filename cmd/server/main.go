package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-service/internal/config"
	"checkout-service/internal/controllers/http"
	"checkout-service/internal/infra"
	"checkout-service/internal/infra/cache"
	"checkout-service/internal/infra/idempotency"
	"checkout-service/internal/infra/kafka"
	mmysql "checkout-service/internal/infra/mysql"
	"checkout-service/internal/infra/rabbitmq"
	"checkout-service/internal/logging"
	"checkout-service/internal/metrics"
	"checkout-service/internal/payment"
	"checkout-service/internal/repository"
	"checkout-service/internal/repository/memory"
	mysqlrepo "checkout-service/internal/repository/mysql"
	"checkout-service/internal/services"

	"github.com/gin-gonic/gin"
	redisv8 "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(config.ServiceName, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	orders, products, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	catalog := products
	var productCache *cache.ProductCatalog
	if cfg.RedisHost != "" {
		rdb := redisv8.NewClient(&redisv8.Options{
			Addr:         cfg.RedisHost + ":6379",
			DB:           0,
			PoolSize:     200,
			MinIdleConns: 20,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		})
		defer rdb.Close()
		productCache = cache.NewProductCatalog(products, rdb, cfg.ProductCacheTTL, logger)
		catalog = productCache
	}

	var idem *idempotency.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		idem = idempotency.NewStore(rdb, cfg.IdempotencyTTL)
	}

	publisher, closePublisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	gateway := payment.ApproveAll
	if cfg.PaymentGateway == config.GatewaySimulated {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		gateway = payment.NewSimulatedGateway(rnd, payment.SimulationRates(cfg.PaymentApprovalRate), 1)
		logger.Info("using simulated payment gateway", zap.Float64("approval_rate_override", cfg.PaymentApprovalRate))
	}

	coordinator := services.NewOrderCoordinator(orders, catalog, logger,
		services.WithPublisher(publisher),
		services.WithMetrics(m),
		services.WithPaymentTimeout(cfg.PaymentTimeout),
		services.WithMaxOrderItems(cfg.MaxOrderItems),
	)
	catalogService := services.NewCatalogService(catalog, logger)

	if cfg.SeedCatalog {
		if _, err := catalogService.Seed(ctx, services.DemoCatalog()); err != nil {
			return err
		}
	}
	if productCache != nil {
		go func() {
			if err := productCache.Warmup(ctx, services.DemoProductIDs()); err != nil {
				logger.Warn("failed to warm up product cache", zap.Error(err))
			} else {
				logger.Info("product cache warmed up")
			}
		}()
	}

	handler := http.NewHandler(coordinator, catalogService, payment.NewDefaultRegistry(gateway, logger), idem, m, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	handler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	srv := &nethttp.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting checkout service",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.StoreBackend),
			zap.String("broker", cfg.EventBroker))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(cfg *config.Config, logger *zap.Logger) (repository.OrderRepository, repository.ProductRepository, error) {
	if cfg.StoreBackend != config.StoreMySQL {
		return memory.NewOrderStore(), memory.NewProductCatalog(), nil
	}
	db, err := mmysql.Open(cfg.MySQL)
	if err != nil {
		return nil, nil, err
	}
	return mysqlrepo.NewOrderRepository(db, logger), mysqlrepo.NewProductRepository(db, logger), nil
}

func newPublisher(cfg *config.Config, logger *zap.Logger) (infra.PublisherInterface, func(), error) {
	switch cfg.EventBroker {
	case config.BrokerRabbitMQ:
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	case config.BrokerKafka:
		p := kafka.NewPublisher(kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic), logger)
		return p, func() {
			if err := p.Close(); err != nil {
				logger.Warn("failed to close kafka writer", zap.Error(err))
			}
		}, nil
	default:
		return infra.NopPublisher{}, func() {}, nil
	}
}
