package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/application"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/infrastructure/messaging"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/infrastructure/okx"
	redisrepo "github.com/wyfcoding/exchangegateway/internal/connectivity/infrastructure/persistence/redis"
	httpapi "github.com/wyfcoding/exchangegateway/internal/connectivity/interfaces/http"
	"github.com/wyfcoding/exchangegateway/pkg/cache"
	"github.com/wyfcoding/exchangegateway/pkg/config"
	"github.com/wyfcoding/exchangegateway/pkg/logger"
	"github.com/wyfcoding/exchangegateway/pkg/metrics"
	"github.com/wyfcoding/exchangegateway/pkg/mq"
	"github.com/wyfcoding/exchangegateway/pkg/ratelimit"
	"golang.org/x/sync/errgroup"
)

var configPath = flag.String("config", "configs/connectivity/config.toml", "config file path")

func main() {
	flag.Parse()
	ctx := context.Background()

	// 1. Config
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Logger
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 3. Metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.ServiceName)
	}

	// 4. Redis（可选）：市场快照预热
	var repo domain.MarketRepository
	if cfg.Redis.Enabled {
		rc, err := cache.New(ctx, cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			logger.Warn(ctx, "redis unavailable, market warm start disabled", "error", err)
		} else {
			defer rc.Close()
			repo = redisrepo.NewMarketRedisRepository(rc.Client(), time.Duration(cfg.Redis.MarketTTL)*time.Second)
		}
	}

	// 5. Kafka（可选）：订单事件
	var publisher domain.OrderEventPublisher = messaging.NopOrderPublisher{}
	if cfg.Kafka.Enabled {
		producer := mq.NewProducer(mq.KafkaConfig{Brokers: cfg.Kafka.Brokers, WriteTimeout: cfg.Kafka.WriteTimeout})
		defer producer.Close()
		publisher = messaging.NewKafkaOrderPublisher(producer, cfg.Kafka.OrderTopic)
	}

	// 6. Venue
	limiter := ratelimit.NewTokenBucketLimiter(ratelimit.Limit{QPS: cfg.Venue.RateLimitQPS, Burst: cfg.Venue.RateLimitBurst})
	transport := okx.NewRestyTransport(okx.TransportConfig{
		BaseURL:            cfg.Venue.BaseURL,
		Timeout:            cfg.Venue.TimeoutDuration(),
		BreakerName:        cfg.ServiceName + "-venue",
		BreakerFailures:    cfg.Venue.BreakerFailures,
		BreakerMaxRequests: cfg.Venue.BreakerMaxRequests,
		BreakerTimeout:     cfg.Venue.BreakerTimeoutDuration(),
	}, limiter, m)
	creds := okx.Credentials{APIKey: cfg.Venue.APIKey, Secret: cfg.Venue.Secret, Passphrase: cfg.Venue.Passphrase}
	if !creds.Valid() {
		logger.Warn(ctx, "venue credentials incomplete, private endpoints will be rejected")
	}
	caller := okx.NewCaller(transport, okx.NewSigner(creds, cfg.Venue.Sandbox), m)
	builder := okx.NewBuilder(okx.BuilderConfig{
		BrokerID:               cfg.Venue.BrokerID,
		DefaultMarginMode:      domain.MarginMode(cfg.Venue.DefaultMarginMode),
		TargetCurrency:         domain.TargetCurrency(cfg.Venue.TargetCurrency),
		MarketBuyRequiresPrice: cfg.Venue.MarketBuyRequiresPrice,
		SingleOrderViaBatch:    cfg.Venue.SingleOrderViaBatch,
	}, m)

	marketTypes := make([]domain.MarketType, 0, len(cfg.Venue.MarketTypes))
	for _, t := range cfg.Venue.MarketTypes {
		marketTypes = append(marketTypes, domain.MarketType(t))
	}
	markets := application.NewMarketService(okx.NewMarketFetcher(caller, marketTypes, cfg.Venue.OptionFamilies), repo, m)
	client := okx.NewClient(caller, builder, markets)

	// 7. Application Services
	appService := application.NewConnectivityService(client, markets, publisher)

	// 8. HTTP Server
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	var apiLimiter ratelimit.RateLimiter
	if cfg.HTTP.RateLimitQPS > 0 {
		apiLimiter = ratelimit.NewTokenBucketLimiter(ratelimit.Limit{QPS: cfg.HTTP.RateLimitQPS, Burst: cfg.HTTP.RateLimitBurst})
	}
	router := httpapi.NewRouter(httpapi.NewHandler(appService), httpapi.RouterOptions{
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
		Limiter:     apiLimiter,
	})
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// 9. Lifecycle Management
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 预加载市场，失败时由首次查询重试
	g.Go(func() error {
		if _, err := markets.Markets(gctx); err != nil {
			logger.Warn(gctx, "market preload failed", "error", err)
		}
		return nil
	})

	// Graceful Shutdown
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-gctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info(shutdownCtx, "HTTP server shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "Service exited with error", "error", err)
		os.Exit(1)
	}
}
