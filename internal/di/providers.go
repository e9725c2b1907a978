package di

import (
	"fmt"

	domrepo "FolioPull/internal/domain/repository"
	"FolioPull/internal/handler/api"
	"FolioPull/internal/repository"
	"FolioPull/internal/scheduler"
	"FolioPull/internal/service/ghostfolio"
	"FolioPull/internal/service/ratelimit"
	"FolioPull/internal/usecase"
	"FolioPull/pkg/cache"
	"FolioPull/pkg/config"
	xhttp "FolioPull/pkg/http"
	pkgkafka "FolioPull/pkg/kafka"
	applogger "FolioPull/pkg/logger"
	"FolioPull/pkg/metrics"
	"FolioPull/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("entry", cfg.Entry.ID)), nil
}

// ProvideMetrics registers the recorder on the default registry served at
// /metrics.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideRedisCache connects to Redis when enabled. It returns nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideCache layers an in-process cache over Redis, or uses the memory
// cache alone.
func ProvideCache(rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache()
	}
	return cache.NewLayeredCache(rc)
}

func ProvideEntityRegistry(rc *cache.RedisCache) domrepo.EntityRegistry {
	if rc == nil {
		return repository.NewMemoryEntityRegistry()
	}
	return repository.NewRedisEntityRegistry(rc)
}

// ProvideKafkaProducer creates a producer when kafka is enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.EventPublisher {
	if producer == nil {
		return repository.NopPublisher{}
	}
	return repository.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates the command consumer when a command topic is
// configured.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.CommandTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.GroupID+"."+cfg.Entry.ID),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

func ProvideGhostfolioClient(cfg *config.Config, l *applogger.Logger) domrepo.PortfolioAPI {
	return ghostfolio.New(ghostfolio.Config{
		BaseURL:     cfg.Ghostfolio.BaseURL,
		AccessToken: cfg.Ghostfolio.AccessToken,
		VerifySSL:   cfg.Ghostfolio.VerifySSL,
		Timeout:     cfg.Ghostfolio.RequestTimeout,
	}, l.With(applogger.String("component", "ghostfolio")))
}

func ProvideEnricher(api domrepo.PortfolioAPI, l *applogger.Logger) *usecase.Enricher {
	return usecase.NewEnricher(api, l)
}

func ProvideRefresher(cfg *config.Config, api domrepo.PortfolioAPI, enricher *usecase.Enricher, m domrepo.Metrics, l *applogger.Logger) *usecase.Refresher {
	return usecase.NewRefresher(api, enricher, m, l, usecase.RefreshOptions{
		ShowHoldings:  cfg.Entry.ShowHoldings,
		ShowWatchlist: cfg.Entry.ShowWatchlist,
		Providers:     cfg.Ghostfolio.Providers,
	})
}

func ProvideCatalog(cfg *config.Config) *usecase.Catalog {
	return usecase.NewCatalog(usecase.CatalogOptions{
		EntryID:       cfg.Entry.ID,
		PortfolioName: cfg.Entry.PortfolioName,
		BaseCurrency:  cfg.Entry.BaseCurrency,
		ShowTotals:    cfg.Entry.ShowTotals,
		ShowAccounts:  cfg.Entry.ShowAccounts,
		ShowHoldings:  cfg.Entry.ShowHoldings,
		ShowWatchlist: cfg.Entry.ShowWatchlist,
		Providers:     cfg.Ghostfolio.Providers,
	})
}

func ProvideLimitService(c cache.Service, registry domrepo.EntityRegistry, cfg *config.Config) *usecase.LimitService {
	return usecase.NewLimitService(c, registry, cfg.Entry.ID)
}

func ProvideReconciler(store *usecase.SnapshotStore, catalog *usecase.Catalog, registry domrepo.EntityRegistry, l *applogger.Logger) *usecase.Reconciler {
	return usecase.NewReconciler(store, catalog, registry, l)
}

func ProvideCoordinator(
	cfg *config.Config,
	refresher *usecase.Refresher,
	store *usecase.SnapshotStore,
	catalog *usecase.Catalog,
	registry domrepo.EntityRegistry,
	limits *usecase.LimitService,
	reconciler *usecase.Reconciler,
	publisher domrepo.EventPublisher,
	c cache.Service,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.Coordinator {
	coord := usecase.NewCoordinator(refresher, store, catalog, registry, limits, reconciler, publisher, c, m, l)
	coord.SetLockTTL(cfg.Ghostfolio.LockTTL)
	return coord
}

func ProvideMaintenanceHandler(cfg *config.Config, coord *usecase.Coordinator, l *applogger.Logger) *usecase.MaintenanceHandler {
	return usecase.NewMaintenanceHandler(cfg.Kafka.CommandTopic, cfg.Entry.ID, coord, l)
}

func ProvidePruneLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Maintenance.PruneBurst, cfg.Maintenance.PrunePerMinute)
}

func ProvidePortfolioHandler(l *applogger.Logger, coord *usecase.Coordinator, hub *api.Hub, limiter *ratelimit.Limiter) *api.PortfolioHandler {
	return api.NewPortfolioHandler(l, coord, hub, limiter)
}

// ProvideHTTPServer builds the echo server with every API handler.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.PortfolioHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, []xhttp.Handler{h},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application lifecycle owner.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	coord *usecase.Coordinator,
	hub *api.Hub,
	consumer *pkgkafka.Consumer,
	commands *usecase.MaintenanceHandler,
	publisher domrepo.EventPublisher,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, httpServer, sched, coord, hub, consumer, commands, publisher, c)
}
