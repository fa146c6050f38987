package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"selfreg/internal/platform/config"
	platformmetrics "selfreg/internal/platform/metrics"
	"selfreg/internal/platform/postgres"
	"selfreg/internal/platform/redis"
	ratelimitmetrics "selfreg/internal/ratelimit/metrics"
	ratelimitmw "selfreg/internal/ratelimit/middleware"
	"selfreg/internal/ratelimit/store/bucket"
	"selfreg/internal/selfregister/gateway"
	selfregHandler "selfreg/internal/selfregister/handler"
	selfregMetrics "selfreg/internal/selfregister/metrics"
	"selfreg/internal/selfregister/notifier"
	"selfreg/internal/selfregister/service"
	pendingmemory "selfreg/internal/selfregister/store/memory"
	pendingpostgres "selfreg/internal/selfregister/store/postgres"
	pendingredis "selfreg/internal/selfregister/store/redis"
	"selfreg/pkg/domain"
	audit "selfreg/pkg/platform/audit"
	"selfreg/pkg/platform/audit/publisher"
	"selfreg/pkg/platform/audit/store/fallback"
	"selfreg/pkg/platform/audit/store/kafka"
	"selfreg/pkg/platform/audit/store/logstore"
	"selfreg/pkg/platform/circuit"
)

const auditBufferSize = 1024

// app holds the wired dependency graph shared by the serve and register
// commands.
type app struct {
	cfg        config.Server
	logger     *slog.Logger
	properties *config.Properties
	registry   *prometheus.Registry
	publisher  *publisher.Publisher
	manager    *gateway.Manager
	service    *service.Service

	closers []func()
}

func buildApp(ctx context.Context, cfg config.Server, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	props, err := config.LoadProperties(cfg.PropertiesFile)
	if err != nil {
		return nil, err
	}
	a.properties = props
	settings := config.NewSettings(cfg.EmailAsUsername, props)

	store, err := a.buildStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	auditStore, err := a.buildAuditStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.publisher = publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(logger),
	)
	a.closers = append(a.closers, a.publisher.Close)

	var confirmations gateway.Notifier = notifier.NewLog(logger)
	if cfg.SMTP.Host != "" {
		confirmations = notifier.NewSMTP(cfg.SMTP, logger)
	}

	a.manager = gateway.New(store, confirmations, settings,
		gateway.WithLogger(logger),
		gateway.WithUserStoreDomains(append([]string{cfg.PrimaryDomain}, cfg.UserStoreDomains...)...),
	)

	a.service = service.New(a.manager, settings,
		service.WithLogger(logger),
		service.WithAuditPublisher(a.publisher),
		service.WithMetrics(selfregMetrics.New(a.registry)),
		service.WithTracer(otel.Tracer("selfreg/selfregister")),
		service.WithResolver(service.NewIdentityResolver(
			domain.TenantDomain(cfg.SuperTenant),
			domain.UserStoreDomain(cfg.PrimaryDomain),
		)),
	)
	return a, nil
}

func (a *app) buildStore(ctx context.Context) (gateway.Store, error) {
	switch a.cfg.Store {
	case config.StoreRedis:
		client, err := redis.New(ctx, a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.logger.Info("pending registrations in redis")
		return pendingredis.New(client.Client, a.cfg.PendingTTL), nil
	case config.StorePostgres:
		db, err := postgres.Open(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		store := pendingpostgres.New(db, a.cfg.PendingTTL)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		a.logger.Info("pending registrations in postgres")
		return store, nil
	default:
		a.logger.Info("pending registrations in memory")
		return pendingmemory.New(), nil
	}
}

// buildAuditStore prefers Kafka, falling back to the log behind a circuit
// breaker while the broker is unreachable.
func (a *app) buildAuditStore(ctx context.Context) (audit.Store, error) {
	logStore := logstore.New(a.logger)
	if len(a.cfg.Kafka.Brokers) == 0 {
		return logStore, nil
	}
	kafkaStore, err := kafka.New(a.cfg.Kafka.Brokers, a.cfg.Kafka.AuditTopic)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, kafkaStore.Close)
	if err := kafkaStore.EnsureTopic(ctx, 3, 1); err != nil {
		a.logger.Warn("audit topic not ensured", "topic", a.cfg.Kafka.AuditTopic, "error", err)
	}
	return fallback.New(kafkaStore, logStore, circuit.New("audit-kafka"), a.logger), nil
}

func (a *app) router() http.Handler {
	var limiter ratelimitmw.RateLimiter
	if a.cfg.RateLimit.RPS > 0 {
		limiter = bucket.New(a.cfg.RateLimit.RPS, a.cfg.RateLimit.Burst, a.cfg.RateLimit.IdleTTL)
	}
	limits := ratelimitmw.New(limiter, a.logger,
		ratelimitmw.WithMetrics(ratelimitmetrics.New(a.registry)),
		ratelimitmw.WithAuditPublisher(a.publisher),
	)

	h := selfregHandler.New(a.service, a.logger,
		selfregHandler.WithMetrics(platformmetrics.New(a.registry)),
		selfregHandler.WithRateLimit(limits.RateLimitIP),
	)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	h.Register(r)
	return r
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
