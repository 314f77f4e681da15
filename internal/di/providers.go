package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"

	"github.com/omniagentpay/application-layer-sub001/internal/abuse"
	"github.com/omniagentpay/application-layer-sub001/internal/app"
	"github.com/omniagentpay/application-layer-sub001/internal/config"
	"github.com/omniagentpay/application-layer-sub001/internal/database"
	"github.com/omniagentpay/application-layer-sub001/internal/gateway"
	httpapi "github.com/omniagentpay/application-layer-sub001/internal/http"
	"github.com/omniagentpay/application-layer-sub001/internal/http/handler"
	"github.com/omniagentpay/application-layer-sub001/internal/observability"
	"github.com/omniagentpay/application-layer-sub001/internal/receipt"
	"github.com/omniagentpay/application-layer-sub001/internal/repository"
	"github.com/omniagentpay/application-layer-sub001/internal/security"
	"github.com/omniagentpay/application-layer-sub001/internal/service"
	"github.com/omniagentpay/application-layer-sub001/internal/store"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(provideLogger, provideTracing)

var InfraSet = wire.NewSet(provideDB, provideTracker, provideBackend, provideArchiver, provideTokenParser)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewIntentRepository,
	repository.NewGuardRepository,
)

var ServiceSet = wire.NewSet(provideIntentStore, provideGuardRegistry, providePaymentService)

var HTTPSet = wire.NewSet(
	handler.NewIntentHandler,
	handler.NewGuardHandler,
	httpapi.NewRouter,
	provideServer,
)

var AppSet = wire.NewSet(app.New)

func provideLogger(cfg *config.Config) *slog.Logger {
	return observability.NewLogger(cfg.Env, cfg.LogLevel)
}

func provideTracing(cfg *config.Config, logger *slog.Logger) (*sdktrace.TracerProvider, error) {
	return observability.InitTracing(context.Background(), cfg, logger)
}

func provideDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func provideTracker(cfg *config.Config, logger *slog.Logger) abuse.Tracker {
	opts := abuse.Options{
		Window:    cfg.AbuseWindow,
		Threshold: cfg.AbuseThreshold,
		BlockFor:  cfg.AbuseBlockFor,
		Retention: cfg.AbuseRetention,
	}
	if cfg.RedisURL != "" {
		if redisOpts, err := redis.ParseURL(cfg.RedisURL); err == nil {
			return abuse.NewRedisTracker(redis.NewClient(redisOpts), "abuse", opts, logger)
		}
		logger.Warn("invalid REDIS_URL, falling back to local abuse tracker")
	}
	return abuse.NewLocalTracker(opts, logger)
}

func provideBackend(cfg *config.Config, logger *slog.Logger) gateway.Backend {
	return gateway.NewClient(cfg.BackendBaseURL, cfg.BackendAPIKey, cfg.BackendTimeout, logger)
}

func provideArchiver(cfg *config.Config, logger *slog.Logger) receipt.Archiver {
	if !cfg.ReceiptsConfigured() {
		return receipt.NoopArchiver{}
	}
	archiver, err := receipt.NewMinIOArchiver(
		cfg.ReceiptsEndpoint,
		cfg.ReceiptsAccessKey,
		cfg.ReceiptsSecretKey,
		cfg.ReceiptsBucket,
		cfg.ReceiptsUseSSL,
	)
	if err != nil {
		logger.Warn("receipt storage unavailable, receipts disabled", "error", err.Error())
		return receipt.NoopArchiver{}
	}
	return archiver
}

func provideTokenParser(cfg *config.Config) *security.TokenParser {
	return security.NewTokenParser(cfg.IdentitySecret)
}

func provideIntentStore(repo repository.IntentRepository, logger *slog.Logger, cfg *config.Config) (*store.IntentStore, error) {
	s := store.NewIntentStore(repo, logger, cfg.WriteQueueSize)
	if err := s.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("load intents: %w", err)
	}
	return s, nil
}

func provideGuardRegistry(repo repository.GuardRepository, logger *slog.Logger) (*service.GuardRegistry, error) {
	registry := service.NewGuardRegistry(repo, logger)
	if err := registry.Load(context.Background()); err != nil {
		return nil, err
	}
	return registry, nil
}

func providePaymentService(
	intents *store.IntentStore,
	guards *service.GuardRegistry,
	backend gateway.Backend,
	receipts receipt.Archiver,
	logger *slog.Logger,
	cfg *config.Config,
) service.PaymentService {
	return service.NewPaymentService(intents, guards, backend, receipts, logger, cfg.HomeChain, cfg.BackendTimeout)
}

func provideServer(cfg *config.Config, router http.Handler) *http.Server {
	return &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}
}
