package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/parlwatch/hemicycle/config"
	"github.com/parlwatch/hemicycle/internal/repositories/audit"
	"github.com/parlwatch/hemicycle/internal/repositories/committee"
	"github.com/parlwatch/hemicycle/internal/repositories/event"
	"github.com/parlwatch/hemicycle/internal/repositories/membership"
	"github.com/parlwatch/hemicycle/internal/repositories/mep"
	"github.com/parlwatch/hemicycle/internal/repositories/syncrun"
	"github.com/parlwatch/hemicycle/internal/repositories/user"
	"github.com/parlwatch/hemicycle/pkg/cache"
	"github.com/parlwatch/hemicycle/pkg/database"
	"github.com/parlwatch/hemicycle/pkg/events"
	"github.com/parlwatch/hemicycle/pkg/httpclient"
	"github.com/parlwatch/hemicycle/pkg/kafka"
	"github.com/parlwatch/hemicycle/pkg/middleware"
	"github.com/parlwatch/hemicycle/pkg/redis"
	"github.com/parlwatch/hemicycle/pkg/resolver"
	"github.com/parlwatch/hemicycle/pkg/routes/committees"
	"github.com/parlwatch/hemicycle/pkg/routes/dashboard"
	"github.com/parlwatch/hemicycle/pkg/routes/exports"
	"github.com/parlwatch/hemicycle/pkg/routes/filters"
	"github.com/parlwatch/hemicycle/pkg/routes/health"
	"github.com/parlwatch/hemicycle/pkg/routes/meps"
	"github.com/parlwatch/hemicycle/pkg/routes/monitoring"
	"github.com/parlwatch/hemicycle/pkg/routes/syncroutes"
	"github.com/parlwatch/hemicycle/pkg/sources"
	"github.com/parlwatch/hemicycle/pkg/sync"
	"github.com/parlwatch/hemicycle/pkg/tracing"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	zapLogger, err := newZapLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	defer zapLogger.Sync() //nolint:errcheck
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	if cfg.TracingEnabled {
		shutdown, err := initTracing(cfg)
		if err != nil {
			logger.WithError(err).Error("Failed to initialize tracing")
		} else {
			defer shutdown(context.Background())
		}
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Service exited with error")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger ectologger.Logger) error {
	sqlxDB, err := database.Connect(database.ConnectConfig{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		RetryCount:      cfg.DatabaseReconnectRetryCount,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer sqlxDB.Close()

	driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
	if err != nil {
		return err
	}
	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		return err
	}

	db := database.NewDatabaseInstance(sqlxDB, logger)

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
	}
	emitter := events.NewEmitter(producer, logger)

	responses := cache.New(cache.Config{JanitorInterval: cfg.CacheJanitorInterval})
	defer responses.Stop()

	mepRepo := mep.NewRepository(db, logger)
	committeeRepo := committee.NewRepository(db, logger)
	membershipRepo := membership.NewRepository(db, logger)
	auditRepo := audit.NewRepository(db, logger)
	runRepo := syncrun.NewRepository(db, logger)
	eventRepo := event.NewRepository(db, logger)
	userRepo := user.NewRepository(db, logger)

	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.SourceRequestTimeout
	sourceClient := httpclient.NewClient(clientCfg, logger)
	adapters := []sources.Adapter{
		sources.NewEuroparlAdapter(sourceClient, cfg.EuroparlBaseURL, logger),
	}
	if cfg.CivicDataBaseURL != "" {
		budget := sources.NewRequestBudget(cfg.CivicDataBudgetLimit, cfg.CivicDataBudgetWindow)
		adapters = append(adapters, sources.NewCivicDataAdapter(sourceClient, cfg.CivicDataBaseURL, cfg.CivicDataAPIKey, budget, logger))
	}

	dedup := resolver.New(mepRepo, membershipRepo, auditRepo, logger)
	runLock := sync.NewRedisRunLock(redis.NewLocker(redisClient, ""), cfg.SyncLockTTL)
	orchestrator := sync.New(
		adapters,
		mepRepo,
		committeeRepo,
		membershipRepo,
		eventRepo,
		runRepo,
		auditRepo,
		dedup,
		emitter,
		responses,
		runLock,
		logger,
		sync.Config{ExpectedMaxMEPs: cfg.ExpectedMaxMEPs, EventRetention: cfg.EventRetention},
	)

	scheduler, err := sync.NewScheduler(orchestrator, sync.SchedulerConfig{
		TriggerAt:  cfg.SyncScheduleTime,
		Timezone:   cfg.SyncTimezone,
		RetryAfter: cfg.SyncRetryAfter,
	}, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}
	if err := registerDependencies(container, logger, db, mepRepo, committeeRepo, membershipRepo, auditRepo, runRepo, eventRepo, userRepo, responses, orchestrator, scheduler); err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	limiter := redis.NewRateLimiter(redisClient, "")
	api := e.Group("/api", middleware.RateLimit(limiter, middleware.RateLimitConfig{
		General: middleware.Budget{Name: "general", Limit: cfg.RateLimitGeneral, Window: cfg.RateLimitGeneralWindow},
		Export:  middleware.Budget{Name: "export", Limit: cfg.RateLimitExport, Window: cfg.RateLimitExportWindow},
		Admin:   middleware.Budget{Name: "admin", Limit: cfg.RateLimitAdmin, Window: cfg.RateLimitAdminWindow},
	}, logger))

	meps.Register(api.Group("/meps"))
	committees.Register(api.Group("/committees"))
	dashboard.Register(api.Group("/dashboard"))
	filters.Register(api.Group("/filters"))
	exports.Register(api.Group("/export"))
	syncroutes.Register(api.Group("/sync"))
	monitoring.Register(api.Group("/monitoring/admin"))

	checker := health.NewChecker(sqlxDB, redisClient, cfg.Version)
	checker.RegisterRoutes(e)
	checker.SetReady(true)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting %s on port %d", cfg.AppName, cfg.Port)
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Infof("Received signal %s, shutting down", sig)
	}

	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func registerDependencies(
	container ectocontainer.DIContainer,
	logger ectologger.Logger,
	db database.DB,
	mepRepo *mep.Repository,
	committeeRepo *committee.Repository,
	membershipRepo *membership.Repository,
	auditRepo *audit.Repository,
	runRepo *syncrun.Repository,
	eventRepo *event.Repository,
	userRepo *user.Repository,
	responses *cache.Cache,
	orchestrator *sync.Orchestrator,
	scheduler *sync.Scheduler,
) error {
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[database.DB](container, db); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*mep.Repository](container, mepRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*committee.Repository](container, committeeRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*membership.Repository](container, membershipRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*audit.Repository](container, auditRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*syncrun.Repository](container, runRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*event.Repository](container, eventRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*user.Repository](container, userRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*cache.Cache](container, responses); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*sync.Orchestrator](container, orchestrator); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[*sync.Scheduler](container, scheduler)
}

func newZapLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.PrettyLogs {
		return zap.NewDevelopment()
	}

	zapCfg := zap.NewProductionConfig()
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}
	return zapCfg.Build()
}

func initTracing(cfg config.Config) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	tracing.SetTracer(provider.Tracer(cfg.AppName))

	return provider.Shutdown, nil
}
