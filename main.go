package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/sorrel/config"
	"github.com/Ramsey-B/sorrel/internal/repositories/alias"
	"github.com/Ramsey-B/sorrel/internal/repositories/blocklist"
	"github.com/Ramsey-B/sorrel/internal/repositories/catalog"
	"github.com/Ramsey-B/sorrel/internal/repositories/decisionlog"
	"github.com/Ramsey-B/sorrel/internal/repositories/entity"
	"github.com/Ramsey-B/sorrel/internal/repositories/importrecord"
	"github.com/Ramsey-B/sorrel/internal/repositories/override"
	"github.com/Ramsey-B/sorrel/pkg/database"
	"github.com/Ramsey-B/sorrel/pkg/events"
	"github.com/Ramsey-B/sorrel/pkg/kafka"
	"github.com/Ramsey-B/sorrel/pkg/learning"
	"github.com/Ramsey-B/sorrel/pkg/matching"
	"github.com/Ramsey-B/sorrel/pkg/middleware"
	"github.com/Ramsey-B/sorrel/pkg/processor"
	"github.com/Ramsey-B/sorrel/pkg/redis"
	"github.com/Ramsey-B/sorrel/pkg/resolution"
	"github.com/Ramsey-B/sorrel/pkg/routes/aliases"
	"github.com/Ramsey-B/sorrel/pkg/routes/blocks"
	"github.com/Ramsey-B/sorrel/pkg/routes/health"
	"github.com/Ramsey-B/sorrel/pkg/routes/imports"
	"github.com/Ramsey-B/sorrel/pkg/routes/overrides"
	"github.com/Ramsey-B/sorrel/pkg/routes/registry"
	"github.com/Ramsey-B/sorrel/pkg/routes/resolve"
	settingsroutes "github.com/Ramsey-B/sorrel/pkg/routes/settings"
	"github.com/Ramsey-B/sorrel/pkg/settings"
	"github.com/Ramsey-B/sorrel/pkg/suggestions"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger := newLogger(cfg)
	ctx := context.Background()

	matchSettings, err := settings.Load()
	if err != nil {
		logger.WithError(err).Error("Failed to load match settings")
		os.Exit(1)
	}

	tracerProvider := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tracerProvider)
	tracing.SetTracer(tracerProvider.Tracer(cfg.AppName))

	db, err := database.Connect(ctx, database.Config{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.DatabaseMigrationFolderPath, cfg.DatabaseName, logger); err != nil {
		logger.WithError(err).Error("Failed to run migrations")
		os.Exit(1)
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to Redis")
		os.Exit(1)
	}
	defer redisClient.Close()

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaAuditTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	defer producer.Close()
	emitter := events.NewEmitter(producer, logger)

	// Repositories
	entityRepo := entity.NewRepository(db, logger)
	aliasRepo := alias.NewRepository(db, logger)
	overrideRepo := override.NewRepository(db, logger)
	blockRepo := blocklist.NewRepository(db, logger)
	decisionRepo := decisionlog.NewRepository(db, logger)
	recordRepo := importrecord.NewRepository(db, logger)
	catalogStore := catalog.NewStore(entityRepo, aliasRepo, overrideRepo)
	suggestionCache := suggestions.NewCache(redisClient, logger)

	// Matching engine
	generator := matching.NewGenerator(logger, matchSettings, suggestionCache, blockRepo)
	fastMatcher := matching.NewFastMatcher(logger, matchSettings, suggestionCache, blockRepo)
	detector := matching.NewDetector(matchSettings)
	loop := learning.NewLoop(logger, aliasRepo, decisionRepo, entityRepo, suggestionCache, blockRepo)
	orchestrator := resolution.NewOrchestrator(logger, matchSettings, catalogStore, fastMatcher, generator, detector, recordRepo, entityRepo, emitter)
	service := resolution.NewService(logger, catalogStore, generator, fastMatcher, loop)

	registerDependencies(logger, matchSettings, service, orchestrator, recordRepo, entityRepo, aliasRepo, overrideRepo, blockRepo)

	// Batch trigger consumer
	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		proc := processor.NewProcessor(orchestrator, logger)
		consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaTriggerTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, logger, proc.HandleTrigger)
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start consumer")
			os.Exit(1)
		}
	}

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker := health.NewChecker(db, redisClient, version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	resolve.Register(api)
	settingsroutes.Register(api.Group("/settings"))
	imports.Register(api.Group("/imports"))
	registry.Register(api.Group("/entities"))
	aliases.Register(api.Group("/aliases"))
	overrides.Register(api.Group("/overrides"))
	blocks.Register(api.Group("/blocks"))

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil {
			logger.WithError(err).Info("HTTP server stopped")
		}
	}()
	checker.SetReady(true)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.WithError(err).Error("Failed to stop consumer")
		}
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down HTTP server")
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

// registerDependencies exposes the handler-facing services through the
// DI container the routes resolve from.
func registerDependencies(
	logger ectologger.Logger,
	matchSettings *settings.Store,
	service *resolution.Service,
	orchestrator *resolution.Orchestrator,
	recordRepo *importrecord.Repository,
	entityRepo *entity.Repository,
	aliasRepo *alias.Repository,
	overrideRepo *override.Repository,
	blockRepo *blocklist.Repository,
) {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		logger.WithError(err).Error("Failed to create DI container")
		os.Exit(1)
	}

	mustRegister(logger, ectoinject.RegisterInstance[ectologger.Logger](container, logger))
	mustRegister(logger, ectoinject.RegisterInstance[*settings.Store](container, matchSettings))
	mustRegister(logger, ectoinject.RegisterInstance[*resolution.Service](container, service))
	mustRegister(logger, ectoinject.RegisterInstance[*resolution.Orchestrator](container, orchestrator))
	mustRegister(logger, ectoinject.RegisterInstance[*importrecord.Repository](container, recordRepo))
	mustRegister(logger, ectoinject.RegisterInstance[*entity.Repository](container, entityRepo))
	mustRegister(logger, ectoinject.RegisterInstance[*alias.Repository](container, aliasRepo))
	mustRegister(logger, ectoinject.RegisterInstance[*override.Repository](container, overrideRepo))
	mustRegister(logger, ectoinject.RegisterInstance[*blocklist.Repository](container, blockRepo))
}

func mustRegister(logger ectologger.Logger, err error) {
	if err != nil {
		logger.WithError(err).Error("Failed to register dependency")
		os.Exit(1)
	}
}
