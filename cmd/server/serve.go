package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	cloudinaryInfra "github.com/fastygo/taskboard/internal/infrastructure/cloudinary"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	"github.com/fastygo/taskboard/internal/infrastructure/rabbitmq"
	redisInfra "github.com/fastygo/taskboard/internal/infrastructure/redis"
	"github.com/fastygo/taskboard/internal/middleware"
	"github.com/fastygo/taskboard/internal/router"
	"github.com/fastygo/taskboard/internal/services"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository/postgres"
	redisRepo "github.com/fastygo/taskboard/repository/redis"
	"github.com/fastygo/taskboard/usecase"
	authUC "github.com/fastygo/taskboard/usecase/auth"
	metricsUC "github.com/fastygo/taskboard/usecase/metrics"
	profileUC "github.com/fastygo/taskboard/usecase/profile"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	loc, _ := cfg.Location()

	zapLogger := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding}).
		With(zap.String("app", cfg.AppName), zap.String("env", cfg.Environment))
	defer func() { _ = zapLogger.Sync() }()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.WaitForSignal(parent)
	defer stop()

	if cfg.Migrations.Enabled {
		if err := pgInfra.Migrate(cfg, pgInfra.Up, zapLogger); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	manager.Register("postgres", func(context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
	if err != nil {
		_ = manager.Shutdown(context.Background())
		return fmt.Errorf("redis: %w", err)
	}
	manager.Register("redis", func(context.Context) error {
		return redisClient.Close()
	})

	bufferStore, err := buffer.Open(cfg.Buffer.Path, cfg.Buffer.Bucket, cfg.Buffer.MaxSize)
	if err != nil {
		_ = manager.Shutdown(context.Background())
		return fmt.Errorf("buffer store: %w", err)
	}
	manager.Register("buffer", func(context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(monitor.Probes{
		Postgres: func(ctx context.Context) error { return pgInfra.Ping(ctx, pool) },
		Redis:    func(ctx context.Context) error { return redisInfra.Ping(ctx, redisClient) },
		Buffer:   bufferStore,
	}, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := redisRepo.NewTaskCache(postgres.NewTaskRepository(pool), redisClient, cfg.Cache.TasksTTL, zapLogger)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.TTL)

	bufferProcessor := services.NewBufferProcessor(bufferStore, mon, userRepo, taskRepo, zapLogger, services.ProcessorConfig{
		Interval:   cfg.Buffer.SyncInterval,
		BatchSize:  cfg.Buffer.BatchSize,
		MaxRetries: cfg.Buffer.MaxRetry,
		Retention:  cfg.Buffer.Retention,
	})
	bufferProcessor.Start()
	manager.Register("buffer_processor", func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})
	bufferBridge := services.NewBufferBridge(bufferProcessor)

	events, err := newEventPublisher(cfg, zapLogger)
	if err != nil {
		_ = manager.Shutdown(context.Background())
		return err
	}
	if closer, ok := events.(interface{ Close() error }); ok {
		manager.Register("events", func(context.Context) error { return closer.Close() })
	}

	var uploader usecase.AvatarUploader
	if cfg.Cloudinary.Enabled() {
		u, err := cloudinaryInfra.New(cfg.Cloudinary, cfg.Breaker, zapLogger)
		if err != nil {
			_ = manager.Shutdown(context.Background())
			return err
		}
		uploader = u
	} else {
		zapLogger.Warn("cloudinary not configured, avatar uploads disabled")
	}

	authUseCase := authUC.New(userRepo, sessionRepo, authUC.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		SessionTTL: cfg.JWT.TTL,
	}, zapLogger)
	taskUseCase := taskUC.New(taskRepo, bufferBridge, events, zapLogger)
	profileUseCase := profileUC.New(userRepo, uploader, bufferBridge, zapLogger)
	metricsUseCase := metricsUC.New(userRepo, taskRepo, loc, zapLogger)

	opts := apiHandler.Options{
		Adapter: httpcontext.NewAdapter(cfg.Context.RequestTimeout),
		Logger:  zapLogger,
		Debug:   cfg.IsDevelopment(),
	}
	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, opts),
		Profile: apiHandler.NewProfileHandler(profileUseCase, opts),
		Metrics: apiHandler.NewMetricsHandler(metricsUseCase, opts),
		Task:    apiHandler.NewTaskHandler(taskUseCase, opts),
		Health:  apiHandler.NewHealthHandler(mon, opts),
	}
	r := router.New(handlers, middleware.Auth(authUseCase, cfg.Context.RequestTimeout, zapLogger))

	server := &fasthttp.Server{
		Handler:            r.Handler,
		Name:               cfg.AppName,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		MaxRequestBodySize: cfg.HTTP.MaxBodySize,
		ErrorHandler:       apiHandler.RequestErrorHandler(opts),
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		serverErr <- server.ListenAndServe(cfg.Address())
	}()
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	var runErr error
	select {
	case <-appCtx.Done():
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
	return runErr
}

func newEventPublisher(cfg *config.Config, log *zap.Logger) (usecase.EventPublisher, error) {
	if cfg.RabbitMQ.URL == "" {
		return rabbitmq.NewNoop(log), nil
	}
	publisher, err := rabbitmq.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: %w", err)
	}
	return publisher, nil
}
