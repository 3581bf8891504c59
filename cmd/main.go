package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/clients"
	"storefront/internal/delivery"
	grpcdelivery "storefront/internal/delivery/grpc"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/pkg/db"
	"storefront/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.LoadConfig(logger)
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
		logger.Warnf("Invalid LOG_LEVEL '%s', using default: %s", cfg.LogLevel, logLevel.String())
	}
	logger.SetLevel(logLevel)
	logger.Info("Starting Storefront...")
	logger.Infof("Store API target: %s", cfg.StoreAPIURL)

	ctx := context.Background()

	tp, err := tracing.InitTracerProvider(ctx, "storefront", cfg.TracingExporter, cfg.OtelEndpoint)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize tracer provider: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Errorf("Error shutting down tracer provider: %v", err)
		}
	}()

	stateRepo, err := openStateRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to open state store: %v", err)
	}
	defer stateRepo.Close()

	// --- Dependency Injection ---
	storeClient := clients.NewStoreHTTPClient(cfg.StoreAPIURL, cfg.RequestTimeout, logger)
	logger.Infof("Store API client initialized (timeout %s)", cfg.RequestTimeout)

	sessionUseCase := usecase.NewSessionUseCase(storeClient, stateRepo, cfg.ProfileUserID, logger)
	cartUseCase := usecase.NewCartUseCase(sessionUseCase, stateRepo, cfg.Shipping(), logger)
	sessionUseCase.OnLogout(cartUseCase.Clear)
	catalogUseCase := usecase.NewCatalogUseCase(sessionUseCase, cfg.PageSize, logger)
	authUseCase := usecase.NewAuthUseCase(storeClient, sessionUseCase, logger)
	orderUseCase := usecase.NewOrderUseCase(sessionUseCase, cfg.ProfileUserID, logger)
	logger.Info("Use cases initialized.")

	restoreSession(ctx, cartUseCase, sessionUseCase, cfg.RequestTimeout, logger)

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		if !stateRepo.Ping(c.Request.Context()) {
			delivery.ErrorResponse(c, http.StatusServiceUnavailable, "state store unavailable")
			return
		}
		delivery.SuccessResponse(c, http.StatusOK, "ok", sessionUseCase.Info())
	})

	delivery.NewProductHandler(catalogUseCase, logger).RegisterRoutes(router)
	delivery.NewAuthHandler(authUseCase, sessionUseCase, logger).RegisterRoutes(router)

	protected := router.Group("/")
	protected.Use(middleware.RequireSession(sessionUseCase, logger))
	{
		delivery.NewCartHandler(cartUseCase, logger).RegisterRoutes(protected)
		delivery.NewProfileHandler(sessionUseCase, orderUseCase, logger).RegisterRoutes(protected)
	}
	logger.Info("Routes registered.")

	// --- gRPC health ---
	lis, err := net.Listen("tcp", cfg.GrpcPort)
	if err != nil {
		logger.Fatalf("FATAL: Failed to listen on gRPC port %s: %v", cfg.GrpcPort, err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthHandler := grpcdelivery.NewHealthHandler(stateRepo, logger)
	healthHandler.Register(grpcServer)
	reflection.Register(grpcServer)

	healthCtx, stopHealth := context.WithCancel(ctx)
	defer stopHealth()
	go healthHandler.Run(healthCtx, 15*time.Second)

	go func() {
		logger.Infof("gRPC health server listening on %s", cfg.GrpcPort)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Errorf("Failed to serve gRPC: %v", err)
		}
	}()

	// --- Start Server ---
	srv := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Storefront listening on port %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Failed to start HTTP server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Warn("Shutdown signal received...")

	stopHealth()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown failed: %v", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Storefront shut down gracefully.")
}

func openStateRepository(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (domain.StateRepository, error) {
	var (
		repo domain.StateRepository
		err  error
	)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		repo = repository.NewMemoryStateRepository(logger)
	case config.StorageFile:
		repo = repository.NewFileStateRepository(cfg.StoragePath, logger)
	case config.StorageRedis:
		repo, err = repository.NewRedisStateRepository(cfg.RedisAddr, logger)
		if err != nil {
			return nil, err
		}
	case config.StoragePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		database, err := db.Connect(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("Database connection established.")
		repo = repository.NewPostgresStateRepository(database, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if err := repo.Initialize(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	logger.Infof("State store '%s' initialized.", cfg.StorageDriver)
	return repo, nil
}

// restoreSession re-hydrates the cart and token, then loads the profile of a restored session.
func restoreSession(ctx context.Context, cart usecase.CartUseCase, session usecase.SessionUseCase, timeout time.Duration, logger *logrus.Logger) {
	cart.Restore(ctx)
	if err := session.Restore(ctx); err != nil {
		logger.Warnf("Session restore failed: %v", err)
		return
	}
	if !session.IsAuthenticated() {
		return
	}

	profileCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := session.FetchCurrentProfile(profileCtx); err != nil {
		logger.Warnf("Could not load profile for restored session: %v", err)
	}
}
