// cmd/catalogservice/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"google.golang.org/grpc"

	httpAPI "catalog-service/internal/api"
	"catalog-service/internal/config"
	grpcServer "catalog-service/internal/grpc"
	"catalog-service/internal/logging"
	"catalog-service/internal/recommend"
	"catalog-service/internal/storage"
	"catalog-service/internal/store"
	"catalog-service/pkg/auth"
)

// stores - набор хранилищ, выбранный по конфигурации.
type stores struct {
	users   store.UserStore
	movies  store.MovieStore
	ratings store.RatingStore
	health  httpAPI.HealthCheck
	db      *sqlx.DB
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("catalog-service stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer func() {
			logger.Info("Closing PostgreSQL connection...")
			if err := st.db.Close(); err != nil {
				logger.Error("Failed to close PostgreSQL connection", slog.String("error", err.Error()))
			}
		}()
	}

	covers, err := openCoverStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	engine, err := recommend.NewEngine(st.ratings, cfg.Recommend, logger)
	if err != nil {
		return fmt.Errorf("failed to create recommendation engine: %w", err)
	}
	tokenManager, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}

	// --- gRPC сервер ---
	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on port %s: %w", cfg.Server.GRPCPort, err)
	}
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(grpcServer.LoggingInterceptor(logger)))
	grpcServer.RegisterCatalogInterServiceServer(grpcSrv, grpcServer.NewServer(st.movies, engine, logger))

	// --- HTTP сервер ---
	handler := httpAPI.NewHandler(httpAPI.Deps{
		Users:         st.users,
		Movies:        st.movies,
		Ratings:       st.ratings,
		Engine:        engine,
		Covers:        covers,
		TokenManager:  tokenManager,
		Validator:     validator.New(),
		Logger:        logger,
		MaxCoverBytes: cfg.Storage.MaxUploadBytes,
		Health:        st.health,
	})
	httpSrv := &http.Server{
		Addr: ":" + cfg.Server.HTTPPort,
		Handler: httpAPI.NewHTTPRouter(handler, httpAPI.RouterOptions{
			CORSOrigins:       cfg.Server.CORSOrigins,
			RateLimitRequests: cfg.Server.RateLimitRequests,
			RateLimitWindow:   cfg.Server.RateLimitWindow,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gRPC server starting", slog.String("port", cfg.Server.GRPCPort))
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("gRPC server failed: %w", err)
		}
	}()
	go func() {
		logger.Info("HTTP server starting", slog.String("port", cfg.Server.HTTPPort),
			slog.String("policy", string(cfg.Recommend.Policy)))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errCh:
		logger.Error("Server failed, shutting down", slog.String("error", runErr.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}
	grpcSrv.GracefulStop()
	logger.Info("gRPC server gracefully stopped")
	return runErr
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if !cfg.UsesPostgres() {
		logger.Warn("DATABASE_URL is not set, using in-memory stores (data is lost on restart)")
		movies := store.NewMockMovieStore()
		return &stores{
			users:   store.NewMockUserStore(),
			movies:  movies,
			ratings: store.NewMockRatingStore(movies),
		}, nil
	}

	db, err := store.Connect(ctx, cfg.Database.URL, store.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := store.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Database schema ensured")
	}

	users, err := store.NewPostgresUserStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	movies, err := store.NewPostgresMovieStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	ratings, err := store.NewPostgresRatingStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &stores{
		users:   users,
		movies:  movies,
		ratings: ratings,
		health:  db.PingContext,
		db:      db,
	}, nil
}

func openCoverStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.CoverStore, error) {
	if !cfg.UsesS3() {
		logger.Warn("S3_BUCKET is not set, covers are kept in memory")
		return storage.NewMemoryCoverStore(cfg.Storage.PublicBaseURL), nil
	}
	s3Store, err := storage.NewS3CoverStore(ctx, storage.S3Config{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
		UploadTimeout:   cfg.Storage.UploadTimeout,
		BreakerFailures: cfg.Storage.BreakerFailures,
		BreakerTimeout:  cfg.Storage.BreakerTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("S3 cover store initialized", slog.String("bucket", cfg.Storage.Bucket), slog.String("region", cfg.Storage.Region))
	return s3Store, nil
}
