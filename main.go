package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devrayanco/task-manager-api/internal/cache"
	"github.com/devrayanco/task-manager-api/internal/config"
	"github.com/devrayanco/task-manager-api/internal/domain"
	"github.com/devrayanco/task-manager-api/internal/handler"
	"github.com/devrayanco/task-manager-api/internal/repository/postgres"
	"github.com/devrayanco/task-manager-api/internal/repository/sqlite"
	"github.com/devrayanco/task-manager-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.DB)
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.DB.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied", "driver", cfg.DB.Driver)

	tokens, err := service.NewTokenService(service.TokenConfig{
		Key:      []byte(cfg.JWT.Key),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.TTL.Duration(),
	})
	if err != nil {
		slog.Error("invalid token configuration", "error", err)
		os.Exit(1)
	}

	var taskCache service.TaskListCache
	if cfg.Redis.Enabled() {
		redisOpts, err := cfg.Redis.Options()
		if err != nil {
			slog.Error("invalid redis configuration", "error", err)
			os.Exit(1)
		}
		rdb, err := cache.NewRedisClient(ctx, redisOpts)
		if err != nil {
			slog.Error("failed to connect to redis", "addr", redisOpts.Addr, "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		taskCache = cache.NewTaskCache(rdb, cfg.Redis.TTL.Duration())
		slog.Info("task list cache enabled",
			"addr", redisOpts.Addr,
			"tls", redisOpts.TLSConfig != nil,
			"ttl", cfg.Redis.TTL.Duration(),
		)
	}

	authService := service.NewAuthService(db.Users(), service.NewPasswordHasher(cfg.Auth.BcryptCost), tokens)
	taskService := service.NewTaskService(db.Tasks(), taskCache)
	userService := service.NewUserService(db.Users())
	loginLimiter := service.NewTokenBucket(ctx, cfg.Auth.LoginRate, cfg.Auth.LoginBurst)

	router := handler.NewRouter(handler.Deps{
		Auth:           authService,
		Tasks:          taskService,
		Users:          userService,
		Store:          db,
		LoginLimiter:   loginLimiter,
		AllowedOrigins: cfg.CORS.Origins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout:      cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:       cfg.HTTP.IdleTimeout.Duration(),
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openDatabase(ctx context.Context, cfg config.DBConfig) (domain.Database, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.New(cfg.Path)
	case "postgres":
		return postgres.New(ctx, cfg.PGDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}
