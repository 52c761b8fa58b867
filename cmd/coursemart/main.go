package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/coursemart/coursemart/internal/app"
	"github.com/coursemart/coursemart/internal/auth"
	"github.com/coursemart/coursemart/internal/courses"
	"github.com/coursemart/coursemart/internal/observability"
	"github.com/coursemart/coursemart/internal/platform/cache"
	"github.com/coursemart/coursemart/internal/platform/db"
	"github.com/coursemart/coursemart/internal/rbac"
	"github.com/coursemart/coursemart/internal/users"
	"github.com/coursemart/coursemart/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.WithMaxConns(cfg.PGMaxConns), db.WithConnLifetime(cfg.PGConnMaxLife))
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.TokenRevocation {
		redisClient, err = cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	codec, err := auth.NewCodec(cfg.JWTSecret, auth.WithTTL(cfg.TokenTTL))
	if err != nil {
		logger.Error("init token codec", slog.Any("error", err))
		os.Exit(1)
	}

	resolverOpts := []auth.ResolverOption{auth.WithCookieName(cfg.AuthCookieName)}
	var revoker auth.Revoker
	if redisClient != nil {
		revocations := auth.NewRedisRevocations(redisClient)
		resolverOpts = append(resolverOpts, auth.WithRevocations(revocations))
		revoker = revocations
	}
	resolver := auth.NewResolver(codec, resolverOpts...)

	metrics := observability.NewMetrics()
	gate := rbac.NewGate(resolver, logger, metrics)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	authService := auth.NewService(auth.NewRepository(pool), codec, revoker, cfg.BcryptCost)
	cookies := auth.NewCookieWriter(cfg.AuthCookieName, cfg.IsProduction(), cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authService, resolver, gate, cookies)

	courseService := courses.NewService(courses.NewRepository(pool), jobClient, logger)
	coursesHandler := courses.NewHandler(logger, courseService, gate)

	usersService := users.NewService(users.NewRepository(pool))
	usersHandler := users.NewHandler(logger, usersService, gate)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        authHandler,
		CoursesHandler:     coursesHandler,
		UsersHandler:       usersHandler,
		PermissionsHandler: rbac.NewPermissionsHandler(gate),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Bool("token_revocation", cfg.TokenRevocation))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
