// Command server runs the auth service HTTP API.
//
// @title                       Auth Service API
// @version                     1.0
// @description                 Credential registration, login and bearer-token authentication with role-based access.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/99minutos/auth-service/docs"
	"github.com/99minutos/auth-service/internal/api"
	"github.com/99minutos/auth-service/internal/api/handler"
	"github.com/99minutos/auth-service/internal/core/service"
	"github.com/99minutos/auth-service/internal/infrastructure/config"
	"github.com/99minutos/auth-service/internal/infrastructure/crypto"
	mongostore "github.com/99minutos/auth-service/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/auth-service/internal/infrastructure/db/redis"
	"github.com/99minutos/auth-service/internal/infrastructure/queue"
	"github.com/99minutos/auth-service/internal/infrastructure/token"
	"github.com/99minutos/auth-service/pkg/logger"
)

const (
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		// Logger may not be initialised yet when config loading fails.
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		l.Fatal().Err(err).Msg("auth service stopped")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "auth-service",
	})
	mainLog := logger.Component("main")
	mainLog.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Dur("jwt_ttl", cfg.Auth.JWTTTL).
		Int("login_max_attempts", cfg.Auth.LoginMaxAttempts).
		Bool("admin_signup", cfg.Auth.AllowAdminSignup).
		Msg("configuration loaded")

	// --- Storage ---
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	mongoClient, db, err := mongostore.Connect(startCtx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, dcancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer dcancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	if err := mongostore.EnsureIndexes(startCtx, db); err != nil {
		return err
	}

	rdb, err := redisstore.Connect(startCtx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Security primitives ---
	codec, err := token.NewCodec(cfg.TokenConfig())
	if err != nil {
		return err
	}
	hasher := crypto.NewBcryptHasher(cfg.Auth.BcryptCost)

	// --- Audit trail ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, mongostore.NewAuditRepository(db), log)
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Services ---
	users := mongostore.NewUserRepository(db)
	resolver := service.NewIdentityResolver(users)
	userService := service.NewUserService(users, hasher, dispatcher, log)
	login, err := service.NewLoginAuthenticator(resolver, hasher, log)
	if err != nil {
		return err
	}
	authService := service.NewAuthService(
		users,
		hasher,
		login,
		codec,
		log,
		service.WithLoginLimiter(redisstore.NewLoginLimiter(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)),
		service.WithAuditSink(dispatcher),
		service.WithAdminSignup(cfg.Auth.AllowAdminSignup),
	)

	if err := userService.EnsureAdmin(startCtx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		return err
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		AuthService:   authService,
		UserService:   userService,
		Authenticator: service.NewRequestAuthenticator(codec, resolver, log),
		Readiness: []handler.Dependency{
			handler.MongoDependency(db),
			handler.RedisDependency(rdb),
		},
		Log: log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		mainLog.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		mainLog.Info().Msg("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.Error().Err(err).Msg("http server shutdown")
	}
	mainLog.Info().Msg("graceful shutdown completed")
	return nil
}
