package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-auth-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-auth-api/internal/middleware"
	"github.com/noah-isme/sma-auth-api/internal/repository"
	"github.com/noah-isme/sma-auth-api/internal/service"
	"github.com/noah-isme/sma-auth-api/pkg/cache"
	"github.com/noah-isme/sma-auth-api/pkg/config"
	"github.com/noah-isme/sma-auth-api/pkg/database"
	"github.com/noah-isme/sma-auth-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-auth-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-auth-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-auth-api/pkg/token"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	encoding, err := token.ParseSecretEncoding(cfg.JWT.SecretEncoding)
	if err != nil {
		log.Fatalf("invalid JWT_SECRET_ENCODING: %v", err)
	}
	codec, err := token.NewCodec(token.Config{
		Secret:         cfg.JWT.Secret,
		SecretEncoding: encoding,
		Issuer:         cfg.JWT.Issuer,
		Audience:       cfg.JWT.Audience,
		Lifetime:       cfg.JWT.Lifetime(),
		Logger:         logr,
	})
	if err != nil {
		log.Fatalf("invalid token configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if err := repository.EnsureRevocationSchema(ctx, db); err != nil {
		logr.Fatal("failed to apply revocation schema", zap.Error(err))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}

	metrics := service.NewMetricsService()
	revocationRepo := repository.NewRevocationRepository(db)
	revocationCache := repository.NewRevocationCacheRepository(redisClient, logr)
	defer revocationCache.Close() //nolint:errcheck

	revocationCfg := service.RevocationConfig{StoreTimeout: cfg.Revocation.StoreTimeout}
	var revocations *service.RevocationService
	if revocationCache.Enabled() {
		revocations = service.NewRevocationService(revocationRepo, revocationCache, metrics, logr, revocationCfg)
	} else {
		revocations = service.NewRevocationService(revocationRepo, nil, metrics, logr, revocationCfg)
	}

	authenticator, err := service.NewStaticAuthenticator(cfg.Admin.Email, cfg.Admin.Password, 0)
	if err != nil {
		logr.Fatal("failed to init authenticator", zap.Error(err))
	}
	sessions := service.NewSessionService(codec, revocations, authenticator, validator.New(), metrics, logr)

	if cfg.Revocation.PruneEnabled {
		pruner, err := service.NewRevocationPruner(revocations, cfg.Revocation.PruneSchedule, cfg.Revocation.PruneRetries, logr)
		if err != nil {
			logr.Fatal("failed to init revocation pruner", zap.Error(err))
		}
		if err := pruner.Start(ctx); err != nil {
			logr.Fatal("failed to start revocation pruner", zap.Error(err))
		}
		defer pruner.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.NewSessionHandler(sessions), handler.NewHealthHandler(metrics, revocationRepo, logr))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
