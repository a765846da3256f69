package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/carelink/carelink/backend/go-services/handlers"
	"github.com/carelink/carelink/backend/go-services/internal/auth"
	"github.com/carelink/carelink/backend/go-services/internal/care"
	"github.com/carelink/carelink/backend/go-services/internal/config"
	"github.com/carelink/carelink/backend/go-services/internal/database"
	"github.com/carelink/carelink/backend/go-services/internal/gateway"
	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/internal/passwords"
	"github.com/carelink/carelink/backend/go-services/internal/store"
	"github.com/carelink/carelink/backend/go-services/internal/store/recordstore"
	"github.com/carelink/carelink/backend/go-services/internal/tokens"
	"github.com/carelink/carelink/backend/go-services/internal/users"
	"github.com/carelink/carelink/backend/go-services/pkg/logger"
	"github.com/carelink/carelink/backend/go-services/pkg/metrics"
	"github.com/carelink/carelink/backend/go-services/pkg/middleware"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: env=%s primary=%q redis=%v demo=%v",
		cfg.Server.Environment, cfg.Store.Driver, cfg.Redis.Addr() != "", cfg.DemoMode)

	secret, err := cfg.SigningSecret()
	if err != nil {
		logger.Fatalf("%v", err)
	}
	issuer, err := tokens.NewIssuer(secret, tokens.ParseTTL(cfg.JWT.ExpiresIn))
	if err != nil {
		logger.Fatalf("token issuer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	primary := database.NewPrimary(cfg.Store)
	records, err := recordstore.New(cfg.Store.RecordDir, models.Schemas()...)
	if err != nil {
		logger.Fatalf("record store: %v", err)
	}
	gw := gateway.New(store.NewLazy(primary.Connector(), cfg.Store.RetryCooldown), records, models.Schemas()...)
	if cfg.Store.Driver == config.DriverNone {
		logger.Infof("no primary store configured; serving from %s", cfg.Store.RecordDir)
	}

	userRepo := users.NewRepository(gw)
	deps := handlers.Deps{
		Auth:          auth.NewService(userRepo, passwords.NewVerifier(cfg.DemoMode), issuer),
		Users:         users.NewService(userRepo),
		Patients:      care.NewPatientService(gw),
		Beds:          care.NewBedService(gw),
		Notifications: care.NewNotificationService(gw),
		Verifier:      issuer,
		Status:        gw.Status,
		Middleware:    []gin.HandlerFunc{gin.Logger(), gin.Recovery()},
	}

	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)
	deps.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	var rdb *redis.Client
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && cfg.Redis.Addr() != "" {
			rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				logger.Warnf("redis %s unreachable, login limiter stays in memory: %v", cfg.Redis.Addr(), err)
				_ = rdb.Close()
				rdb = nil
			}
			cancel()
		}
		win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		deps.LoginLimit = middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
	}

	if cfg.Server.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handlers.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Errorf("server failed: %v", err)
	case <-ctx.Done():
		logger.Infof("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := primary.Close(shutdownCtx); err != nil {
		logger.Warnf("closing primary store: %v", err)
	}
}
