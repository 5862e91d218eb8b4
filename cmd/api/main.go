package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/luisfigueroa/merchantflow-backend/api/routes"
	"github.com/luisfigueroa/merchantflow-backend/internal/activities"
	"github.com/luisfigueroa/merchantflow-backend/internal/auth"
	"github.com/luisfigueroa/merchantflow-backend/internal/merchants"
	"github.com/luisfigueroa/merchantflow-backend/internal/onboarding"
	"github.com/luisfigueroa/merchantflow-backend/internal/payouts"
	"github.com/luisfigueroa/merchantflow-backend/internal/pipeline"
	"github.com/luisfigueroa/merchantflow-backend/internal/users"
	"github.com/luisfigueroa/merchantflow-backend/pkg/config"
	"github.com/luisfigueroa/merchantflow-backend/pkg/db"
	"github.com/luisfigueroa/merchantflow-backend/pkg/logger"
	"github.com/luisfigueroa/merchantflow-backend/pkg/migrate"
	"github.com/luisfigueroa/merchantflow-backend/pkg/outbox"
	"github.com/luisfigueroa/merchantflow-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	svcs, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Services, error) {
	gdb := dbClient.DB()

	userRepo := users.NewRepository(gdb)
	merchantRepo := merchants.NewRepository(gdb)
	pipelineRepo := pipeline.NewRepository(gdb)
	onboardingRepo := onboarding.NewRepository(gdb)
	activityRepo := activities.NewRepository(gdb)
	payoutRepo := payouts.NewRepository(gdb)
	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:  userRepo,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, err
	}

	payoutSvc, err := payouts.NewService(payoutRepo, dbClient, outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}

	onboardingSvc, err := onboarding.NewService(onboardingRepo, merchantRepo, payoutSvc, dbClient, outboxSvc, cfg.Payout)
	if err != nil {
		return routes.Services{}, err
	}

	pipelineSvc, err := pipeline.NewService(pipelineRepo, merchantRepo, onboardingSvc, payoutSvc, dbClient, outboxSvc, cfg.Payout)
	if err != nil {
		return routes.Services{}, err
	}

	merchantSvc, err := merchants.NewService(merchantRepo, pipelineRepo, userRepo, dbClient, outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}

	activitySvc, err := activities.NewService(activityRepo, merchantRepo, dbClient, outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:       authSvc,
		Merchants:  merchantSvc,
		Pipeline:   pipelineSvc,
		Onboarding: onboardingSvc,
		Activities: activitySvc,
		Payouts:    payoutSvc,
	}, nil
}
