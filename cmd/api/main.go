package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Fares-ag/blox-backend/api/routes"
	"github.com/Fares-ag/blox-backend/internal/applications"
	"github.com/Fares-ag/blox-backend/internal/payments"
	"github.com/Fares-ag/blox-backend/internal/webhooks"
	"github.com/Fares-ag/blox-backend/pkg/config"
	"github.com/Fares-ag/blox-backend/pkg/db"
	"github.com/Fares-ag/blox-backend/pkg/logger"
	"github.com/Fares-ag/blox-backend/pkg/metrics"
	"github.com/Fares-ag/blox-backend/pkg/migrate"
	"github.com/Fares-ag/blox-backend/pkg/redis"
	"github.com/Fares-ag/blox-backend/pkg/skipcash"
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

	gateway, err := skipcash.NewClient(context.Background(), cfg.SkipCash, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create skipcash client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	appsService, err := applications.NewService(applications.ServiceParams{
		Repo: applications.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create applications service", err)
		os.Exit(1)
	}

	txRepo := payments.NewRepository(dbClient.DB())

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:    txRepo,
		Gateway: gateway,
		Config:  cfg.SkipCash,
		Poll:    cfg.VerifyPoll,
		Metrics: paymentMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	webhookService, err := webhooks.NewService(webhooks.ServiceParams{
		Store:     txRepo,
		Schedules: appsService,
		Secret:    cfg.SkipCash.Secret,
		Metrics:   paymentMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
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
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Payments:     paymentsService,
			Webhooks:     webhookService,
			Applications: appsService,
			Transactions: txRepo,
			Registry:     registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
