package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aliyevk/codedesk-backend/api/routes"
	"github.com/aliyevk/codedesk-backend/bot"
	"github.com/aliyevk/codedesk-backend/internal/batches"
	"github.com/aliyevk/codedesk-backend/internal/codes"
	"github.com/aliyevk/codedesk-backend/internal/finance"
	"github.com/aliyevk/codedesk-backend/internal/market"
	"github.com/aliyevk/codedesk-backend/internal/payouts"
	"github.com/aliyevk/codedesk-backend/internal/sessions"
	"github.com/aliyevk/codedesk-backend/internal/users"
	"github.com/aliyevk/codedesk-backend/pkg/config"
	"github.com/aliyevk/codedesk-backend/pkg/db"
	"github.com/aliyevk/codedesk-backend/pkg/logger"
	"github.com/aliyevk/codedesk-backend/pkg/metrics"
	"github.com/aliyevk/codedesk-backend/pkg/migrate"
	"github.com/aliyevk/codedesk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "bot"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "bot",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.Features.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionStore, err := sessions.NewStore(redisClient, cfg.Bot.SessionTTL)
	if err != nil {
		logg.Error(ctx, "failed to create session store", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB(), cfg.DB.QueryTimeout)
	codesRepo := codes.NewRepository(dbClient.DB(), cfg.DB.QueryTimeout)
	payoutsRepo := payouts.NewRepository(dbClient.DB(), cfg.DB.QueryTimeout)
	marketRepo := market.NewRepository(dbClient.DB(), cfg.DB.QueryTimeout)

	searchIndex, err := codes.NewSearchIndex(redisClient, cfg.Bot.SearchIndexTTL)
	if err != nil {
		logg.Error(ctx, "failed to create search index", err)
		os.Exit(1)
	}

	codeValidator, err := codes.NewValidator(cfg.Bot.CodePattern)
	if err != nil {
		logg.Error(ctx, "failed to compile code pattern", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(usersRepo)
	requireService(ctx, logg, "users", err)
	codesService, err := codes.NewService(codesRepo, codeValidator, searchIndex)
	requireService(ctx, logg, "codes", err)
	batchesService, err := batches.NewService(codesRepo)
	requireService(ctx, logg, "batches", err)
	payoutsService, err := payouts.NewService(codesRepo, payoutsRepo, dbClient)
	requireService(ctx, logg, "payouts", err)
	financeService, err := finance.NewService(codesRepo, payoutsRepo, usersRepo)
	requireService(ctx, logg, "finance", err)
	marketService, err := market.NewService(marketRepo, cfg.Bot.AllCodeTypes())
	requireService(ctx, logg, "market", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	botMetrics := metrics.NewBotMetrics(registry)

	tgClient, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logg.Error(ctx, "failed to connect to telegram", err)
		os.Exit(1)
	}
	tgClient.Debug = cfg.App.IsDev()

	codeBot, err := bot.New(tgClient, cfg, logg, botMetrics, bot.Services{
		Users:    usersService,
		Codes:    codesService,
		Batches:  batchesService,
		Payouts:  payoutsService,
		Finance:  financeService,
		Market:   marketService,
		Sessions: sessionStore,
	})
	if err != nil {
		logg.Error(ctx, "failed to wire bot", err)
		os.Exit(1)
	}

	deps := routes.Deps{
		DB:       dbClient,
		Redis:    redisClient,
		Registry: registry,
	}
	if cfg.Telegram.UseWebhook() {
		deps.Bot = codeBot
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, deps),
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
		"mode": cfg.Telegram.Mode,
	})

	errCh := make(chan error, 2)
	go func() {
		logg.Info(ctx, "starting http server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	if !cfg.Telegram.UseWebhook() {
		go func() {
			if err := codeBot.Run(ctx, cfg.Telegram.PollTimeout); err != nil && err != context.Canceled {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logg.Info(context.Background(), "shutdown signal received")
	case err := <-errCh:
		logg.Error(ctx, "service stopped unexpectedly", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "http shutdown failed", err)
	}
}

func requireService(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "service", name), "failed to create service", err)
	os.Exit(1)
}
