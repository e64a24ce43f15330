package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dino-daily-bot/internal/adapters/discord"
	"dino-daily-bot/internal/adapters/repo"
	"dino-daily-bot/internal/adapters/wiki"
	"dino-daily-bot/internal/domain"
	"dino-daily-bot/internal/infra/cache"
	"dino-daily-bot/internal/infra/config"
	"dino-daily-bot/internal/infra/db"
	httpinfra "dino-daily-bot/internal/infra/http"
	"dino-daily-bot/internal/infra/log"
	"dino-daily-bot/internal/infra/metrics"
	"dino-daily-bot/internal/usecase/content"
	"dino-daily-bot/internal/usecase/delivery"
	"dino-daily-bot/internal/usecase/roster"
	"dino-daily-bot/internal/usecase/schedule"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
	}
	defer pool.Close()

	var dedup domain.Cache
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(cfg.RedisAddr)
		if err != nil {
			logger.Fatal().Err(err).Msg("не удалось подключиться к Redis")
		}
		defer client.Close()
		dedup = cache.NewRedis(client)
		logger.Info().Msg("подавление повторной отправки включено")
	}

	repoAdapter := repo.NewPostgres(pool)
	wikiClient := wiki.NewClient(cfg.Wikipedia.BaseURL, cfg.Wikipedia.UserAgent, cfg.Wikipedia.Timeout, logger)

	refresher := content.NewRefresher(repoAdapter, wikiClient, cfg.Intervals.ContentRefresh, logger)
	rosterCache := roster.NewCache(repoAdapter, cfg.Intervals.RosterRefresh, logger)
	scheduleService := schedule.NewService(repoAdapter, rosterCache)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var deliveryService *delivery.Service
	startCycles := func() {
		go refresher.Run(ctx)
		go rosterCache.Run(ctx)
		go deliveryService.Run(ctx)
	}

	bot, err := discord.NewBot(cfg.Discord.Token, logger, scheduleService, startCycles)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}
	deliveryService = delivery.NewService(rosterCache, refresher, bot, dedup, cfg.Intervals.Delivery, logger)
	bot.AttachDelivery(deliveryService)

	srv := httpinfra.NewServer(logger, func() bool {
		return rosterCache.Loaded() && refresher.Current() != nil
	})
	go func() {
		if err := srv.Start(cfg.HTTPAddr); err != nil {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
		}
	}()

	if err := bot.Open(); err != nil {
		logger.Fatal().Err(err).Msg("не удалось открыть соединение с Discord")
	}
	logger.Info().Msg("бот запущен")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	logger.Info().Msg("остановка бота")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = bot.Close()
}

var _ domain.RecipientRepo = (*repo.Postgres)(nil)
var _ domain.CatalogRepo = (*repo.Postgres)(nil)
var _ domain.ContentSource = (*wiki.Client)(nil)
var _ domain.Messenger = (*discord.Bot)(nil)
var _ domain.Cache = (*cache.RedisCache)(nil)
var _ domain.ContentProvider = (*content.Refresher)(nil)
var _ domain.RosterProvider = (*roster.Cache)(nil)
