package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/config"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/delivery/telegram"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/grader"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/infra/postgres"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/logger"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/repository"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB.URL, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		zl.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.InitSchema(ctx, pool); err != nil {
		zl.Fatal("failed to init schema", zap.Error(err))
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		zl.Fatal("failed to create telegram bot", zap.Error(err))
	}
	zl.Info("authorized on telegram", zap.String("account", bot.Self.UserName))

	// Set commands.
	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "Запустить бота",
		},
		{
			Command:     "quiz",
			Description: "Начать квиз",
		},
		{
			Command:     "help",
			Description: "Помощь",
		},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		zl.Warn("failed to set bot commands", zap.Error(err))
	}

	// Initialize repositories and services.
	contentRepo := repository.NewContentRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)
	transactor := postgres.NewTransactor(pool)

	aiGrader, err := grader.NewOpenAIGrader(grader.OpenAIConfig{
		APIKey:  cfg.Grader.APIKey,
		Model:   cfg.Grader.Model,
		BaseURL: cfg.Grader.BaseURL,
	})
	if err != nil {
		zl.Fatal("failed to create grader", zap.Error(err))
	}

	selector := service.NewSelector(contentRepo)
	scorer := service.NewScorer(sessionRepo, aiGrader, cfg.Grader.Timeout, zl)
	machine := service.NewMachine(contentRepo, sessionRepo, selector, scorer, zl)
	adminService := service.NewAdminService(transactor)

	handler := telegram.NewHandler(bot, zl, machine, userRepo, adminService, statsRepo, telegram.Options{
		RequiredChannel: cfg.RequiredChannel,
		Admins:          cfg.Admins,
	})

	if err := handler.Run(ctx); err != nil && ctx.Err() == nil {
		zl.Fatal("telegram handler failed", zap.Error(err))
	}
	zl.Info("shutdown complete")
}
