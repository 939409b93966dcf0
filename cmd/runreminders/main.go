package main

import (
	"context"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sviatkkk/task-planner-bot/internal/config"
	"github.com/sviatkkk/task-planner-bot/internal/logger"
	"github.com/sviatkkk/task-planner-bot/internal/scheduler"
	"github.com/sviatkkk/task-planner-bot/internal/store"
	"github.com/sviatkkk/task-planner-bot/internal/telegram"
)

// runreminders runs a single due-reminder pass against the local
// database and exits. Useful for cron-style deployments and for poking
// the engine without the HTTP endpoint.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadTool()
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal("bot init failed", zap.Error(err))
	}

	ctx := context.Background()
	kv, err := store.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		log.Fatal("open sqlite failed", zap.Error(err))
	}
	repo := store.New(kv)
	defer func() { _ = repo.Close() }()

	router := telegram.NewRouter(bot, log, repo)
	engine := scheduler.NewEngine(repo, log, router)

	processed := engine.Reconcile(ctx, time.Now())
	log.Info("reminder pass finished", zap.Int("processed", processed))
}
