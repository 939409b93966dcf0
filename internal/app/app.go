package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sviatkkk/task-planner-bot/internal/config"
	"github.com/sviatkkk/task-planner-bot/internal/scheduler"
	"github.com/sviatkkk/task-planner-bot/internal/server"
	"github.com/sviatkkk/task-planner-bot/internal/store"
	"github.com/sviatkkk/task-planner-bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
	engine  *scheduler.Engine
	timers  *scheduler.TimerManager
	cron    *cron.Cron
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	return &App{cfg: cfg, log: log, bot: bot}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting task-planner-bot",
		zap.String("runMode", a.cfg.RunMode),
		zap.String("schedulerMode", a.cfg.SchedulerMode),
		zap.String("http", a.cfg.HTTPAddr),
	)

	kv, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = store.New(kv)
	a.log.Info("sqlite ready")

	a.router = telegram.NewRouter(a.bot, a.log, a.repo)
	a.engine = scheduler.NewEngine(a.repo, a.log, a.router)

	switch a.cfg.SchedulerMode {
	case "live":
		a.timers = scheduler.NewTimerManager(a.engine, a.log)
		a.router.AttachTimers(a.timers)
		if err := a.timers.Rehydrate(ctx); err != nil {
			a.log.Error("rehydrate timers failed", zap.Error(err))
			return err
		}
		a.log.Info("live timers rehydrated")
	default:
		a.cron = cron.New()
		if _, err := a.cron.AddFunc(a.cfg.ScanSpec, func() {
			n := a.engine.Reconcile(context.Background(), time.Now())
			if n > 0 {
				a.log.Info("scan pass finished", zap.Int("processed", n))
			}
		}); err != nil {
			a.log.Error("bad scan cron spec", zap.String("spec", a.cfg.ScanSpec), zap.Error(err))
			return err
		}
		a.cron.Start()
		a.log.Info("scan scheduler started", zap.String("spec", a.cfg.ScanSpec))
	}

	var webhookUpdates server.UpdateHandler
	if a.cfg.RunMode == "webhook" {
		webhookUpdates = a.router
	}
	srv := server.New(a.log, a.engine, webhookUpdates, a.cfg.RunRemindersSecret, a.cfg.WebhookSecret)
	a.httpSrv = &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var updCh tgbotapi.UpdatesChannel
	if a.cfg.RunMode == "polling" {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updCh = a.bot.GetUpdatesChan(u)
	}

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) shutdown() {
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}

	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	if a.timers != nil {
		a.timers.CancelAll()
	}
	if a.repo != nil {
		_ = a.repo.Close()
	}
}
