package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken      string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath        string `envconfig:"DB_PATH" default:"./data/planner.db"`
	RunMode       string `envconfig:"RUN_MODE" default:"polling"`     // polling|webhook
	SchedulerMode string `envconfig:"SCHEDULER_MODE" default:"scan"`  // scan|live
	ScanSpec      string `envconfig:"SCAN_CRON" default:"@every 30s"` // cron spec for scan mode
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`       // debug|info|warn|error
	HTTPAddr      string `envconfig:"HTTP_ADDR" default:":8080"`      // run-reminders + webhook + healthz

	// RunRemindersSecret guards POST /api/run-reminders. When empty the
	// endpoint refuses every request.
	RunRemindersSecret string `envconfig:"RUN_REMINDERS_SECRET"`
	// WebhookSecret, when set, must match Telegram's secret token header
	// on incoming webhook updates.
	WebhookSecret string `envconfig:"TELEGRAM_WEBHOOK_SECRET"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.RunMode != "polling" && cfg.RunMode != "webhook" {
		return cfg, fmt.Errorf("RUN_MODE must be polling or webhook, got %q", cfg.RunMode)
	}
	if cfg.SchedulerMode != "scan" && cfg.SchedulerMode != "live" {
		return cfg, fmt.Errorf("SCHEDULER_MODE must be scan or live, got %q", cfg.SchedulerMode)
	}
	return cfg, nil
}

// ToolConfig is the subset needed by one-shot tools that run a single
// reminder pass and exit.
type ToolConfig struct {
	DBPath   string `envconfig:"DB_PATH" default:"./data/planner.db"`
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadTool reads environment variables into ToolConfig.
func LoadTool() (ToolConfig, error) {
	var cfg ToolConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
