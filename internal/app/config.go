package app

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/trainhubhq/trainhub-backend/internal/platform/envutil"
	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
)

// Config is resolved in three layers: built-in defaults, an optional YAML
// file named by CONFIG_FILE, then environment variables (highest priority).
type Config struct {
	LogMode  string `yaml:"log_mode"`
	HTTPAddr string `yaml:"http_addr"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	ProviderMode  string        `yaml:"provider_mode"`
	RemoteBaseURL string        `yaml:"remote_base_url"`
	RemoteAPIKey  string        `yaml:"remote_api_key"`
	RemoteTimeout time.Duration `yaml:"remote_timeout"`
	RemoteRetries int           `yaml:"remote_retries"`

	SendgridAPIKey string `yaml:"sendgrid_api_key"`
	EmailFrom      string `yaml:"email_from"`
	EmailFromName  string `yaml:"email_from_name"`
	ChatWebhookURL string `yaml:"chat_webhook_url"`

	DispatchWorkers   int `yaml:"dispatch_workers"`
	DispatchQueueSize int `yaml:"dispatch_queue_size"`

	SyncSchedule string `yaml:"sync_schedule"`
}

func defaultConfig() Config {
	return Config{
		LogMode:           "development",
		HTTPAddr:          ":8080",
		DBDriver:          "sqlite",
		DBDSN:             "trainhub.db",
		ProviderMode:      "local",
		RemoteTimeout:     15 * time.Second,
		EmailFrom:         "noreply@trainhub.dev",
		EmailFromName:     "TrainHub",
		DispatchWorkers:   2,
		DispatchQueueSize: 256,
		SyncSchedule:      "@every 15m",
	}
}

func LoadConfig(log *logger.Logger) Config {
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path := envutil.Str("CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Warn("Config file unreadable, using defaults", "path", path, "error", err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Warn("Config file invalid, using defaults", "path", path, "error", err)
		} else {
			log.Info("Config file loaded", "path", path)
		}
	}

	cfg.LogMode = envutil.Str("LOG_MODE", cfg.LogMode)
	cfg.HTTPAddr = envutil.Str("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DBDriver = envutil.Str("DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = envutil.Str("DB_DSN", cfg.DBDSN)
	cfg.RedisAddr = envutil.Str("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = envutil.Str("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = envutil.Int("REDIS_DB", cfg.RedisDB)
	cfg.ProviderMode = envutil.Str("PROVIDER_MODE", cfg.ProviderMode)
	cfg.RemoteBaseURL = envutil.Str("REMOTE_BASE_URL", cfg.RemoteBaseURL)
	cfg.RemoteAPIKey = envutil.Str("REMOTE_API_KEY", cfg.RemoteAPIKey)
	cfg.RemoteTimeout = envutil.Duration("REMOTE_TIMEOUT", cfg.RemoteTimeout)
	cfg.RemoteRetries = envutil.Int("REMOTE_RETRIES", cfg.RemoteRetries)
	cfg.SendgridAPIKey = envutil.Str("SENDGRID_API_KEY", cfg.SendgridAPIKey)
	cfg.EmailFrom = envutil.Str("EMAIL_FROM", cfg.EmailFrom)
	cfg.EmailFromName = envutil.Str("EMAIL_FROM_NAME", cfg.EmailFromName)
	cfg.ChatWebhookURL = envutil.Str("CHAT_WEBHOOK_URL", cfg.ChatWebhookURL)
	cfg.DispatchWorkers = envutil.Int("DISPATCH_WORKERS", cfg.DispatchWorkers)
	cfg.DispatchQueueSize = envutil.Int("DISPATCH_QUEUE_SIZE", cfg.DispatchQueueSize)
	cfg.SyncSchedule = envutil.Str("SYNC_SCHEDULE", cfg.SyncSchedule)
	return cfg
}
