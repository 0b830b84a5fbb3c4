package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"chargenet-cloud/internal/ocpi/mapper"
	"chargenet-cloud/internal/scheduler"
)

// Duration is a time.Duration that unmarshals from yaml strings like "10m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// RedisConfig holds the lock store connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Config is the full service configuration. Defaults are overlaid by an
// optional yaml file (ROAMING_CONFIG), then by environment variables.
type Config struct {
	DatabaseURL      string                    `yaml:"database_url"`
	HTTPAddr         string                    `yaml:"http_addr"`
	Redis            RedisConfig               `yaml:"redis"`
	JWTSecret        string                    `yaml:"jwt_secret"`
	AdminWebhookURL  string                    `yaml:"admin_webhook_url"`
	LockTTL          Duration                  `yaml:"lock_ttl"`
	BatchConcurrency int                       `yaml:"batch_concurrency"`
	Tasks            []scheduler.ScheduledTask `yaml:"tasks"`
	TariffOverrides  []mapper.TariffOverride   `yaml:"tariff_overrides"`
}

// DefaultTasks is the schedule used when the config file names none.
func DefaultTasks() []scheduler.ScheduledTask {
	return []scheduler.ScheduledTask{
		{Name: "pull-tokens-partial", Cron: "10 * * * *", Active: true},
		{Name: "pull-tokens-full", Cron: "40 2 * * *", Active: true},
		{Name: "send-evse-statuses-delta", Cron: "*/5 * * * *", Active: true},
		{Name: "send-evse-statuses-full", Cron: "20 3 * * *", Active: true},
		{Name: "check-sessions", Cron: "30 4 * * *", Active: true},
		{Name: "check-cdrs", Cron: "45 4 * * *", Active: true},
		{Name: "check-locations", Cron: "0 5 * * *", Active: true},
	}
}

// Load resolves the configuration from defaults, yaml and environment.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:      getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:         getenvDefault("HTTP_ADDR", ":8080"),
		Redis:            RedisConfig{Addr: getenvDefault("REDIS_ADDR", "localhost:6379")},
		JWTSecret:        getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		AdminWebhookURL:  os.Getenv("ADMIN_WEBHOOK_URL"),
		LockTTL:          Duration(getenvDuration("LOCK_TTL", 30*time.Minute)),
		BatchConcurrency: getenvIntDefault("BATCH_CONCURRENCY", 10),
	}

	if path := os.Getenv("ROAMING_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Redis.Password == "" {
		cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	if len(cfg.Tasks) == 0 {
		cfg.Tasks = DefaultTasks()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = Duration(30 * time.Minute)
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 10
	}
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("config: database url required")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
