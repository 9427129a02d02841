package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "TASKBOARD"

type Config struct {
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	Timezone  TimezoneConfig  `yaml:"timezone" mapstructure:"timezone"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Scheduler SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

type DatabaseConfig struct {
	// Driver is one of sqlite, postgres or memory.
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

type TimezoneConfig struct {
	// Default applies to users without a usable zone.
	Default string `yaml:"default" mapstructure:"default"`
}

type HTTPConfig struct {
	Addr       string `yaml:"addr" mapstructure:"addr"`
	CronSecret string `yaml:"cron_secret" mapstructure:"cron_secret"`
}

type SchedulerConfig struct {
	DailyInterval time.Duration `yaml:"daily_interval" mapstructure:"daily_interval"`
	Buffer        int           `yaml:"buffer" mapstructure:"buffer"`
}

type NotifyConfig struct {
	WebhookTimeout   time.Duration `yaml:"webhook_timeout" mapstructure:"webhook_timeout"`
	GoogleClientFile string        `yaml:"google_client_file" mapstructure:"google_client_file"`
	Desktop          bool          `yaml:"desktop" mapstructure:"desktop"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

func Default() Config {
	return Config{
		Database:  DatabaseConfig{Driver: "sqlite", DSN: "taskboard.db"},
		Timezone:  TimezoneConfig{Default: "UTC"},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Scheduler: SchedulerConfig{DailyInterval: time.Hour, Buffer: 64},
		Notify:    NotifyConfig{WebhookTimeout: 5 * time.Second},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load layers defaults, a .env file in the working directory, the optional
// YAML file at path and TASKBOARD_* variables, later sources winning.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("timezone.default", d.Timezone.Default)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.cron_secret", d.HTTP.CronSecret)
	v.SetDefault("scheduler.daily_interval", d.Scheduler.DailyInterval)
	v.SetDefault("scheduler.buffer", d.Scheduler.Buffer)
	v.SetDefault("notify.webhook_timeout", d.Notify.WebhookTimeout)
	v.SetDefault("notify.google_client_file", d.Notify.GoogleClientFile)
	v.SetDefault("notify.desktop", d.Notify.Desktop)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "memory":
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("config: postgres requires database.dsn")
		}
	default:
		return fmt.Errorf("config: unknown database.driver %q", c.Database.Driver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Scheduler.DailyInterval <= 0 {
		return errors.New("config: scheduler.daily_interval must be positive")
	}
	if c.Scheduler.Buffer < 2 {
		return errors.New("config: scheduler.buffer must be at least 2")
	}
	if c.Notify.WebhookTimeout <= 0 {
		return errors.New("config: notify.webhook_timeout must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

// Location loads the default zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone.Default)
	if err != nil {
		return nil, fmt.Errorf("config: timezone.default: %w", err)
	}
	return loc, nil
}
