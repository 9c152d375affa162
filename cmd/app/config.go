package main

import (
	"errors"
	"fmt"
	"strings"

	"questcycle/internal/notify"
	"questcycle/internal/repository"
	"questcycle/internal/scheduler"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
	envPrefix    = "APP"
)

type Config struct {
	Database   repository.Config `mapstructure:"database"`
	Server     ServerConfig      `mapstructure:"server"`
	Scheduler  scheduler.Config  `mapstructure:"scheduler"`
	Recurrence RecurrenceConfig  `mapstructure:"recurrence"`
	Cron       CronConfig        `mapstructure:"cron"`
	Alerts     notify.Config     `mapstructure:"alerts"`

	LogLevel string `mapstructure:"logLevel"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type RecurrenceConfig struct {
	// TestIntervalMinutes replaces calendar cycles with fixed windows when positive.
	TestIntervalMinutes int `mapstructure:"testIntervalMinutes"`
}

type CronConfig struct {
	Secret string `mapstructure:"secret"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")

	v.SetDefault("database.driver", string(repository.DialectPostgres))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.sslMode", "disable")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", "5m")
	v.SetDefault("scheduler.runTimeout", "2m")
	v.SetDefault("scheduler.runOnStart", true)

	v.SetDefault("recurrence.testIntervalMinutes", 0)

	v.SetDefault("cron.secret", "")

	v.SetDefault("alerts.telegramBotToken", "")
	v.SetDefault("alerts.telegramChatID", 0)
	v.SetDefault("alerts.apiEndpoint", "")
	v.SetDefault("alerts.debug", false)
}

// LoadConfig reads config.yaml from dir, or the file at path when it is set.
// The file is optional; every key can come from APP_* environment variables.
func LoadConfig(dir, path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configFormat)
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("recurrence.testIntervalMinutes", "APP_RECURRENCE_TESTINTERVALMINUTES", "TEST_INTERVAL_MINUTES"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Recurrence.TestIntervalMinutes < 0 {
		return nil, fmt.Errorf("recurrence.testIntervalMinutes must not be negative, got %d", cfg.Recurrence.TestIntervalMinutes)
	}

	return &cfg, nil
}
