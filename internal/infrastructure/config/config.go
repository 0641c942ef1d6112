// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedconfig "verge/internal/shared/config"
)

type Config struct {
	Server   sharedconfig.ServerConfig   `mapstructure:"server"`
	Database sharedconfig.DatabaseConfig `mapstructure:"database"`
	Redis    sharedconfig.RedisConfig    `mapstructure:"redis"`
	Logger   sharedconfig.LoggerConfig   `mapstructure:"logger"`
	Telegram sharedconfig.TelegramConfig `mapstructure:"telegram"`
	Email    sharedconfig.EmailConfig    `mapstructure:"email"`
	Traffic  sharedconfig.TrafficConfig  `mapstructure:"traffic"`
}

var (
	appConfig *Config
	appMu     sync.RWMutex
)

// Load reads configuration from ./configs/config.yaml and VERGE_* environment
// variables.
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("VERGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if p := cfg.Traffic.DefaultResetPolicy; p < 0 || p > 6 {
		return nil, fmt.Errorf("traffic.default_reset_policy out of range: %d", p)
	}

	appMu.Lock()
	appConfig = &cfg
	appMu.Unlock()

	return &cfg, nil
}

// Get returns the loaded configuration.
func Get() *Config {
	appMu.RLock()
	defer appMu.RUnlock()
	return appConfig
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "verge")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	viper.SetDefault("traffic.default_reset_policy", 0)
	viper.SetDefault("traffic.trial_plan_id", 0)
	viper.SetDefault("traffic.timezone", "")
}
