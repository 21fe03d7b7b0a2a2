// Package config loads server settings from an optional config file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr          string        `mapstructure:"HTTP_ADDR"`
	Env               string        `mapstructure:"APP_ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	AllowedOrigins    string        `mapstructure:"ALLOWED_ORIGINS"`
	RoomGracePeriod   time.Duration `mapstructure:"ROOM_GRACE_PERIOD"`
	RoomSweepInterval time.Duration `mapstructure:"ROOM_SWEEP_INTERVAL"`
	RoomsListInterval time.Duration `mapstructure:"ROOMS_LIST_INTERVAL"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	EventsChannel     string        `mapstructure:"EVENTS_CHANNEL"`
	MaxMessageSize    int64         `mapstructure:"WS_MAX_MESSAGE_SIZE"`
}

var defaults = map[string]any{
	"HTTP_ADDR":           ":3000",
	"APP_ENV":             "development",
	"LOG_LEVEL":           "info",
	"ALLOWED_ORIGINS":     "*",
	"ROOM_GRACE_PERIOD":   "10m",
	"ROOM_SWEEP_INTERVAL": "30s",
	"ROOMS_LIST_INTERVAL": "15s",
	"REDIS_URL":           "",
	"EVENTS_CHANNEL":      "planebattle:events",
	"WS_MAX_MESSAGE_SIZE": 65536,
}

// Load reads config.yml from the working directory or its parent when present,
// then lets environment variables override every key.
func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in settings without consulting file or env.
func Default() Config {
	return Config{
		HTTPAddr:          ":3000",
		Env:               "development",
		LogLevel:          "info",
		AllowedOrigins:    "*",
		RoomGracePeriod:   10 * time.Minute,
		RoomSweepInterval: 30 * time.Second,
		RoomsListInterval: 15 * time.Second,
		EventsChannel:     "planebattle:events",
		MaxMessageSize:    65536,
	}
}

func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	if c.RoomGracePeriod <= 0 || c.RoomSweepInterval <= 0 || c.RoomsListInterval <= 0 {
		return errors.New("room timers must be positive")
	}
	if c.RoomGracePeriod < c.RoomSweepInterval {
		return errors.New("ROOM_GRACE_PERIOD must not be shorter than ROOM_SWEEP_INTERVAL")
	}
	if c.MaxMessageSize <= 0 {
		return errors.New("WS_MAX_MESSAGE_SIZE must be positive")
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS. A single "*" allows every origin.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
