package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const envPrefix = "ROOMCHAT"

type Config struct {
	ListenAddr     string   `mapstructure:"listen_addr"`
	HTTPAddr       string   `mapstructure:"http_addr"`
	Database       Database `mapstructure:"database"`
	DefaultRoom    string   `mapstructure:"default_room"`
	HistoryLimit   int      `mapstructure:"history_limit"`
	MaxLineLength  int      `mapstructure:"max_line_length"`
	SendQueueSize  int      `mapstructure:"send_queue_size"`
	BcryptCost     int      `mapstructure:"bcrypt_cost"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Database struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":5000")
	v.SetDefault("http_addr", "localhost:8000")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "file:roomchat.db?_busy_timeout=5000")
	v.SetDefault("default_room", "General")
	v.SetDefault("history_limit", 20)
	v.SetDefault("max_line_length", 4096)
	v.SetDefault("send_queue_size", 256)
	v.SetDefault("bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("allowed_origins", []string{"http://localhost:8000"})
}

// Load builds the configuration from defaults, the optional config file at
// path and ROOMCHAT_ prefixed environment variables, in increasing priority.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite3":
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN cannot be empty")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if strings.TrimSpace(c.DefaultRoom) == "" || strings.ContainsAny(c.DefaultRoom, " \t\r\n") {
		return fmt.Errorf("default room name %q is invalid", c.DefaultRoom)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive")
	}
	if c.MaxLineLength <= 0 {
		return fmt.Errorf("max line length must be positive")
	}
	if c.SendQueueSize <= 0 {
		return fmt.Errorf("send queue size must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return nil
}
