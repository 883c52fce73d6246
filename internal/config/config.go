// Package config loads runtime configuration from defaults, an optional
// paykit.yaml and PAYKIT_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Home       string `mapstructure:"home"`
	Passphrase string `mapstructure:"passphrase"`
	DeviceID   string `mapstructure:"device_id"`
	LogMode    string `mapstructure:"log_mode"`

	Directory DirectoryConfig `mapstructure:"directory"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Listen    ListenConfig    `mapstructure:"listen"`
	Poll      PollConfig      `mapstructure:"poll"`
}

type DirectoryConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Session string `mapstructure:"session"`
}

type RelayConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type ListenConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Load reads configuration. The config file is optional; environment
// variables override it.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("log_mode", "development")
	v.SetDefault("device_id", "default")
	v.SetDefault("listen.host", "127.0.0.1")
	v.SetDefault("listen.port", 9735)
	v.SetDefault("poll.interval", 15*time.Minute)

	v.SetConfigName("paykit")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, ".paykit"))
	}
	_ = v.ReadInConfig()

	v.SetEnvPrefix("PAYKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cfg.Home = filepath.Join(dir, ".paykit")
	}
	return cfg, nil
}
