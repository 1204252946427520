// Package config provides runtime configuration for Kismet Sentinel.
// It uses Viper to load settings from files and environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for Kismet Sentinel.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────────────
	ServerHost string `mapstructure:"server_host"`
	ServerPort int    `mapstructure:"server_port"`

	// ── Upstream Kismet feed ──────────────────────────────────────────────────
	KismetURL string `mapstructure:"kismet_url"`
	// KismetAPIKey: sent as "KISMET: <key>" when no username is configured.
	KismetAPIKey string `mapstructure:"kismet_api_key"`
	KismetUser   string `mapstructure:"kismet_user"`
	KismetPass   string `mapstructure:"kismet_pass"`

	// ── Persistence ───────────────────────────────────────────────────────────
	// SaveDir: where alert evidence and batch exports land.
	SaveDir string `mapstructure:"save_dir"`
	// ArchivePath: SQLite index of save artifacts.
	ArchivePath string `mapstructure:"archive_path"`

	// ── Security ──────────────────────────────────────────────────────────────
	// JWTSecret: HS256 signing key for API tokens.
	// Change this in production — default is a random-looking placeholder.
	JWTSecret string `mapstructure:"jwt_secret"`
	AdminUser string `mapstructure:"admin_user"`
	AdminPass string `mapstructure:"admin_pass"`

	// ── Behavior ──────────────────────────────────────────────────────────────
	// DemoMode: serve a canned device list when Kismet is unreachable.
	DemoMode bool `mapstructure:"demo_mode"`
}

// Load reads config from file (./config.yaml or ~/.sentinel/config.yaml)
// and falls back to defaults. Environment variables with prefix SENTINEL_
// override file values.
func Load() (*Config, error) {
	v := viper.New()

	// --- Defaults ---
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 5000)

	v.SetDefault("kismet_url", "http://localhost:2501")
	v.SetDefault("kismet_api_key", "")
	v.SetDefault("kismet_user", "")
	v.SetDefault("kismet_pass", "")

	v.SetDefault("save_dir", "./kismet_saves")
	v.SetDefault("archive_path", "sentinel.db")

	// Security defaults — MUST be overridden in production via config.yaml or env vars.
	v.SetDefault("jwt_secret", "Sntl#8kQ!pW3^zR7@vD1&xM5*cJ9$bT")
	v.SetDefault("admin_user", "admin")
	v.SetDefault("admin_pass", "admin")

	v.SetDefault("demo_mode", true)

	// --- Config file ---
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.sentinel")
	if err := v.ReadInConfig(); err != nil {
		// config file is optional; ignore "not found" errors
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// --- Environment Variables ---
	v.SetEnvPrefix("SENTINEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
