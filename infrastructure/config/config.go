package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Addr               string
	SQLitePath         string
	LocalCacheDir      string
	ChallanDir         string
	ChallanFallbackDir string
	PublicBaseURL      string
	LoginRate          string
	SessionTTL         time.Duration
	LogLevel           slog.Level
	BossPassword       string
}

// Load reads configuration from the environment and an optional .env file.
// Every key has a default so the server starts with no environment at all.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("APP_ADDR", ":8080")
	v.SetDefault("SQLITE_PATH", "garmentflow.db")
	v.SetDefault("LOCAL_CACHE_DIR", "localcache")
	v.SetDefault("CHALLAN_DIR", "challans")
	v.SetDefault("CHALLAN_FALLBACK_DIR", "data/challans")
	v.SetDefault("PUBLIC_BASE_URL", "")
	v.SetDefault("LOGIN_RATE", "10-M")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BOSS_PASSWORD", "Boss123!Workshop")
	v.AutomaticEnv()

	cfg := &Config{
		Addr:               v.GetString("APP_ADDR"),
		SQLitePath:         v.GetString("SQLITE_PATH"),
		LocalCacheDir:      v.GetString("LOCAL_CACHE_DIR"),
		ChallanDir:         v.GetString("CHALLAN_DIR"),
		ChallanFallbackDir: v.GetString("CHALLAN_FALLBACK_DIR"),
		PublicBaseURL:      strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		LoginRate:          v.GetString("LOGIN_RATE"),
		BossPassword:       v.GetString("BOSS_PASSWORD"),
	}

	ttl, err := time.ParseDuration(v.GetString("SESSION_TTL"))
	if err != nil {
		return nil, fmt.Errorf("parse SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = ttl

	level, err := parseLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if strings.TrimSpace(cfg.SQLitePath) == "" {
		return nil, fmt.Errorf("SQLITE_PATH is required")
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	return level, nil
}
