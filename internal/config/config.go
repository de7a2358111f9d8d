package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Admin
	AdminToken string

	// Notify
	LogWebhookURL string
	NotifyTimeout time.Duration

	// Reminder
	ReminderDelayMin time.Duration
	ReminderDelayMax time.Duration
	ResponseTimeout  time.Duration

	// Points
	PointsInterval time.Duration

	// Rate Limit
	RateLimitGeneral    int
	RateLimitWebhookReg int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.AdminToken = os.Getenv("ADMIN_TOKEN")
	if cfg.AdminToken == "" {
		missing = append(missing, "ADMIN_TOKEN")
	}

	cfg.LogWebhookURL = os.Getenv("LOG_WEBHOOK_URL")
	if cfg.LogWebhookURL == "" {
		missing = append(missing, "LOG_WEBHOOK_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.NotifyTimeout = getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second)
	cfg.ReminderDelayMin = getEnvDuration("REMINDER_DELAY_MIN", 20*time.Minute)
	cfg.ReminderDelayMax = getEnvDuration("REMINDER_DELAY_MAX", 30*time.Minute)
	cfg.ResponseTimeout = getEnvDuration("RESPONSE_TIMEOUT", 120*time.Second)
	cfg.PointsInterval = getEnvDuration("POINTS_INTERVAL", 240*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitWebhookReg = getEnvInt("RATE_LIMIT_WEBHOOK_REG", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.ReminderDelayMax < cfg.ReminderDelayMin {
		return nil, fmt.Errorf("REMINDER_DELAY_MAX (%s) must not be less than REMINDER_DELAY_MIN (%s)",
			cfg.ReminderDelayMax, cfg.ReminderDelayMin)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
