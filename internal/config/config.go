package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/terraincognita07/fertility/internal/models"
)

const defaultNotifyPollInterval = time.Minute

type Config struct {
	Port               string
	DBPath             string
	Location           *time.Location
	DefaultLanguage    string
	DefaultProfileName string

	TelegramBotToken string
	TelegramChatID   string

	NotifyPollInterval time.Duration
}

// Load reads the process environment, after merging a .env file when one is
// present in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DBPath:             getEnv("DB_PATH", filepath.Join("data", "fertility.db")),
		Location:           loadLocation(getEnv("TZ", "UTC")),
		DefaultLanguage:    strings.ToLower(getEnv("DEFAULT_LANGUAGE", "en")),
		DefaultProfileName: getEnv("DEFAULT_PROFILE_NAME", models.DefaultProfileName),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		NotifyPollInterval: parseInterval(getEnv("NOTIFY_POLL_INTERVAL", "")),
	}
}

// TelegramEnabled reports whether both Telegram credentials are configured.
func (cfg *Config) TelegramEnabled() bool {
	return strings.TrimSpace(cfg.TelegramBotToken) != "" && strings.TrimSpace(cfg.TelegramChatID) != ""
}

func loadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("config: invalid TZ %q, falling back to UTC", name)
		return time.UTC
	}
	return location
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return defaultNotifyPollInterval
	}
	interval, err := time.ParseDuration(raw)
	if err != nil || interval <= 0 {
		log.Printf("config: invalid NOTIFY_POLL_INTERVAL %q, using %s", raw, defaultNotifyPollInterval)
		return defaultNotifyPollInterval
	}
	return interval
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
