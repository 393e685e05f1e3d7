package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"brightday_bot/internal/app"

	"github.com/joho/godotenv"
)

// Storage drivers for birthdays and the announcement ledger.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	SlackBotToken     string
	SlackAPIURL       string // empty for the public Slack API
	BirthdayChannelID string
	SlackRatePerSec   float64

	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIFactsModel string
	OpenAIBaseURL    string
	OpenAITimeout    time.Duration

	TeamName          string
	BotName           string
	MaxComposeRetries int
	CustomPersonality CustomPersonality

	DataDir               string
	TrackingDir           string
	CacheDir              string
	BirthdaysFile         string
	PersonalityFile       string
	MaxBackups            int
	WebSearchCacheEnabled bool

	BirthdayStore string
	LedgerDriver  string
	DatabaseURL   string

	CronSpecDaily      string
	RunOnStart         bool
	UpcomingWindowDays int

	TelegramToken        string
	TelegramReportChatID int64
	AdminTelegramID      int64

	MetricsAddr string

	LogLevel    string
	Environment string
	LogFile     string
}

// CustomPersonality carries the CUSTOM_* defaults for the custom personality.
type CustomPersonality struct {
	Name              string
	Description       string
	Style             string
	FormatInstruction string
	TemplateExtension string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.SlackBotToken = os.Getenv("SLACK_BOT_TOKEN")
	if cfg.SlackBotToken == "" {
		return nil, fmt.Errorf("SLACK_BOT_TOKEN is not set")
	}
	cfg.BirthdayChannelID = os.Getenv("BIRTHDAY_CHANNEL_ID")
	if cfg.BirthdayChannelID == "" {
		return nil, fmt.Errorf("BIRTHDAY_CHANNEL_ID is not set")
	}
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	cfg.SlackAPIURL = os.Getenv("SLACK_API_URL")
	if cfg.SlackRatePerSec, err = floatEnv("SLACK_RATE_PER_SEC", 1); err != nil {
		return nil, err
	}
	if cfg.SlackRatePerSec <= 0 {
		return nil, fmt.Errorf("SLACK_RATE_PER_SEC must be positive")
	}

	cfg.OpenAIModel = stringEnv("OPENAI_MODEL", "gpt-4o")
	cfg.OpenAIFactsModel = stringEnv("OPENAI_FACTS_MODEL", "gpt-4o-mini-search-preview")
	cfg.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	if cfg.OpenAITimeout, err = durationEnv("OPENAI_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	cfg.TeamName = stringEnv("TEAM_NAME", "Laboratory Team")
	cfg.BotName = stringEnv("BOT_NAME", "BrightDay")
	if cfg.MaxComposeRetries, err = intEnv("MAX_COMPOSE_RETRIES", app.DefaultMaxComposeRetries); err != nil {
		return nil, err
	}
	if cfg.MaxComposeRetries < 0 {
		return nil, fmt.Errorf("MAX_COMPOSE_RETRIES must not be negative")
	}
	cfg.CustomPersonality = CustomPersonality{
		Name:              os.Getenv("CUSTOM_BOT_NAME"),
		Description:       os.Getenv("CUSTOM_BOT_DESCRIPTION"),
		Style:             os.Getenv("CUSTOM_BOT_STYLE"),
		FormatInstruction: os.Getenv("CUSTOM_FORMAT_INSTRUCTION"),
		TemplateExtension: os.Getenv("CUSTOM_BOT_TEMPLATE_EXTENSION"),
	}

	cfg.DataDir = stringEnv("DATA_DIR", "data")
	cfg.TrackingDir = stringEnv("TRACKING_DIR", filepath.Join(cfg.DataDir, "tracking"))
	cfg.CacheDir = stringEnv("CACHE_DIR", filepath.Join(cfg.DataDir, "cache"))
	cfg.BirthdaysFile = stringEnv("BIRTHDAYS_FILE", filepath.Join(cfg.DataDir, "storage", "birthdays.txt"))
	cfg.PersonalityFile = stringEnv("PERSONALITY_FILE", filepath.Join(cfg.DataDir, "storage", "personality.yaml"))
	if cfg.MaxBackups, err = intEnv("MAX_BACKUPS", 10); err != nil {
		return nil, err
	}
	if cfg.WebSearchCacheEnabled, err = boolEnv("WEB_SEARCH_CACHE_ENABLED", true); err != nil {
		return nil, err
	}

	cfg.BirthdayStore = strings.ToLower(stringEnv("BIRTHDAY_STORE", DriverFile))
	cfg.LedgerDriver = strings.ToLower(stringEnv("LEDGER_DRIVER", DriverFile))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	for name, driver := range map[string]string{"BIRTHDAY_STORE": cfg.BirthdayStore, "LEDGER_DRIVER": cfg.LedgerDriver} {
		switch driver {
		case DriverFile:
		case DriverPostgres:
			if cfg.DatabaseURL == "" {
				return nil, fmt.Errorf("DATABASE_URL is not set but %s is %q", name, driver)
			}
		default:
			return nil, fmt.Errorf("invalid %s %q (expected %q or %q)", name, driver, DriverFile, DriverPostgres)
		}
	}

	cfg.CronSpecDaily = stringEnv("CRON_SPEC_DAILY", "0 8 * * *") // Default: 08:00 UTC daily
	if cfg.RunOnStart, err = boolEnv("RUN_ON_START", false); err != nil {
		return nil, err
	}
	if cfg.UpcomingWindowDays, err = intEnv("UPCOMING_WINDOW_DAYS", 7); err != nil {
		return nil, err
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		if cfg.TelegramReportChatID, err = int64Env("TELEGRAM_REPORT_CHAT_ID"); err != nil {
			return nil, err
		}
		if cfg.AdminTelegramID, err = int64Env("ADMIN_TELEGRAM_ID"); err != nil {
			return nil, err
		}
	}

	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}
	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}
	cfg.LogFile = os.Getenv("LOG_FILE")

	return cfg, nil
}

// TelegramEnabled reports whether the ops bot should be started.
func (c *AppConfig) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// int64Env parses an optional id; unset yields zero.
func int64Env(key string) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
