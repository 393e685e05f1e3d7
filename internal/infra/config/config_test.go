package config

import (
	"path/filepath"
	"testing"
	"time"

	"brightday_bot/internal/app"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("BIRTHDAY_CHANNEL_ID", "C123")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	for _, key := range []string{
		"DATA_DIR", "TRACKING_DIR", "CACHE_DIR", "BIRTHDAYS_FILE", "PERSONALITY_FILE",
		"BIRTHDAY_STORE", "LEDGER_DRIVER", "DATABASE_URL", "TELEGRAM_TOKEN",
		"CRON_SPEC_DAILY", "RUN_ON_START", "LOG_LEVEL", "ENVIRONMENT", "MAX_COMPOSE_RETRIES",
		"SLACK_RATE_PER_SEC", "OPENAI_TIMEOUT", "UPCOMING_WINDOW_DAYS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "xoxb-test", cfg.SlackBotToken)
	require.Equal(t, "gpt-4o", cfg.OpenAIModel)
	require.Equal(t, 60*time.Second, cfg.OpenAITimeout)
	require.Equal(t, app.DefaultMaxComposeRetries, cfg.MaxComposeRetries)
	require.Equal(t, 10, cfg.MaxBackups)
	require.Equal(t, "0 8 * * *", cfg.CronSpecDaily)
	require.Equal(t, DriverFile, cfg.BirthdayStore)
	require.Equal(t, DriverFile, cfg.LedgerDriver)
	require.Equal(t, filepath.Join("data", "tracking"), cfg.TrackingDir)
	require.Equal(t, filepath.Join("data", "storage", "birthdays.txt"), cfg.BirthdaysFile)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "development", cfg.Environment)
	require.False(t, cfg.RunOnStart)
	require.False(t, cfg.TelegramEnabled())
	require.Equal(t, 7, cfg.UpcomingWindowDays)
}

func TestLoadMissingRequired(t *testing.T) {
	for _, key := range []string{"SLACK_BOT_TOKEN", "BIRTHDAY_CHANNEL_ID", "OPENAI_API_KEY"} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, "")
			_, err := Load()
			require.ErrorContains(t, err, key)
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DATA_DIR", "/srv/brightday")
	t.Setenv("LEDGER_DRIVER", "POSTGRES")
	t.Setenv("DATABASE_URL", "postgres://localhost/brightday")
	t.Setenv("RUN_ON_START", "true")
	t.Setenv("MAX_COMPOSE_RETRIES", "0")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_REPORT_CHAT_ID", "-1001")
	t.Setenv("ADMIN_TELEGRAM_ID", "42")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, cfg.LedgerDriver)
	require.Equal(t, filepath.Join("/srv/brightday", "tracking"), cfg.TrackingDir)
	require.True(t, cfg.RunOnStart)
	require.Zero(t, cfg.MaxComposeRetries)
	require.True(t, cfg.TelegramEnabled())
	require.Equal(t, int64(-1001), cfg.TelegramReportChatID)
	require.Equal(t, int64(42), cfg.AdminTelegramID)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string][2]string{
		"unknown driver":          {"BIRTHDAY_STORE", "sqlite"},
		"postgres without url":    {"LEDGER_DRIVER", "postgres"},
		"non-numeric retries":     {"MAX_COMPOSE_RETRIES", "many"},
		"negative retries":        {"MAX_COMPOSE_RETRIES", "-1"},
		"bad bool":                {"RUN_ON_START", "maybe"},
		"zero rate":               {"SLACK_RATE_PER_SEC", "0"},
		"bad timeout":             {"OPENAI_TIMEOUT", "soon"},
		"non-numeric window days": {"UPCOMING_WINDOW_DAYS", "week"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			require.Error(t, err)
		})
	}
}
