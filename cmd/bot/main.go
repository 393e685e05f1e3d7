package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brightday_bot/internal/app"
	"brightday_bot/internal/domain/announcement"
	"brightday_bot/internal/domain/birthday"
	"brightday_bot/internal/domain/personality"
	"brightday_bot/internal/infra/config"
	idb "brightday_bot/internal/infra/database"
	"brightday_bot/internal/infra/facts"
	"brightday_bot/internal/infra/filestore"
	"brightday_bot/internal/infra/logger"
	"brightday_bot/internal/infra/metrics"
	"brightday_bot/internal/infra/openai"
	ipersonality "brightday_bot/internal/infra/personality"
	"brightday_bot/internal/infra/scheduler"
	"brightday_bot/internal/infra/slack"
	"brightday_bot/internal/infra/telegram"
	"brightday_bot/internal/infra/tracking"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const factsMaxTokens = 500

func main() {
	fmt.Println("BrightDay birthday bot starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logCloser, err := logger.Init(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	mainLogger := logger.Component("main")
	if err := run(cfg, mainLogger); err != nil {
		mainLogger.WithError(err).Error("Application stopped with error.")
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, mainLogger *logrus.Entry) error {
	mainLogger.WithFields(logrus.Fields{
		"environment":    cfg.Environment,
		"birthday_store": cfg.BirthdayStore,
		"ledger_driver":  cfg.LedgerDriver,
		"cron_spec":      cfg.CronSpecDaily,
	}).Info("Configuration loaded.")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database is only opened when a driver needs it.
	var db *sql.DB
	if cfg.BirthdayStore == config.DriverPostgres || cfg.LedgerDriver == config.DriverPostgres {
		var err error
		db, err = idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("could not connect to database: %w", err)
		}
		defer db.Close()
		if err := idb.EnsureSchema(ctx, db); err != nil {
			return err
		}
		mainLogger.Info("Database connection established successfully.")
	}

	var birthdays birthday.Repository
	switch cfg.BirthdayStore {
	case config.DriverPostgres:
		birthdays = idb.NewPostgresBirthdayRepository(db, logger.Component("birthday_store"))
	default:
		birthdays = filestore.NewBirthdayRepository(cfg.BirthdaysFile, cfg.MaxBackups, logger.Component("birthday_store"))
	}

	var ledger announcement.Ledger
	switch cfg.LedgerDriver {
	case config.DriverPostgres:
		ledger = idb.NewPostgresLedger(db)
	default:
		ledger = tracking.NewFileLedger(cfg.TrackingDir)
	}
	mainLogger.Info("Repositories initialized.")

	recorder := metrics.NewRecorder()

	personalities := ipersonality.NewStore(cfg.PersonalityFile, personality.Defaults{
		BotName: cfg.BotName,
		Custom: personality.Personality{
			Name:              cfg.CustomPersonality.Name,
			Description:       cfg.CustomPersonality.Description,
			Style:             cfg.CustomPersonality.Style,
			FormatInstruction: cfg.CustomPersonality.FormatInstruction,
			TemplateExtension: cfg.CustomPersonality.TemplateExtension,
		},
	}, logger.Component("personality"))
	if err := personalities.Load(); err != nil {
		mainLogger.WithError(err).Warn("Could not load personality settings, using defaults.")
	}
	go func() {
		if err := personalities.Watch(ctx); err != nil {
			mainLogger.WithError(err).Warn("Personality file watcher stopped.")
		}
	}()

	writer := openai.NewGenerator(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.OpenAITimeout,
	}, logger.Component("openai"))
	searcher := openai.NewGenerator(openai.Config{
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.OpenAIFactsModel,
		MaxTokens: factsMaxTokens,
		Timeout:   cfg.OpenAITimeout,
	}, logger.Component("openai_facts"))
	factsService := facts.NewService(searcher, writer, cfg.CacheDir, cfg.WebSearchCacheEnabled, logger.Component("facts"))

	slackClient := slack.NewClient(cfg.SlackBotToken, cfg.SlackAPIURL, cfg.SlackRatePerSec, logger.Component("slack"))
	markup := slack.Markup{}

	composer := app.NewComposer(app.ComposerConfig{
		Generator:     writer,
		Personalities: personalities,
		Facts:         factsService,
		Markup:        markup,
		Observer:      recorder,
		Logger:        logger.Component("composer"),
		TeamName:      cfg.TeamName,
		MaxRetries:    cfg.MaxComposeRetries,
	})

	var bot *telebot.Bot
	var reporter app.RunReporter
	if cfg.TelegramEnabled() {
		var err error
		bot, err = newTelegramBot(cfg.TelegramToken, logger.Component("telebot"))
		if err != nil {
			return fmt.Errorf("could not create Telegram bot: %w", err)
		}
		if cfg.TelegramReportChatID != 0 {
			reporter = telegram.NewReporter(bot, cfg.TelegramReportChatID, logger.Component("telegram_reporter"))
		}
	}

	announcer := app.NewAnnouncementService(app.AnnouncementServiceConfig{
		Birthdays:          birthdays,
		Ledger:             ledger,
		Composer:           composer,
		Chat:               slackClient,
		Markup:             markup,
		ChannelID:          cfg.BirthdayChannelID,
		Reporter:           reporter,
		Observer:           recorder,
		Logger:             logger.Component("announcer"),
		UpcomingWindowDays: cfg.UpcomingWindowDays,
	})
	mainLogger.Info("Announcement service initialized.")

	birthdayScheduler := scheduler.NewBirthdayScheduler(announcer, logger.Component("scheduler"), cfg.CronSpecDaily)
	if err := birthdayScheduler.Start(cfg.RunOnStart); err != nil {
		return err
	}
	defer birthdayScheduler.Stop()

	if bot != nil {
		telegramLogger := logger.Component("telegram")
		reminders := app.NewReminderService(app.ReminderServiceConfig{
			Birthdays: birthdays,
			Chat:      slackClient,
			Directory: slackClient,
			Markup:    markup,
			ChannelID: cfg.BirthdayChannelID,
			Logger:    logger.Component("reminders"),
		})
		telegram.RegisterBotCommands(bot, cfg.AdminTelegramID, telegramLogger)
		telegram.RegisterAdminHandlers(bot, telegram.NewAdminHandlers(ctx, telegram.AdminDeps{
			Registry:      app.NewRegistryService(birthdays),
			Personalities: personalities,
			Facts:         factsService,
			Runner:        birthdayScheduler,
			Reminders:     reminders,
		}, cfg.AdminTelegramID, telegramLogger))
		mainLogger.Info("Telegram command handlers registered.")

		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go bot.Start()
		defer bot.Stop()
	}

	if cfg.MetricsAddr != "" {
		metricsSrv := newMetricsServer(cfg.MetricsAddr, recorder)
		go func() {
			mainLogger.WithField("addr", cfg.MetricsAddr).Info("Metrics server listening.")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				mainLogger.WithError(err).Error("Metrics server error.")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				mainLogger.WithError(err).Warn("Metrics server shutdown error.")
			}
		}()
	}

	mainLogger.Info("Application setup complete. Scheduler is running.")
	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	return nil
}

func newTelegramBot(token string, log *logrus.Entry) (*telebot.Bot, error) {
	return telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
			}
			entry.Error("Telegram handler error.")
		},
	})
}

func newMetricsServer(addr string, recorder *metrics.Recorder) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}
