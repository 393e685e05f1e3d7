package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"brightday_bot/internal/app"
	"brightday_bot/internal/domain/birthday"
	"brightday_bot/internal/domain/personality"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const defaultUpcomingLimit = 10

// PersonalityAdmin is the personality store as seen by operators.
type PersonalityAdmin interface {
	CurrentName() string
	Names() []string
	SetCurrent(name string) error
	SetCustom(field, value string) error
}

// CacheClearer drops cached date facts; md nil clears all dates.
type CacheClearer interface {
	ClearCache(md *birthday.MonthDay) (int, error)
}

// DailyRunner triggers an announcement pass outside the schedule.
type DailyRunner interface {
	RunDaily(ctx context.Context, now time.Time) (app.Summary, error)
}

// Reminder reaches the members of the announcement channel.
type Reminder interface {
	ChannelMembers(ctx context.Context) ([]string, error)
	SendReminders(ctx context.Context, customMessage string) (app.ReminderResult, error)
}

// AdminDeps are the services behind the operator commands. Facts may be nil.
type AdminDeps struct {
	Registry      *app.RegistryService
	Personalities PersonalityAdmin
	Facts         CacheClearer
	Runner        DailyRunner
	Reminders     Reminder
}

// AdminHandlers serves the operator commands for a single admin Telegram user.
type AdminHandlers struct {
	ctx     context.Context
	deps    AdminDeps
	adminID int64
	logger  *logrus.Entry
	now     func() time.Time
}

func NewAdminHandlers(ctx context.Context, deps AdminDeps, adminTelegramID int64, baseLogger *logrus.Entry) *AdminHandlers {
	return &AdminHandlers{
		ctx:     ctx,
		deps:    deps,
		adminID: adminTelegramID,
		logger:  baseLogger,
		now:     time.Now,
	}
}

// RegisterAdminHandlers registers handlers for admin commands.
func RegisterAdminHandlers(b *telebot.Bot, h *AdminHandlers) {
	b.Handle("/set_birthday", h.adminOnly("/set_birthday", h.handleSetBirthday))
	b.Handle("/remove_birthday", h.adminOnly("/remove_birthday", h.handleRemoveBirthday))
	b.Handle("/birthdays", h.adminOnly("/birthdays", h.handleListBirthdays))
	b.Handle("/upcoming", h.adminOnly("/upcoming", h.handleUpcoming))
	b.Handle("/personality", h.adminOnly("/personality", h.handlePersonality))
	b.Handle("/custom_personality", h.adminOnly("/custom_personality", h.handleCustomPersonality))
	b.Handle("/clear_cache", h.adminOnly("/clear_cache", h.handleClearCache))
	b.Handle("/run_now", h.adminOnly("/run_now", h.handleRunNow))
	b.Handle("/check", h.adminOnly("/check", h.handleCheck))
	b.Handle("/stats", h.adminOnly("/stats", h.handleStats))
	b.Handle("/remind", h.adminOnly("/remind", h.handleRemind))
}

func (h *AdminHandlers) adminOnly(command string, next func(telebot.Context, *logrus.Entry) error) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		handlerLogger := h.logger.WithFields(logrus.Fields{
			"handler":   command,
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != h.adminID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not allowed to run this command.")
		}
		return next(c, handlerLogger)
	}
}

func (h *AdminHandlers) handleSetBirthday(c telebot.Context, log *logrus.Entry) error {
	args := c.Args()
	// Expected format: /set_birthday <SlackUserID> <date>
	if len(args) < 2 {
		return c.Send("Invalid format. Use: /set_birthday <SlackUserID> <DD/MM or DD/MM/YYYY>")
	}
	subjectID := args[0]
	text := strings.Join(args[1:], " ")
	log = log.WithField("subject_id", subjectID)

	rec, updated, err := h.deps.Registry.SetBirthday(h.ctx, subjectID, text)
	if err != nil {
		var parseErr *birthday.ParseError
		if errors.As(err, &parseErr) {
			log.WithError(err).Warn("Invalid birthday date")
			return c.Send(fmt.Sprintf("Could not read a date from %q (%s). Please use DD/MM or DD/MM/YYYY.", parseErr.Input, parseErr.Status))
		}
		log.WithError(err).Error("Failed to save birthday")
		return c.Send(fmt.Sprintf("An error occurred while saving the birthday: %s", err.Error()))
	}

	log.WithField("updated", updated).Info("Birthday saved successfully")
	verb := "added"
	if updated {
		verb = "updated"
	}
	msg := fmt.Sprintf("Birthday for %s %s: %s", subjectID, verb, birthday.DateToWords(rec.Date, rec.Year))
	if rec.HasYear() {
		if age, err := birthday.AgeOnNextOccurrence(rec.Year, rec.Date, h.now()); err == nil {
			msg += fmt.Sprintf(" (turning %d)", age)
		}
	}
	if err := c.Send(fmt.Sprintf("%s. Star sign: %s.", msg, birthday.StarSign(rec.Date))); err != nil {
		return err
	}

	// The scheduled run for today may already be over.
	if !birthday.IsBirthdayToday(rec.Date, h.now()) {
		return nil
	}
	log.Info("Birthday is today, running announcements")
	return h.handleRunNow(c, log)
}

func (h *AdminHandlers) handleRemoveBirthday(c telebot.Context, log *logrus.Entry) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Invalid format. Use: /remove_birthday <SlackUserID>")
	}
	log = log.WithField("subject_id", args[0])

	if err := h.deps.Registry.RemoveBirthday(h.ctx, args[0]); err != nil {
		if errors.Is(err, birthday.ErrBirthdayNotFound) {
			log.Warn("Birthday to remove not found")
			return c.Send(fmt.Sprintf("No birthday stored for %s.", args[0]))
		}
		log.WithError(err).Error("Failed to remove birthday")
		return c.Send(fmt.Sprintf("An error occurred while removing the birthday: %s", err.Error()))
	}
	log.Info("Birthday removed successfully")
	return c.Send(fmt.Sprintf("Birthday for %s removed.", args[0]))
}

func (h *AdminHandlers) handleListBirthdays(c telebot.Context, log *logrus.Entry) error {
	records, err := h.deps.Registry.Calendar(h.ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list birthdays")
		return c.Send(fmt.Sprintf("An error occurred while listing birthdays: %s", err.Error()))
	}
	if len(records) == 0 {
		return c.Send("No birthdays stored yet.")
	}

	log.WithField("birthdays_count", len(records)).Info("Successfully retrieved birthday list")
	var response strings.Builder
	response.WriteString(fmt.Sprintf("--- Birthdays (%d) ---\n", len(records)))
	for _, r := range records {
		response.WriteString(formatRecord(r))
		response.WriteString("\n")
	}
	return c.Send(response.String())
}

func (h *AdminHandlers) handleUpcoming(c telebot.Context, log *logrus.Entry) error {
	limit := defaultUpcomingLimit
	if args := c.Args(); len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return c.Send("Invalid format. Use: /upcoming [count]")
		}
		limit = n
	}

	upcoming, err := h.deps.Registry.Upcoming(h.ctx, h.now(), limit)
	if err != nil {
		log.WithError(err).Error("Failed to list upcoming birthdays")
		return c.Send(fmt.Sprintf("An error occurred while listing birthdays: %s", err.Error()))
	}
	if len(upcoming) == 0 {
		return c.Send("No birthdays stored yet.")
	}
	var response strings.Builder
	response.WriteString("--- Upcoming birthdays ---\n")
	for _, u := range upcoming {
		response.WriteString(formatUpcoming(u))
		response.WriteString("\n")
	}
	return c.Send(response.String())
}

func (h *AdminHandlers) handlePersonality(c telebot.Context, log *logrus.Entry) error {
	args := c.Args()
	if len(args) == 0 {
		return c.Send(fmt.Sprintf("Current personality: %s\nAvailable: %s",
			h.deps.Personalities.CurrentName(), strings.Join(h.deps.Personalities.Names(), ", ")))
	}

	name := strings.ToLower(args[0])
	if err := h.deps.Personalities.SetCurrent(name); err != nil {
		if errors.Is(err, personality.ErrUnknownPersonality) {
			return c.Send(fmt.Sprintf("Unknown personality %q. Available: %s", name, strings.Join(h.deps.Personalities.Names(), ", ")))
		}
		log.WithError(err).Error("Failed to change personality")
		return c.Send(fmt.Sprintf("An error occurred while changing the personality: %s", err.Error()))
	}
	log.WithField("personality", name).Info("Personality changed")
	return c.Send(fmt.Sprintf("Personality set to %s.", name))
}

func (h *AdminHandlers) handleCustomPersonality(c telebot.Context, log *logrus.Entry) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Send(fmt.Sprintf("Invalid format. Use: /custom_personality <field> <value>\nFields: %s", strings.Join(personality.CustomFields, ", ")))
	}
	field, value := strings.ToLower(args[0]), strings.Join(args[1:], " ")

	if err := h.deps.Personalities.SetCustom(field, value); err != nil {
		if errors.Is(err, personality.ErrUnknownField) {
			return c.Send(fmt.Sprintf("Unknown field %q. Fields: %s", field, strings.Join(personality.CustomFields, ", ")))
		}
		log.WithError(err).Error("Failed to update custom personality")
		return c.Send(fmt.Sprintf("An error occurred while updating the custom personality: %s", err.Error()))
	}
	log.WithField("field", field).Info("Custom personality updated")
	return c.Send(fmt.Sprintf("Custom personality %s updated.", field))
}

func (h *AdminHandlers) handleClearCache(c telebot.Context, log *logrus.Entry) error {
	if h.deps.Facts == nil {
		return c.Send("Date facts are not enabled.")
	}
	var md *birthday.MonthDay
	if args := c.Args(); len(args) > 0 {
		parsed, err := birthday.ParseMonthDay(args[0])
		if err != nil {
			return c.Send("Invalid format. Use: /clear_cache [DD/MM]")
		}
		md = &parsed
	}

	cleared, err := h.deps.Facts.ClearCache(md)
	if err != nil {
		log.WithError(err).Error("Failed to clear date facts cache")
		return c.Send(fmt.Sprintf("An error occurred while clearing the cache: %s", err.Error()))
	}
	return c.Send(fmt.Sprintf("Cleared %d cached date facts.", cleared))
}

func (h *AdminHandlers) handleRunNow(c telebot.Context, log *logrus.Entry) error {
	summary, err := h.deps.Runner.RunDaily(h.ctx, h.now())
	if err != nil {
		log.WithError(err).Error("Manual run failed")
		return c.Send(fmt.Sprintf("Run failed: %s", err.Error()))
	}
	return c.Send(FormatSummary(summary))
}

func (h *AdminHandlers) handleCheck(c telebot.Context, log *logrus.Entry) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Invalid format. Use: /check <SlackUserID>")
	}
	subjectID := strings.ToUpper(strings.Trim(args[0], "<@>"))
	log = log.WithField("subject_id", subjectID)

	rec, err := h.deps.Registry.Birthday(h.ctx, subjectID)
	if err != nil {
		if errors.Is(err, birthday.ErrBirthdayNotFound) {
			return c.Send(fmt.Sprintf("No birthday stored for %s.", subjectID))
		}
		log.WithError(err).Error("Failed to get birthday")
		return c.Send(fmt.Sprintf("An error occurred while reading the birthday: %s", err.Error()))
	}

	msg := fmt.Sprintf("Birthday for %s: %s", subjectID, birthday.DateToWords(rec.Date, rec.Year))
	if days, err := birthday.DaysUntil(rec.Date, h.now()); err == nil {
		if days == 0 {
			msg += " (today)"
		} else {
			msg += fmt.Sprintf(" (in %d days)", days)
		}
	}
	if rec.HasYear() {
		if age, err := birthday.AgeOnNextOccurrence(rec.Year, rec.Date, h.now()); err == nil {
			msg += fmt.Sprintf(", turning %d", age)
		}
	}
	return c.Send(fmt.Sprintf("%s. Star sign: %s.", msg, birthday.StarSign(rec.Date)))
}

func (h *AdminHandlers) handleStats(c telebot.Context, log *logrus.Entry) error {
	members, err := h.deps.Reminders.ChannelMembers(h.ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list channel members")
		return c.Send(fmt.Sprintf("An error occurred while listing channel members: %s", err.Error()))
	}
	stats, err := h.deps.Registry.Stats(h.ctx, members)
	if err != nil {
		log.WithError(err).Error("Failed to compute birthday stats")
		return c.Send(fmt.Sprintf("An error occurred while listing birthdays: %s", err.Error()))
	}
	return c.Send(formatStats(stats))
}

func (h *AdminHandlers) handleRemind(c telebot.Context, log *logrus.Entry) error {
	res, err := h.deps.Reminders.SendReminders(h.ctx, strings.Join(c.Args(), " "))
	if err != nil {
		if errors.Is(err, app.ErrNoChannelMembers) {
			return c.Send("Could not retrieve channel members.")
		}
		log.WithError(err).Error("Failed to send reminders")
		return c.Send(fmt.Sprintf("An error occurred while sending reminders: %s", err.Error()))
	}
	if res.Candidates == 0 {
		return c.Send("Good news! Everyone in the birthday channel already has a birthday saved.")
	}

	msg := fmt.Sprintf("Reminder sent to %d users", res.Sent)
	if res.Failed > 0 {
		msg += fmt.Sprintf(" (failed to send to %d users)", res.Failed)
	}
	if res.SkippedBots > 0 {
		msg += fmt.Sprintf(" (skipped %d bots)", res.SkippedBots)
	}
	return c.Send(msg + ".")
}
