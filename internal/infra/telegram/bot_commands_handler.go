// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterBotCommands registers /start and /help.
func RegisterBotCommands(b *telebot.Bot, adminTelegramID int64, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")
	b.Handle("/start", startHandler(adminTelegramID, startHelpLogger))
	b.Handle("/help", helpHandler(adminTelegramID, startHelpLogger))
}

func startHandler(adminTelegramID int64, logger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := logger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == adminTelegramID {
			logCtx.Info("User identified as Admin")
			return c.Send(fmt.Sprintf("Hi %s! BrightDay is running. Use /help for the list of commands.", c.Sender().FirstName))
		}
		logCtx.Info("User is unknown")
		return c.Send("Hi! I announce team birthdays on Slack. Only the configured operator can manage me here.")
	}
}

func helpHandler(adminTelegramID int64, logger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := logger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if senderID != adminTelegramID {
			logCtx.Info("User is unknown, sending restricted help.")
			return c.Send("There are no commands available for you.")
		}

		var helpText strings.Builder
		helpText.WriteString("Admin commands:\n\n")
		helpText.WriteString("`/set_birthday <SlackUserID> <DD/MM[/YYYY]>`\n - Add or update a birthday.\n\n")
		helpText.WriteString("`/remove_birthday <SlackUserID>`\n - Remove a birthday.\n\n")
		helpText.WriteString("`/birthdays`\n - List all birthdays in calendar order.\n\n")
		helpText.WriteString("`/upcoming [count]`\n - List the next birthdays.\n\n")
		helpText.WriteString("`/check <SlackUserID>`\n - Show one member's birthday.\n\n")
		helpText.WriteString("`/stats`\n - Show how many channel members have a birthday saved.\n\n")
		helpText.WriteString("`/remind [message]`\n - Ask channel members without a birthday to share it.\n\n")
		helpText.WriteString("`/personality [name]`\n - Show or change the announcement personality.\n\n")
		helpText.WriteString("`/custom_personality <field> <value>`\n - Change a field of the custom personality.\n\n")
		helpText.WriteString("`/clear_cache [DD/MM]`\n - Clear cached date facts.\n\n")
		helpText.WriteString("`/run_now`\n - Run today's announcements immediately.\n\n")
		helpText.WriteString("`/help`\n - Show this message.")
		return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	}
}
