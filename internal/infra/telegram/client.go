// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"
	"strings"

	"brightday_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Sender is the part of *telebot.Bot used for outgoing messages.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Reporter posts run summaries to an operator chat.
type Reporter struct {
	sender Sender
	chatID int64
	logger *logrus.Entry
}

var _ app.RunReporter = (*Reporter)(nil)

func NewReporter(sender Sender, chatID int64, logger *logrus.Entry) *Reporter {
	return &Reporter{sender: sender, chatID: chatID, logger: logger}
}

// ReportRun sends the formatted summary to the report chat.
func (r *Reporter) ReportRun(_ context.Context, summary app.Summary) error {
	recipient := &telebot.Chat{ID: r.chatID}
	if _, err := r.sender.Send(recipient, FormatSummary(summary), &telebot.SendOptions{DisableWebPagePreview: true}); err != nil {
		return fmt.Errorf("failed to send run report: %w", err)
	}
	r.logger.WithFields(logrus.Fields{"run_id": summary.RunID, "chat_id": r.chatID}).Debug("Run report sent.")
	return nil
}

// FormatSummary renders a run summary as plain text.
func FormatSummary(s app.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Birthday run %s (%s)\n", s.Day, s.RunID)
	fmt.Fprintf(&b, "Handled: %d, announced: %d, already announced: %d, failed: %d", s.Handled, s.Announced, s.AlreadyAnnounced, s.Failed)
	if s.Fallbacks > 0 {
		fmt.Fprintf(&b, ", fallback messages: %d", s.Fallbacks)
	}
	b.WriteString("\n")
	if len(s.Upcoming) == 0 {
		b.WriteString("No upcoming birthdays.")
		return b.String()
	}
	b.WriteString("Upcoming:\n")
	for _, u := range s.Upcoming {
		b.WriteString(formatUpcoming(u))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
