package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"brightday_bot/internal/domain/birthday"
	"brightday_bot/internal/domain/chat"

	"github.com/sirupsen/logrus"
)

var ErrNoChannelMembers = fmt.Errorf("could not retrieve channel members")

// Reminder message pieces, one drawn from each pool. {name} takes the mention
// token.
var (
	reminderGreetings = []string{
		"Hey {name}! :wave:",
		"Hi {name}! :sunny:",
		"Hello {name}! :smile:",
		"Psst {name}! :eyes:",
	}
	reminderIntros = []string{
		"We're putting together our birthday calendar and noticed yours is missing.",
		"Our birthday channel keeps track of everyone's big day, but we don't have yours yet.",
		"The birthday bot likes to celebrate everyone, and you're not on its list.",
	}
	reminderReasons = []string{
		"That way the team can celebrate you properly! :tada:",
		"We'd hate to let your day slip by unnoticed. :birthday:",
		"Cake is better when we know when to bring it. :cake:",
	}
	reminderInstructions = []string{
		"Just send your birthday to one of the birthday admins as DD/MM (like 14/07), or DD/MM/YYYY if you'd like us to count the years.",
		"Reply to a birthday admin with your date as DD/MM, for example 25/12. Add the year as DD/MM/YYYY if you're happy to share it.",
	}
	reminderOutros = []string{
		"Thanks! :sparkles:",
		"See you at the party! :confetti_ball:",
		"Have a great day! :rainbow:",
	}
)

// ReminderResult counts the outcome of one reminder round.
type ReminderResult struct {
	Candidates  int
	Sent        int
	Failed      int
	SkippedBots int
}

// ReminderServiceConfig wires a ReminderService.
type ReminderServiceConfig struct {
	Birthdays birthday.Repository
	Chat      chat.Client
	Directory chat.Directory
	Markup    chat.Markup
	ChannelID string
	Logger    *logrus.Entry

	// Pick returns a uniform int in [0, n). Defaults to math/rand/v2.
	Pick func(n int) int
}

// ReminderService asks channel members without a stored birthday to share it.
type ReminderService struct {
	birthdays birthday.Repository
	chat      chat.Client
	directory chat.Directory
	markup    chat.Markup
	channelID string
	logger    *logrus.Entry
	pick      func(n int) int
}

func NewReminderService(cfg ReminderServiceConfig) *ReminderService {
	s := &ReminderService{
		birthdays: cfg.Birthdays,
		chat:      cfg.Chat,
		directory: cfg.Directory,
		markup:    cfg.Markup,
		channelID: cfg.ChannelID,
		logger:    cfg.Logger,
		pick:      cfg.Pick,
	}
	if s.logger == nil {
		s.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if s.pick == nil {
		s.pick = rand.IntN
	}
	return s
}

// ChannelMembers lists the members of the announcement channel.
func (s *ReminderService) ChannelMembers(ctx context.Context) ([]string, error) {
	members, err := s.directory.ChannelMembers(ctx, s.channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel members: %w", err)
	}
	return members, nil
}

// SendReminders direct-messages every human channel member that has no
// stored birthday. customMessage replaces the generated text when non-empty
// and is addressed to the member when it does not mention them already.
// It returns ErrNoChannelMembers when the channel looks empty.
func (s *ReminderService) SendReminders(ctx context.Context, customMessage string) (ReminderResult, error) {
	members, err := s.ChannelMembers(ctx)
	if err != nil {
		return ReminderResult{}, err
	}
	if len(members) == 0 {
		return ReminderResult{}, ErrNoChannelMembers
	}
	records, err := s.birthdays.List(ctx)
	if err != nil {
		return ReminderResult{}, fmt.Errorf("failed to list birthdays: %w", err)
	}

	missing := missingMembers(records, members)
	res := ReminderResult{Candidates: len(missing)}
	for _, userID := range missing {
		logger := s.logger.WithField("subject_id", userID)

		bot, err := s.directory.IsBot(ctx, userID)
		if err != nil {
			logger.WithError(err).Warn("Could not check whether user is a bot, reminding anyway.")
		}
		if bot {
			res.SkippedBots++
			continue
		}

		if err := s.chat.SendMessage(ctx, userID, s.reminderText(userID, customMessage)); err != nil {
			logger.WithError(err).Error("Failed to send birthday reminder.")
			res.Failed++
			continue
		}
		res.Sent++
	}

	s.logger.WithFields(logrus.Fields{
		"candidates":   res.Candidates,
		"sent":         res.Sent,
		"failed":       res.Failed,
		"skipped_bots": res.SkippedBots,
	}).Info("Birthday reminders sent.")
	return res, nil
}

func (s *ReminderService) reminderText(userID, customMessage string) string {
	mention := s.markup.Mention(userID)
	if custom := strings.TrimSpace(customMessage); custom != "" {
		if strings.Contains(custom, mention) {
			return custom
		}
		return mention + ", " + custom
	}

	parts := []string{
		strings.ReplaceAll(s.choose(reminderGreetings), "{name}", mention),
		s.choose(reminderIntros) + " " + s.choose(reminderReasons),
		s.choose(reminderInstructions),
		s.choose(reminderOutros),
	}
	return strings.Join(parts, "\n\n")
}

func (s *ReminderService) choose(pool []string) string {
	return pool[s.pick(len(pool))]
}
