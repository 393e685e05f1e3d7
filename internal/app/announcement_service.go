package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brightday_bot/internal/domain/announcement"
	"brightday_bot/internal/domain/birthday"
	"brightday_bot/internal/domain/chat"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Summary is the outcome of one daily run. Handled counts subjects whose
// birthday is today and who are now announced, whether by this run or an
// earlier one.
type Summary struct {
	RunID            string
	Day              string
	Handled          int
	Announced        int
	AlreadyAnnounced int
	Failed           int
	Fallbacks        int
	Upcoming         []birthday.Upcoming
}

// AnnouncementServiceConfig wires an AnnouncementService.
type AnnouncementServiceConfig struct {
	Birthdays birthday.Repository
	Ledger    announcement.Ledger
	Composer  *Composer
	Chat      chat.Client
	Markup    chat.Markup
	ChannelID string
	Reporter  RunReporter // optional
	Observer  Observer    // optional
	Logger    *logrus.Entry

	// UpcomingWindowDays limits Summary.Upcoming to birthdays this many days ahead.
	UpcomingWindowDays int
}

// AnnouncementService runs the once-a-day birthday announcement pass.
type AnnouncementService struct {
	birthdays      birthday.Repository
	ledger         announcement.Ledger
	composer       *Composer
	chat           chat.Client
	markup         chat.Markup
	channelID      string
	reporter       RunReporter
	observer       Observer
	logger         *logrus.Entry
	upcomingWindow int
	newRunID       func() string
}

func NewAnnouncementService(cfg AnnouncementServiceConfig) *AnnouncementService {
	s := &AnnouncementService{
		birthdays:      cfg.Birthdays,
		ledger:         cfg.Ledger,
		composer:       cfg.Composer,
		chat:           cfg.Chat,
		markup:         cfg.Markup,
		channelID:      cfg.ChannelID,
		reporter:       cfg.Reporter,
		observer:       cfg.Observer,
		logger:         cfg.Logger,
		upcomingWindow: cfg.UpcomingWindowDays,
		newRunID:       uuid.NewString,
	}
	if s.observer == nil {
		s.observer = NopObserver{}
	}
	if s.logger == nil {
		s.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return s
}

// RunDaily announces every birthday falling on now's UTC date that has not
// been announced yet. now is the single reference instant for the whole run.
// Ledger and delivery failures never abort the run; the returned error is
// only set when the birthday list itself cannot be read.
func (s *AnnouncementService) RunDaily(ctx context.Context, now time.Time) (Summary, error) {
	ref := now.UTC()
	summary := Summary{RunID: s.newRunID(), Day: announcement.DayKey(ref)}
	log := s.logger.WithFields(logrus.Fields{"run_id": summary.RunID, "day": summary.Day})
	log.Info("Starting daily birthday run.")

	if err := s.ledger.Rotate(ctx, ref); err != nil {
		log.WithError(err).Warn("Failed to rotate announcement ledger, continuing.")
		s.observer.LedgerFailed("rotate")
	}
	announced, err := s.ledger.AnnouncedOn(ctx, ref)
	if err != nil {
		log.WithError(err).Warn("Failed to read announcement ledger, assuming nothing announced yet.")
		s.observer.LedgerFailed("read")
		announced = map[string]struct{}{}
	}

	records, err := s.birthdays.List(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list birthdays.")
		s.finish(ctx, log, summary)
		return summary, fmt.Errorf("failed to list birthdays: %w", err)
	}

	for _, r := range records {
		if !birthday.IsBirthdayToday(r.Date, ref) {
			continue
		}
		subjectLog := log.WithField("subject_id", r.SubjectID)
		if _, ok := announced[r.SubjectID]; ok {
			subjectLog.Info("Birthday already announced today, skipping.")
			summary.AlreadyAnnounced++
			summary.Handled++
			continue
		}

		msg, err := s.announce(ctx, subjectLog, r, ref)
		if err != nil {
			subjectLog.WithError(err).Error("Failed to deliver birthday announcement.")
			s.observer.DeliveryFailed()
			summary.Failed++
			continue
		}
		s.observer.Announced(msg.Provenance)
		if msg.Provenance == announcement.ProvenanceFallback {
			summary.Fallbacks++
		}
		summary.Announced++
		summary.Handled++
		announced[r.SubjectID] = struct{}{}

		if err := s.ledger.MarkAnnounced(ctx, ref, r.SubjectID); err != nil {
			subjectLog.WithError(err).Warn("Failed to record announcement marker.")
			s.observer.LedgerFailed("write")
		}
	}

	summary.Upcoming = s.upcoming(records, ref)
	s.finish(ctx, log, summary)
	return summary, nil
}

func (s *AnnouncementService) announce(ctx context.Context, log *logrus.Entry, r birthday.Record, ref time.Time) (announcement.Message, error) {
	mention := s.markup.Mention(r.SubjectID)
	name, err := s.chat.DisplayName(ctx, r.SubjectID)
	if err != nil || name == "" {
		log.WithError(err).Debug("Display name unavailable, using mention.")
		name = mention
	}

	req := ComposeRequest{
		DisplayName:  name,
		MentionToken: mention,
		DateWords:    birthday.DateToWords(r.Date, 0),
		Date:         r.Date,
		BirthYear:    r.Year,
		Reference:    ref,
	}
	if r.HasYear() {
		req.Age, err = birthday.AgeOnNextOccurrence(r.Year, r.Date, ref)
		if err != nil {
			req.BirthYear = 0
		}
	}

	msg := s.composer.Compose(ctx, req)
	if err := s.chat.SendMessage(ctx, s.channelID, msg.Text); err != nil {
		return msg, err
	}
	log.WithField("provenance", msg.Provenance).Info("Birthday announcement delivered.")
	return msg, nil
}

func (s *AnnouncementService) upcoming(records []birthday.Record, ref time.Time) []birthday.Upcoming {
	if s.upcomingWindow <= 0 {
		return nil
	}
	var out []birthday.Upcoming
	for _, u := range birthday.SortByUpcoming(records, ref) {
		if u.DaysUntil == 0 {
			continue
		}
		if u.DaysUntil > s.upcomingWindow {
			break
		}
		out = append(out, u)
	}
	return out
}

func (s *AnnouncementService) finish(ctx context.Context, log *logrus.Entry, summary Summary) {
	log.WithFields(logrus.Fields{
		"handled":           summary.Handled,
		"announced":         summary.Announced,
		"already_announced": summary.AlreadyAnnounced,
		"failed":            summary.Failed,
		"fallbacks":         summary.Fallbacks,
	}).Info("Daily birthday run finished.")
	s.observer.RunCompleted(summary)

	if s.reporter == nil {
		return
	}
	if err := s.reporter.ReportRun(ctx, summary); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Warn("Failed to send run report.")
	}
}
