package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"brightday_bot/internal/domain/birthday"
)

var ErrEmptySubjectID = fmt.Errorf("subject id must not be empty")

// RegistryService handles the business logic for maintaining tracked birthdays.
type RegistryService struct {
	birthdays birthday.Repository
}

func NewRegistryService(repo birthday.Repository) *RegistryService {
	return &RegistryService{birthdays: repo}
}

// SetBirthday parses text for a date and stores it for subjectID. It reports
// whether an existing birthday was replaced. Unparseable text yields a
// *birthday.ParseError.
func (s *RegistryService) SetBirthday(ctx context.Context, subjectID, text string) (birthday.Record, bool, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return birthday.Record{}, false, ErrEmptySubjectID
	}

	res := birthday.ParseDate(text)
	if res.Status != birthday.ParseSuccess {
		return birthday.Record{}, false, &birthday.ParseError{Status: res.Status, Input: text}
	}

	rec := birthday.Record{SubjectID: subjectID, Date: res.Date, Year: res.Year}
	updated, err := s.birthdays.Save(ctx, rec)
	if err != nil {
		return birthday.Record{}, false, fmt.Errorf("failed to save birthday: %w", err)
	}
	return rec, updated, nil
}

// RemoveBirthday deletes the subject's birthday. Removing an unknown subject
// returns birthday.ErrBirthdayNotFound.
func (s *RegistryService) RemoveBirthday(ctx context.Context, subjectID string) error {
	if err := s.birthdays.Remove(ctx, subjectID); err != nil {
		if errors.Is(err, birthday.ErrBirthdayNotFound) {
			return err
		}
		return fmt.Errorf("failed to remove birthday: %w", err)
	}
	return nil
}

// Calendar lists every birthday ordered by month and day.
func (s *RegistryService) Calendar(ctx context.Context) ([]birthday.Record, error) {
	records, err := s.birthdays.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list birthdays: %w", err)
	}
	return birthday.SortByCalendar(records), nil
}

// Upcoming lists at most limit birthdays ordered by how soon they fall due
// from now, today's first. A non-positive limit returns all of them.
func (s *RegistryService) Upcoming(ctx context.Context, now time.Time, limit int) ([]birthday.Upcoming, error) {
	records, err := s.birthdays.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list birthdays: %w", err)
	}
	out := birthday.SortByUpcoming(records, now)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Birthday returns the stored birthday of subjectID, or
// birthday.ErrBirthdayNotFound.
func (s *RegistryService) Birthday(ctx context.Context, subjectID string) (birthday.Record, error) {
	rec, err := s.birthdays.Get(ctx, strings.TrimSpace(subjectID))
	if err != nil {
		if errors.Is(err, birthday.ErrBirthdayNotFound) {
			return birthday.Record{}, err
		}
		return birthday.Record{}, fmt.Errorf("failed to get birthday: %w", err)
	}
	return rec, nil
}

// Stats summarises the registry against the members of the announcement
// channel.
type Stats struct {
	Total    int
	WithYear int
	Members  int
	Missing  int
	ByMonth  [12]int
}

// Coverage is the share of channel members with a birthday, in percent.
func (s Stats) Coverage() float64 {
	if s.Members == 0 {
		return 0
	}
	return float64(s.Members-s.Missing) / float64(s.Members) * 100
}

// YearShare is the share of birthdays that carry a birth year, in percent.
func (s Stats) YearShare() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.WithYear) / float64(s.Total) * 100
}

// Stats counts stored birthdays and compares them with members.
func (s *RegistryService) Stats(ctx context.Context, members []string) (Stats, error) {
	records, err := s.birthdays.List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list birthdays: %w", err)
	}
	st := Stats{Total: len(records), Members: len(members)}
	for _, rec := range records {
		if rec.HasYear() {
			st.WithYear++
		}
		st.ByMonth[rec.Date.Month-1]++
	}
	st.Missing = len(missingMembers(records, members))
	return st, nil
}

// missingMembers returns the members without a stored birthday, in order.
func missingMembers(records []birthday.Record, members []string) []string {
	known := make(map[string]struct{}, len(records))
	for _, rec := range records {
		known[rec.SubjectID] = struct{}{}
	}
	var missing []string
	for _, id := range members {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
