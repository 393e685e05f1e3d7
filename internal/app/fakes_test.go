package app

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"brightday_bot/internal/domain/announcement"
	"brightday_bot/internal/domain/birthday"
	"brightday_bot/internal/domain/llm"
	"brightday_bot/internal/domain/personality"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type testMarkup struct{}

func (testMarkup) Mention(userID string) string { return "<@" + userID + ">" }
func (testMarkup) Broadcast() string { return "<!channel>" }

// scriptedGenerator replays replies in order; the last entry repeats.
type scriptedGenerator struct {
	replies []string
	err     error
	calls   [][]llm.Message
}

func (g *scriptedGenerator) Generate(_ context.Context, messages []llm.Message) (string, error) {
	snapshot := make([]llm.Message, len(messages))
	copy(snapshot, messages)
	g.calls = append(g.calls, snapshot)
	if g.err != nil {
		return "", g.err
	}
	i := len(g.calls) - 1
	if i >= len(g.replies) {
		i = len(g.replies) - 1
	}
	return g.replies[i], nil
}

type staticPersonality struct {
	p   personality.Personality
	err error
}

func (s staticPersonality) Current(context.Context) (personality.Personality, error) {
	return s.p, s.err
}

func standardPersonality() staticPersonality {
	return staticPersonality{p: personality.BuiltIns(personality.Defaults{BotName: "BrightDay"})[personality.Standard]}
}

type stubFacts struct {
	facts DateFacts
	err   error
	asked []birthday.MonthDay
}

func (f *stubFacts) FactsFor(_ context.Context, md birthday.MonthDay) (DateFacts, error) {
	f.asked = append(f.asked, md)
	return f.facts, f.err
}

type sentMessage struct {
	channelID string
	text      string
}

type fakeChat struct {
	names   map[string]string
	failFor map[string]bool // subject ids whose mention makes delivery fail
	sent    []sentMessage
}

func (c *fakeChat) SendMessage(_ context.Context, channelID, text string) error {
	for id := range c.failFor {
		if containsMention(text, id) {
			return errors.New("channel_not_found")
		}
	}
	c.sent = append(c.sent, sentMessage{channelID: channelID, text: text})
	return nil
}

func (c *fakeChat) DisplayName(_ context.Context, userID string) (string, error) {
	if name, ok := c.names[userID]; ok {
		return name, nil
	}
	return "", errors.New("user_not_found")
}

func containsMention(text, id string) bool {
	return strings.Contains(text, testMarkup{}.Mention(id))
}

type memRepo struct {
	records map[string]birthday.Record
	listErr error
}

func newMemRepo(records ...birthday.Record) *memRepo {
	r := &memRepo{records: map[string]birthday.Record{}}
	for _, rec := range records {
		r.records[rec.SubjectID] = rec
	}
	return r
}

func (r *memRepo) List(context.Context) ([]birthday.Record, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]birthday.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	return out, nil
}

func (r *memRepo) Get(_ context.Context, subjectID string) (birthday.Record, error) {
	rec, ok := r.records[subjectID]
	if !ok {
		return birthday.Record{}, birthday.ErrBirthdayNotFound
	}
	return rec, nil
}

func (r *memRepo) Save(_ context.Context, rec birthday.Record) (bool, error) {
	_, existed := r.records[rec.SubjectID]
	r.records[rec.SubjectID] = rec
	return existed, nil
}

func (r *memRepo) Remove(_ context.Context, subjectID string) error {
	if _, ok := r.records[subjectID]; !ok {
		return birthday.ErrBirthdayNotFound
	}
	delete(r.records, subjectID)
	return nil
}

type memLedger struct {
	mu       sync.Mutex
	days     map[string]map[string]struct{}
	readErr  error
	writeErr error
}

func newMemLedger() *memLedger {
	return &memLedger{days: map[string]map[string]struct{}{}}
}

func (l *memLedger) AnnouncedOn(_ context.Context, day time.Time) (map[string]struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readErr != nil {
		return nil, l.readErr
	}
	out := map[string]struct{}{}
	for id := range l.days[announcement.DayKey(day)] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (l *memLedger) MarkAnnounced(_ context.Context, day time.Time, subjectID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeErr != nil {
		return l.writeErr
	}
	key := announcement.DayKey(day)
	if l.days[key] == nil {
		l.days[key] = map[string]struct{}{}
	}
	l.days[key][subjectID] = struct{}{}
	return nil
}

func (l *memLedger) Rotate(_ context.Context, day time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	keep := announcement.DayKey(day)
	for key := range l.days {
		if key != keep {
			delete(l.days, key)
		}
	}
	return nil
}

type countingObserver struct {
	runs        []Summary
	provenances []announcement.Provenance
	failures    int
	retries     int
	ledgerOps   []string
}

func (o *countingObserver) RunCompleted(s Summary) { o.runs = append(o.runs, s) }
func (o *countingObserver) Announced(p announcement.Provenance) { o.provenances = append(o.provenances, p) }
func (o *countingObserver) DeliveryFailed() { o.failures++ }
func (o *countingObserver) ComposeRetried() { o.retries++ }
func (o *countingObserver) LedgerFailed(op string) { o.ledgerOps = append(o.ledgerOps, op) }

type recordingReporter struct {
	summaries []Summary
}

func (r *recordingReporter) ReportRun(_ context.Context, s Summary) error {
	r.summaries = append(r.summaries, s)
	return nil
}

type fakeDirectory struct {
	members []string
	bots    map[string]bool
	botErr  map[string]bool
	listErr error
}

func (d *fakeDirectory) ChannelMembers(context.Context, string) ([]string, error) {
	return d.members, d.listErr
}

func (d *fakeDirectory) IsBot(_ context.Context, userID string) (bool, error) {
	if d.botErr[userID] {
		return false, errors.New("user_not_found")
	}
	return d.bots[userID], nil
}
