package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"brightday_bot/internal/domain/announcement"
	"brightday_bot/internal/domain/birthday"
	"brightday_bot/internal/domain/chat"
	"brightday_bot/internal/domain/llm"
	"brightday_bot/internal/domain/personality"

	"github.com/sirupsen/logrus"
)

// DefaultMaxComposeRetries is the number of corrective regenerations used when
// MAX_COMPOSE_RETRIES is not set.
const DefaultMaxComposeRetries = 2

// ComposeRequest describes the subject an announcement is written for.
type ComposeRequest struct {
	DisplayName  string
	MentionToken string
	DateWords    string
	Date         birthday.MonthDay
	BirthYear    int // zero when unknown
	Age          int // only meaningful when BirthYear is set
	Reference    time.Time
}

// ComposerConfig wires a Composer.
type ComposerConfig struct {
	Generator     llm.Generator
	Personalities personality.Source
	Facts         FactsProvider // optional
	Markup        chat.Markup
	Observer      Observer // optional
	Logger        *logrus.Entry
	TeamName      string
	MaxRetries    int

	// Pick returns a uniform int in [0, n). Defaults to math/rand/v2.
	Pick func(n int) int
}

// Composer turns a birthday into announcement text. The result always
// carries the subject mention and the broadcast token.
type Composer struct {
	generator     llm.Generator
	personalities personality.Source
	facts         FactsProvider
	markup        chat.Markup
	observer      Observer
	logger        *logrus.Entry
	teamName      string
	maxRetries    int
	pick          func(n int) int
}

// NewComposer builds a Composer. Observer, Logger and Pick get defaults when
// nil; a negative MaxRetries is treated as zero.
func NewComposer(cfg ComposerConfig) *Composer {
	c := &Composer{
		generator:     cfg.Generator,
		personalities: cfg.Personalities,
		facts:         cfg.Facts,
		markup:        cfg.Markup,
		observer:      cfg.Observer,
		logger:        cfg.Logger,
		teamName:      cfg.TeamName,
		maxRetries:    cfg.MaxRetries,
		pick:          cfg.Pick,
	}
	if c.observer == nil {
		c.observer = NopObserver{}
	}
	if c.logger == nil {
		c.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.pick == nil {
		c.pick = rand.IntN
	}
	return c
}

type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeRetry
	outcomeFallback
)

// attemptOutcome is the result of one generator round trip.
type attemptOutcome struct {
	kind    outcomeKind
	text    string
	missing []string // tokens absent from text, set for outcomeRetry
	err     error    // set for outcomeFallback
}

// Compose generates an announcement, asking the generator to correct itself up
// to maxRetries times. A generator error switches to the fallback pool at once.
func (c *Composer) Compose(ctx context.Context, req ComposeRequest) announcement.Message {
	log := c.logger.WithFields(logrus.Fields{
		"mention": req.MentionToken,
		"date":    req.Date.String(),
	})

	p, err := c.personalities.Current(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not load current personality, using standard.")
		p = personality.BuiltIns(personality.Defaults{BotName: personality.DefaultBotName})[personality.Standard]
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: strings.TrimSpace(p.SystemPrompt(c.teamName))},
		{Role: llm.RoleUser, Content: c.userPrompt(ctx, log, p, req)},
	}

	var last attemptOutcome
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		log.WithFields(logrus.Fields{"attempt": attempt, "personality": p.Name}).Info("Requesting birthday message.")
		last = c.attempt(ctx, messages, req)

		switch last.kind {
		case outcomeOK:
			log.WithField("attempt", attempt).Info("Generated birthday message passed validation.")
			return announcement.Message{Text: last.text, Provenance: announcement.ProvenanceGenerated}
		case outcomeFallback:
			log.WithError(last.err).Error("Generator failed, using fallback message.")
			return c.fallback(req)
		}

		if attempt < c.maxRetries {
			log.WithFields(logrus.Fields{"attempt": attempt, "missing": last.missing}).Warn("Generated message failed validation, retrying.")
			c.observer.ComposeRetried()
			messages = append(messages,
				llm.Message{Role: llm.RoleAssistant, Content: last.text},
				llm.Message{Role: llm.RoleUser, Content: c.correction(req, last.missing)},
			)
		}
	}

	log.WithField("missing", last.missing).Errorf("Generated message failed validation after %d retries, injecting missing tokens.", c.maxRetries)
	return announcement.Message{
		Text:       strings.Join(last.missing, " ") + "\n" + last.text,
		Provenance: announcement.ProvenanceGenerated,
	}
}

func (c *Composer) attempt(ctx context.Context, messages []llm.Message, req ComposeRequest) attemptOutcome {
	reply, err := c.generator.Generate(ctx, messages)
	if err != nil {
		return attemptOutcome{kind: outcomeFallback, err: err}
	}
	reply = NormalizeSlackFormatting(reply)

	var missing []string
	if !strings.Contains(reply, req.MentionToken) {
		missing = append(missing, req.MentionToken)
	}
	if b := c.markup.Broadcast(); !strings.Contains(reply, b) {
		missing = append(missing, b)
	}
	if len(missing) > 0 {
		return attemptOutcome{kind: outcomeRetry, text: reply, missing: missing}
	}
	return attemptOutcome{kind: outcomeOK, text: reply}
}

func (c *Composer) fallback(req ComposeRequest) announcement.Message {
	age := 0
	if req.BirthYear > 0 {
		age = req.Age
	}
	i := c.pick(len(fallbackTemplates))
	return announcement.Message{
		Text:       renderFallback(i, req.MentionToken, c.markup.Broadcast(), age),
		Provenance: announcement.ProvenanceFallback,
	}
}

func (c *Composer) correction(req ComposeRequest, missing []string) string {
	return fmt.Sprintf(
		"The message you provided is missing: %s. Please regenerate the message including both the user mention %s and channel mention %s formats exactly as shown.",
		strings.Join(missing, ", "), req.MentionToken, c.markup.Broadcast(),
	)
}

func (c *Composer) userPrompt(ctx context.Context, log *logrus.Entry, p personality.Personality, req ComposeRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s's birthday is on %s.", req.DisplayName, req.DateWords)
	if sign := birthday.StarSign(req.Date); sign != "" {
		fmt.Fprintf(&b, " Their star sign is %s.", sign)
	}
	if req.BirthYear > 0 && req.Age > 0 {
		fmt.Fprintf(&b, " They're turning %d today!", req.Age)
	}
	b.WriteString(" Please write them a fun, enthusiastic birthday message for a workplace Slack channel.\n\n")
	b.WriteString("IMPORTANT REQUIREMENTS:\n")
	fmt.Fprintf(&b, "1. Include their Slack mention %q somewhere in the message\n", req.MentionToken)
	fmt.Fprintf(&b, "2. Make sure to address the entire channel with %s to notify everyone\n", c.markup.Broadcast())
	b.WriteString("3. Create a message that's lively and engaging with good structure and flow\n")
	fmt.Fprintf(&b, "4. ONLY USE STANDARD SLACK EMOJIS like: %s\n", strings.Join(sampleEmojis(emojiSampleSize, c.pick), ", "))
	b.WriteString("5. Use Slack emoji format with colons (e.g. :cake:), not Unicode emojis\n")
	fmt.Fprintf(&b, "6. Your name is %s and you are %s\n", p.Name, p.Description)

	if p.DateFacts && c.facts != nil {
		facts, err := c.facts.FactsFor(ctx, req.Date)
		switch {
		case err != nil:
			log.WithError(err).Warn("Failed to get date facts, continuing without them.")
		case facts.Text != "":
			fmt.Fprintf(&b, "\nIncorporate this cosmic information about their birthday date: %s\n", facts.Text)
			if len(facts.Sources) > 0 {
				b.WriteString("You may reference this insight came from the cosmic archives without mentioning specific URLs.\n")
			}
		}
	}

	fmt.Fprintf(&b, "\nToday is %s.", req.Reference.UTC().Format(time.DateOnly))
	return b.String()
}
