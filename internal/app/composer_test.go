package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"brightday_bot/internal/domain/announcement"
	"brightday_bot/internal/domain/birthday"
	"brightday_bot/internal/domain/llm"
	"brightday_bot/internal/domain/personality"

	"github.com/stretchr/testify/require"
)

func firstPick(int) int { return 0 }

func newTestComposer(gen llm.Generator, opts ...func(*ComposerConfig)) *Composer {
	cfg := ComposerConfig{
		Generator:     gen,
		Personalities: standardPersonality(),
		Markup:        testMarkup{},
		Logger:        testLogger(),
		TeamName:      "Platform",
		MaxRetries:    DefaultMaxComposeRetries,
		Pick:          firstPick,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewComposer(cfg)
}

func christmasRequest() ComposeRequest {
	return ComposeRequest{
		DisplayName:  "Ada",
		MentionToken: "<@U1>",
		DateWords:    "25th of December",
		Date:         birthday.MonthDay{Day: 25, Month: time.December},
		Reference:    time.Date(2025, time.December, 25, 8, 0, 0, 0, time.UTC),
	}
}

func TestComposeValidFirstAttempt(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"<!channel> happy birthday **<@U1>**!"}}
	c := newTestComposer(gen)

	msg := c.Compose(context.Background(), christmasRequest())

	require.Equal(t, announcement.ProvenanceGenerated, msg.Provenance)
	require.Equal(t, "<!channel> happy birthday *<@U1>*!", msg.Text)
	require.Len(t, gen.calls, 1)
	require.Len(t, gen.calls[0], 2)
	require.Equal(t, llm.RoleSystem, gen.calls[0][0].Role)
	require.Equal(t, llm.RoleUser, gen.calls[0][1].Role)
}

func TestComposeRetriesWithCorrectiveMessage(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{
		"happy birthday!",
		"happy birthday <@U1>!",
		"<!channel> happy birthday <@U1>!",
	}}
	obs := &countingObserver{}
	c := newTestComposer(gen, func(cfg *ComposerConfig) { cfg.Observer = obs })

	msg := c.Compose(context.Background(), christmasRequest())

	require.Equal(t, announcement.ProvenanceGenerated, msg.Provenance)
	require.Equal(t, "<!channel> happy birthday <@U1>!", msg.Text)
	require.Len(t, gen.calls, 3)
	require.Equal(t, 2, obs.retries)

	third := gen.calls[2]
	require.Len(t, third, 6)
	require.Equal(t, llm.RoleAssistant, third[2].Role)
	require.Equal(t, "happy birthday!", third[2].Content)
	require.Equal(t, llm.RoleUser, third[3].Role)
	require.Contains(t, third[3].Content, "<@U1>, <!channel>")
	require.Equal(t, "happy birthday <@U1>!", third[4].Content)
	require.Contains(t, third[5].Content, "missing: <!channel>.")
}

func TestComposeExhaustedRetriesStillCarriesTokens(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"a lovely message with no tokens"}}
	c := newTestComposer(gen)

	msg := c.Compose(context.Background(), christmasRequest())

	require.Len(t, gen.calls, DefaultMaxComposeRetries+1)
	require.Equal(t, announcement.ProvenanceGenerated, msg.Provenance)
	require.Contains(t, msg.Text, "<@U1>")
	require.Contains(t, msg.Text, "<!channel>")
	require.True(t, strings.HasSuffix(msg.Text, "a lovely message with no tokens"))
}

func TestComposeZeroRetries(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"<@U1> only"}}
	c := newTestComposer(gen, func(cfg *ComposerConfig) { cfg.MaxRetries = 0 })

	msg := c.Compose(context.Background(), christmasRequest())

	require.Len(t, gen.calls, 1)
	require.Equal(t, "<!channel>\n<@U1> only", msg.Text)
}

func TestComposeGeneratorFailureUsesFallback(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("503 service unavailable")}
	c := newTestComposer(gen, func(cfg *ComposerConfig) {
		cfg.Pick = func(n int) int { return 2 }
	})

	msg := c.Compose(context.Background(), christmasRequest())

	require.Len(t, gen.calls, 1)
	require.Equal(t, announcement.ProvenanceFallback, msg.Provenance)
	require.Contains(t, msg.Text, "*Birthday Alert*")
	require.Contains(t, msg.Text, "<@U1> is having a BIRTHDAY today!")
	require.Contains(t, msg.Text, "<!channel>")
	require.NotContains(t, msg.Text, "trips around the sun")
}

func TestComposeFallbackMentionsAgeOnlyWhenYearKnown(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("timeout")}
	c := newTestComposer(gen)

	req := christmasRequest()
	req.BirthYear = 1990
	req.Age = 35
	msg := c.Compose(context.Background(), req)
	require.Contains(t, msg.Text, "35 trips around the sun")

	req.BirthYear = 0
	msg = c.Compose(context.Background(), req)
	require.NotContains(t, msg.Text, "35")
}

func TestFallbackTemplatesCarryBothTokens(t *testing.T) {
	for i := range fallbackTemplates {
		text := renderFallback(i, "<@U9>", "<!channel>", 0)
		require.Contains(t, text, "<@U9>", "template %d", i)
		require.Contains(t, text, "<!channel>", "template %d", i)
		require.NotContains(t, text, "{", "template %d", i)
	}
}

func TestComposePrompt(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"<!channel> <@U1>"}}
	c := newTestComposer(gen)

	req := christmasRequest()
	req.BirthYear = 1990
	req.Age = 35
	c.Compose(context.Background(), req)

	system := gen.calls[0][0].Content
	require.Contains(t, system, "You are BrightDay")
	require.Contains(t, system, "Platform workspace")

	user := gen.calls[0][1].Content
	require.Contains(t, user, "Ada's birthday is on 25th of December.")
	require.Contains(t, user, "Their star sign is Capricorn.")
	require.Contains(t, user, "They're turning 35 today!")
	require.Contains(t, user, `"<@U1>"`)
	require.Contains(t, user, "Today is 2025-12-25.")
	require.NotContains(t, user, "cosmic information")
}

func TestComposePromptWithoutYearHasNoAge(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"<!channel> <@U1>"}}
	c := newTestComposer(gen)

	req := christmasRequest()
	req.Age = 35
	c.Compose(context.Background(), req)

	require.NotContains(t, gen.calls[0][1].Content, "turning")
}

func TestComposeDateFactsOnlyForFactsPersonality(t *testing.T) {
	facts := &stubFacts{facts: DateFacts{Text: "Isaac Newton was born on this day.", Sources: []string{"https://example.org"}}}
	mystic := personality.BuiltIns(personality.Defaults{BotName: "BrightDay"})[personality.MysticDog]

	gen := &scriptedGenerator{replies: []string{"<!channel> <@U1>"}}
	c := newTestComposer(gen, func(cfg *ComposerConfig) {
		cfg.Facts = facts
		cfg.Personalities = staticPersonality{p: mystic}
	})
	c.Compose(context.Background(), christmasRequest())

	require.Len(t, facts.asked, 1)
	require.Contains(t, gen.calls[0][1].Content, "Isaac Newton was born on this day.")
	require.Contains(t, gen.calls[0][1].Content, "cosmic archives")
	require.Contains(t, gen.calls[0][0].Content, "You are Ludo")

	facts.asked = nil
	gen = &scriptedGenerator{replies: []string{"<!channel> <@U1>"}}
	c = newTestComposer(gen, func(cfg *ComposerConfig) { cfg.Facts = facts })
	c.Compose(context.Background(), christmasRequest())
	require.Empty(t, facts.asked)
}

func TestComposeFactsFailureIsNotFatal(t *testing.T) {
	facts := &stubFacts{err: errors.New("search unavailable")}
	mystic := personality.BuiltIns(personality.Defaults{BotName: "BrightDay"})[personality.MysticDog]
	gen := &scriptedGenerator{replies: []string{"<!channel> <@U1>"}}
	c := newTestComposer(gen, func(cfg *ComposerConfig) {
		cfg.Facts = facts
		cfg.Personalities = staticPersonality{p: mystic}
	})

	msg := c.Compose(context.Background(), christmasRequest())
	require.Equal(t, announcement.ProvenanceGenerated, msg.Provenance)
	require.NotContains(t, gen.calls[0][1].Content, "cosmic information")
}

func TestComposePersonalityErrorFallsBackToStandard(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"<!channel> <@U1>"}}
	c := newTestComposer(gen, func(cfg *ComposerConfig) {
		cfg.Personalities = staticPersonality{err: errors.New("corrupt file")}
	})

	msg := c.Compose(context.Background(), christmasRequest())
	require.Equal(t, announcement.ProvenanceGenerated, msg.Provenance)
	require.Contains(t, gen.calls[0][0].Content, "a friendly, enthusiastic birthday bot")
}

func TestSampleEmojisDistinct(t *testing.T) {
	got := sampleEmojis(emojiSampleSize, func(n int) int { return n - 1 })
	require.Len(t, got, emojiSampleSize)
	seen := map[string]bool{}
	for _, e := range got {
		require.False(t, seen[e], e)
		seen[e] = true
	}
}
