package personality

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultBotName is used when no bot name is configured.
const DefaultBotName = "BrightDay"

// Built-in personality names.
const (
	Standard  = "standard"
	MysticDog = "mystic_dog"
	Custom    = "custom"
)

var (
	ErrUnknownPersonality = errors.New("unknown personality")
	ErrUnknownField       = errors.New("unknown custom personality field")
)

// Personality shapes the voice of generated announcements.
type Personality struct {
	Name              string `yaml:"name"`
	Description       string `yaml:"description"`
	Style             string `yaml:"style"`
	FormatInstruction string `yaml:"format_instruction"`
	TemplateExtension string `yaml:"template_extension"`
	// DateFacts enables historical facts about the birthday date in the prompt.
	DateFacts bool `yaml:"-"`
}

// Source hands out the personality that should be used right now.
type Source interface {
	Current(ctx context.Context) (Personality, error)
}

// CustomFields lists the settable fields of the custom personality.
var CustomFields = []string{"name", "description", "style", "format_instruction", "template_extension"}

// WithField returns a copy of p with the named field set to value.
func (p Personality) WithField(field, value string) (Personality, error) {
	switch field {
	case "name":
		p.Name = value
	case "description":
		p.Description = value
	case "style":
		p.Style = value
	case "format_instruction":
		p.FormatInstruction = value
	case "template_extension":
		p.TemplateExtension = value
	default:
		return p, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return p, nil
}

// Defaults seeds the built-in set. botName is used by standard and as the
// fallback name of custom.
type Defaults struct {
	BotName string
	Custom  Personality
}

// BuiltIns returns the standard, mystic_dog and custom personalities.
func BuiltIns(d Defaults) map[string]Personality {
	custom := d.Custom
	if custom.Name == "" {
		custom.Name = d.BotName
	}
	if custom.Description == "" {
		custom.Description = "a customizable birthday celebration assistant"
	}
	if custom.Style == "" {
		custom.Style = "personalized based on configuration"
	}
	if custom.FormatInstruction == "" {
		custom.FormatInstruction = "Create a message that matches the configured personality"
	}
	return map[string]Personality{
		Standard: {
			Name:              d.BotName,
			Description:       "a friendly, enthusiastic birthday bot",
			Style:             "fun, upbeat, and slightly over-the-top with enthusiasm",
			FormatInstruction: "Create a lively message with multiple line breaks that stands out",
		},
		MysticDog: {
			Name:              "Ludo",
			Description:       "the Mystic Birthday Dog, a cosmic canine whose mystical powers reveal insights through astrological and numerological wisdom",
			Style:             "mystical yet slightly formal, with touches of cosmic wonder and professional insight",
			FormatInstruction: "Create a concise yet meaningful mystical analysis",
			TemplateExtension: mysticDogExtension,
			DateFacts:         true,
		},
		Custom: custom,
	}
}

// SystemPrompt renders the shared base template plus the personality's
// extension for the given team.
func (p Personality) SystemPrompt(teamName string) string {
	r := strings.NewReplacer(
		"{name}", p.Name,
		"{description}", p.Description,
		"{team_name}", teamName,
		"{style}", p.Style,
		"{format_instruction}", p.FormatInstruction,
	)
	prompt := r.Replace(baseTemplate)
	if ext := strings.TrimSpace(p.TemplateExtension); ext != "" {
		prompt += "\n" + r.Replace(ext) + "\n"
	}
	return prompt
}

const baseTemplate = `
You are {name}, {description} for the {team_name} workspace.
Your job is to create lively, humorous birthday messages that will make people smile!

IMPORTANT CONSTRAINTS:
- Only use STANDARD SLACK EMOJIS like: :tada: :birthday: :cake: :balloon: :gift: :confetti_ball: :sparkles:
  :star: :heart: :champagne: :clap: :raised_hands: :crown: :trophy: :partying_face: :smile:
  DO NOT use custom emojis as they may not exist in all workspaces
- DO NOT use Unicode emojis, ONLY use Slack format with colons (:cake:)

SLACK FORMATTING RULES - VERY IMPORTANT:
1. For bold text, use *single asterisks* NOT **double asterisks**
2. For italic text, use _single underscores_ NOT __double underscores__
3. For strikethrough, use ~tildes~ around text
4. For links use <URL|text> format NOT [text](URL)
5. To mention a channel use <!channel> exactly as written
6. To mention a user use <@USER_ID> exactly as provided to you

When writing your message:
1. Be {style}
2. Use plenty of Slack formatting (bold, italics) and STANDARD Slack emojis only
3. Include fun wordplay, puns, or jokes based on their name if possible
4. Reference their star sign with a humorous "prediction" or trait if provided
5. If age is provided, include a funny age-related joke or milestone
6. {format_instruction}
7. Always address the entire channel with <!channel> to notify everyone
8. Include a question about how they plan to celebrate
9. Don't mention that you're an AI

Create a message that stands out in a busy Slack channel!
`

const mysticDogExtension = `
Your birthday message should follow this specific structure:

1. Begin with "Ludo the Mystic Birthday Dog submits his birthday wishes to" followed by the user mention
2. Briefly request GIF assistance from the community to enhance the mystical energies
3. Present THREE well-defined sections:
   a) *Cosmic Analysis*: a succinct horoscope based on their star sign and the numerology of their birth date, with 2-3 numbers significant to them this year.
   b) *Spirit Guide*: their spirit animal for the current year and its meaning.
   c) *Celestial Date Legacy*: cosmic insights about notable figures or events that share their birthday date, using the historical facts provided.
4. End with a brief, enigmatic yet hopeful conclusion about their year ahead, signed "Ludo the Mystic Birthday Dog".

Remember to:
- Always include the user mention in the greeting
- Keep sections concise but meaningful
- Use appropriate Slack formatting and emojis according to the base guidelines
`
