package app

import (
	"fmt"
	"strings"
)

// fallbackTemplates are used when the generator is unavailable. {name} takes
// the mention token and {broadcast} the channel-wide notification token.
var fallbackTemplates = []string{
	`:birthday: HAPPY BIRTHDAY {name}!!! :tada:

{broadcast} We've got a birthday to celebrate!

:cake: :cake: :cake: :cake: :cake: :cake: :cake:

*Let the festivities begin!* :confetti_ball:

Wishing you a day filled with:
• Joy :smile:
• Laughter :joy:
• _Way too much_ cake :cake:
• Zero work emails :no_bell:

Any special celebration plans for your big day? :sparkles:

:point_down: Drop your birthday wishes below! :point_down:`,
	`:rotating_light: ATTENTION {broadcast} :rotating_light:

IT'S {name}'s BIRTHDAY!!! :birthday:

:star2: :star2: :star2: :star2: :star2:

Time to celebrate *YOU* and all the awesome you bring to our team! :muscle:

• Your jokes :laughing:
• Your hard work :computer:
• Your brilliant ideas :bulb:
• Just being YOU :heart:

Hope your day is as amazing as you are! :star:

So... how are you planning to celebrate? :thinking_face:`,
	`:alarm_clock: *Birthday Alert* :alarm_clock:

{broadcast} Everyone drop what you're doing because...

{name} is having a BIRTHDAY today! :birthday:

:cake: :gift: :balloon: :confetti_ball: :cake: :gift: :balloon:

Wishing you:
• Mountains of cake :mountain:
• Oceans of presents :ocean:
• Absolutely *zero* work emails! :no_bell:

What's on the birthday agenda today? :calendar:

:point_right: Reply with your best birthday GIF! :point_left:`,
	`Whoop whoop! :tada:

:loudspeaker: {broadcast} Announcement! :loudspeaker:

It's {name}'s special day! :birthday:

:sparkles: :sparkles: :sparkles: :sparkles: :sparkles:

May your birthday be filled with:
• Cake that's *just right* :cake:
• Presents that don't need returning :gift:
• Birthday wishes that actually come true! :sparkles:

How are you celebrating this year? :cake:

:clap: :clap: :clap: :clap: :clap:`,
	`:rotating_light: SPECIAL BIRTHDAY ANNOUNCEMENT :rotating_light:

{broadcast} HEY EVERYONE!

:arrow_down: :arrow_down: :arrow_down:
It's {name}'s birthday!
:arrow_up: :arrow_up: :arrow_up:

:birthday: :confetti_ball: :birthday: :confetti_ball:

Time to shower them with:
• ~Work assignments~ BIRTHDAY WISHES instead! :grin:
• Your most ridiculous emojis :stuck_out_tongue_closed_eyes:
• Virtual high-fives :raised_hands:

Hope your special day is absolutely *fantastic*! :star2:

Any exciting birthday plans to share? :eyes:`,
}

// renderFallback fills template i of the pool. The age line is only added
// when the age is known.
func renderFallback(i int, mention, broadcast string, age int) string {
	text := strings.NewReplacer("{name}", mention, "{broadcast}", broadcast).Replace(fallbackTemplates[i])
	if age > 0 {
		text += fmt.Sprintf("\n\n:birthday: %d trips around the sun and counting! :sparkles:", age)
	}
	return text
}

// safeEmojis are standard Slack emojis that exist in every workspace.
var safeEmojis = []string{
	":tada:", ":birthday:", ":cake:", ":balloon:", ":gift:", ":confetti_ball:", ":sparkles:",
	":star:", ":star2:", ":dizzy:", ":heart:", ":hearts:", ":champagne:", ":clap:",
	":raised_hands:", ":thumbsup:", ":muscle:", ":crown:", ":trophy:", ":medal:",
	":first_place_medal:", ":mega:", ":loudspeaker:", ":partying_face:", ":smile:",
	":grinning:", ":joy:", ":sunglasses:", ":rainbow:", ":fire:", ":rocket:", ":cookie:",
	":doughnut:", ":ice_cream:", ":pizza:", ":gem:", ":sunny:", ":four_leaf_clover:",
}

const emojiSampleSize = 20

// sampleEmojis draws n distinct emojis using pick as the random source.
func sampleEmojis(n int, pick func(int) int) []string {
	pool := make([]string, len(safeEmojis))
	copy(pool, safeEmojis)
	if n > len(pool) {
		n = len(pool)
	}
	for i := 0; i < n; i++ {
		j := i + pick(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
