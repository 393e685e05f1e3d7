package app

import "regexp"

type rewrite struct {
	pattern     *regexp.Regexp
	replacement string
}

// slackRewrites turn common Markdown habits of the generator into Slack mrkdwn.
// Order matters: bold before italic, links before tag stripping.
var slackRewrites = []rewrite{
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "*${1}*"},
	{regexp.MustCompile(`__(.*?)__`), "_${1}_"},
	{regexp.MustCompile(`\[(.*?)\]\((.*?)\)`), "<${2}|${1}>"},
	{regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.*?)$`), "*${1}*"},
	// HTML-looking tags only; <@U123>, <!channel> and <url|text> never start with a letter followed by a tag end.
	{regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(?:\s[^<>]*)?/?>`), ""},
	{regexp.MustCompile("(?s)```(.*?)```"), "`${1}`"},
	{regexp.MustCompile(`(?m)^>[ \t]+(.*?)$`), ">>>${1}"},
}

// NormalizeSlackFormatting rewrites generator output so it renders in Slack.
func NormalizeSlackFormatting(text string) string {
	for _, rw := range slackRewrites {
		text = rw.pattern.ReplaceAllString(text, rw.replacement)
	}
	return text
}
