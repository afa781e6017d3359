package speech

import (
	"regexp"
	"strings"
)

var (
	fencedCodePattern   = regexp.MustCompile("(?s)```.*?```")
	inlineCodePattern   = regexp.MustCompile("`[^`]*`")
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+`)
	boldPattern         = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern       = regexp.MustCompile(`\*(.*?)\*`)
	abbrevPattern       = regexp.MustCompile(`\b(etc|vs|i\.e|e\.g)\.`)
)

// FormatForSpeech strips markup noise from generated text so the
// synthesized voice sounds conversational.
func FormatForSpeech(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = fencedCodePattern.ReplaceAllString(text, " ")
	text = inlineCodePattern.ReplaceAllString(text, " ")
	text = markdownLinkPattern.ReplaceAllString(text, "$1")
	text = urlPattern.ReplaceAllString(text, " ")
	text = boldPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")

	// "e.g." reads as letters; dropping the trailing period keeps TTS
	// from treating it as a sentence end.
	text = abbrevPattern.ReplaceAllString(text, "$1")

	text = strings.NewReplacer("#", " ", "_", " ", "~", " ", "|", " ").Replace(text)
	text = whitespaceCollaps.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
