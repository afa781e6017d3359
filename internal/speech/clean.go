// Package speech holds stateless helpers for working with telephone
// speech-to-text transcripts and preparing replies for synthesis.
package speech

import (
	"regexp"
	"strings"
)

var (
	fillerPattern     = regexp.MustCompile(`\b(um|uh|ah|er|hmm)\b`)
	punctuationStrip  = regexp.MustCompile(`[^\w\s]`)
	whitespaceCollaps = regexp.MustCompile(`\s+`)
)

// Urgency grades how pressing the caller's request sounds.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyModerate Urgency = "moderate"
	UrgencyHigh     Urgency = "high"
)

// Result carries a processed transcript and its derived signals.
type Result struct {
	Original   string   `json:"original_text"`
	Cleaned    string   `json:"cleaned_text"`
	Confidence float64  `json:"confidence"`
	WordCount  int      `json:"word_count"`
	IsQuestion bool     `json:"is_question"`
	Patterns   []string `json:"patterns"`
	Urgency    Urgency  `json:"urgency"`
	Valid      bool     `json:"is_valid"`
}

// ProcessTranscript normalizes a raw recognition result and extracts
// the signals the call loop branches on.
func ProcessTranscript(raw string, confidence float64) Result {
	cleaned := CleanTranscript(raw)
	return Result{
		Original:   raw,
		Cleaned:    cleaned,
		Confidence: confidence,
		WordCount:  countWords(cleaned),
		IsQuestion: isQuestion(raw),
		Patterns:   DetectPatterns(cleaned),
		Urgency:    DetectUrgency(cleaned),
		Valid:      cleaned != "",
	}
}

// CleanTranscript lowercases, removes filler words and punctuation, and
// collapses whitespace.
func CleanTranscript(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = fillerPattern.ReplaceAllString(text, "")
	text = punctuationStrip.ReplaceAllString(text, "")
	text = whitespaceCollaps.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func countWords(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Fields(text))
}

var questionWords = []string{"what", "when", "where", "who", "why", "how", "which"}

func isQuestion(text string) bool {
	if strings.HasSuffix(strings.TrimSpace(text), "?") {
		return true
	}
	lower := strings.ToLower(text)
	for _, w := range questionWords {
		if containsWord(lower, w) {
			return true
		}
	}
	return false
}

// DetectUrgency grades the transcript by urgency vocabulary.
func DetectUrgency(text string) Urgency {
	lower := strings.ToLower(text)
	for _, w := range []string{"urgent", "asap", "immediately", "right now", "emergency", "critical"} {
		if strings.Contains(lower, w) {
			return UrgencyHigh
		}
	}
	for _, w := range []string{"soon", "quickly", "fast", "hurry"} {
		if strings.Contains(lower, w) {
			return UrgencyModerate
		}
	}
	return UrgencyLow
}

// ConfidenceAcceptable reports whether a recognition confidence clears
// the configured threshold.
func ConfidenceAcceptable(confidence, threshold float64) bool {
	return confidence >= threshold
}

// FallbackPrompt picks a re-prompt line scaled to how badly the
// recognizer did.
func FallbackPrompt(confidence float64) string {
	switch {
	case confidence < 0.3:
		return "I'm having trouble understanding. Could you please speak more clearly?"
	case confidence < 0.6:
		return "I didn't catch that completely. Could you please repeat?"
	default:
		return "I'm sorry, I didn't understand. Could you please rephrase that?"
	}
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
