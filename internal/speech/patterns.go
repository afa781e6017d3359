package speech

import (
	"regexp"
	"strings"
)

type namedPattern struct {
	name string
	re   *regexp.Regexp
}

// Ordered so detection output is deterministic; the first hit doubles
// as the primary intent.
var intentPatterns = []namedPattern{
	{"greeting", regexp.MustCompile(`\b(hello|hi|hey|good morning|good afternoon|good evening)\b`)},
	{"goodbye", regexp.MustCompile(`\b(goodbye|bye|see you|talk to you later|have a good day)\b`)},
	{"question", regexp.MustCompile(`\b(what|when|where|who|why|how|can you|could you|would you)\b`)},
	{"complaint", regexp.MustCompile(`\b(problem|issue|wrong|broken|not working|complaint)\b`)},
	{"request", regexp.MustCompile(`\b(help|assist|support|need|want|please)\b`)},
	{"confirmation", regexp.MustCompile(`\b(yes|yeah|sure|okay|ok|correct|right)\b`)},
	{"negation", regexp.MustCompile(`\b(no|nope|not|never|incorrect)\b`)},
	{"thanks", regexp.MustCompile(`\b(thank you|thanks|appreciate it|grateful)\b`)},
	{"apology", regexp.MustCompile(`\b(sorry|apologize|excuse me|pardon)\b`)},
	{"urgency", regexp.MustCompile(`\b(urgent|asap|immediately|right now|emergency)\b`)},
}

// DetectPatterns returns the names of every intent pattern matching the
// text, in fixed priority order.
func DetectPatterns(text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, p := range intentPatterns {
		if p.re.MatchString(lower) {
			matched = append(matched, p.name)
		}
	}
	return matched
}

// PrimaryIntent returns the highest-priority matching intent, or
// "general" when nothing matches.
func PrimaryIntent(text string) string {
	if m := DetectPatterns(text); len(m) > 0 {
		return m[0]
	}
	return "general"
}

// Sentiment is a keyword-count sentiment estimate.
type Sentiment struct {
	Label         string  `json:"sentiment"`
	Confidence    float64 `json:"confidence"`
	PositiveScore int     `json:"positive_score"`
	NegativeScore int     `json:"negative_score"`
}

var positiveWords = []string{
	"good", "great", "excellent", "amazing", "wonderful", "fantastic",
	"happy", "pleased", "satisfied", "love", "like", "awesome", "perfect",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "horrible", "disappointed", "angry",
	"upset", "frustrated", "hate", "dislike", "worst", "broken", "problem",
}

// AnalyzeSentiment scores the text by positive and negative keyword
// counts.
func AnalyzeSentiment(text string) Sentiment {
	lower := strings.ToLower(text)
	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}

	switch {
	case pos > neg:
		return Sentiment{
			Label:         "positive",
			Confidence:    minFloat(0.9, 0.5+float64(pos-neg)*0.1),
			PositiveScore: pos,
			NegativeScore: neg,
		}
	case neg > pos:
		return Sentiment{
			Label:         "negative",
			Confidence:    minFloat(0.9, 0.5+float64(neg-pos)*0.1),
			PositiveScore: pos,
			NegativeScore: neg,
		}
	default:
		return Sentiment{Label: "neutral", Confidence: 0.5, PositiveScore: pos, NegativeScore: neg}
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
