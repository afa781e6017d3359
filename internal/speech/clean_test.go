package speech

import (
	"reflect"
	"testing"
)

func TestCleanTranscript(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "removes fillers and punctuation",
			in:   "Um, hello! I uh need some help?",
			want: "hello i need some help",
		},
		{
			name: "collapses whitespace",
			in:   "  what   is \t my   balance  ",
			want: "what is my balance",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "only fillers",
			in:   "um uh hmm",
			want: "",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanTranscript(tc.in); got != tc.want {
				t.Fatalf("CleanTranscript(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestProcessTranscript(t *testing.T) {
	res := ProcessTranscript("Um, what is my account balance?", 0.85)
	if !res.Valid {
		t.Fatalf("result should be valid")
	}
	if !res.IsQuestion {
		t.Fatalf("should be detected as a question")
	}
	if res.WordCount != 5 {
		t.Fatalf("WordCount = %d, want 5 (%q)", res.WordCount, res.Cleaned)
	}
	if res.Confidence != 0.85 {
		t.Fatalf("Confidence = %v", res.Confidence)
	}

	empty := ProcessTranscript("   ", 0.9)
	if empty.Valid {
		t.Fatalf("blank transcript should be invalid")
	}
}

func TestDetectUrgency(t *testing.T) {
	cases := []struct {
		in   string
		want Urgency
	}{
		{"this is an emergency please", UrgencyHigh},
		{"i need this quickly", UrgencyModerate},
		{"just checking my order", UrgencyLow},
	}
	for _, tc := range cases {
		if got := DetectUrgency(tc.in); got != tc.want {
			t.Fatalf("DetectUrgency(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFallbackPromptTiers(t *testing.T) {
	low := FallbackPrompt(0.1)
	mid := FallbackPrompt(0.5)
	high := FallbackPrompt(0.9)
	if low == mid || mid == high || low == high {
		t.Fatalf("fallback prompts should differ per tier: %q / %q / %q", low, mid, high)
	}
	if !ConfidenceAcceptable(0.6, 0.5) || ConfidenceAcceptable(0.4, 0.5) {
		t.Fatalf("confidence gating is wrong")
	}
}

func TestDetectPatterns(t *testing.T) {
	got := DetectPatterns("hello i have a problem and need help")
	want := []string{"greeting", "complaint", "request"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DetectPatterns = %v, want %v", got, want)
	}

	if got := PrimaryIntent("hello there"); got != "greeting" {
		t.Fatalf("PrimaryIntent = %q, want greeting", got)
	}
	if got := PrimaryIntent("xylophone"); got != "general" {
		t.Fatalf("PrimaryIntent fallback = %q, want general", got)
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	pos := AnalyzeSentiment("this is great, I love it")
	if pos.Label != "positive" || pos.PositiveScore < 2 {
		t.Fatalf("positive analysis = %+v", pos)
	}

	neg := AnalyzeSentiment("terrible, I hate this broken thing")
	if neg.Label != "negative" {
		t.Fatalf("negative analysis = %+v", neg)
	}

	neutral := AnalyzeSentiment("my order number is twelve")
	if neutral.Label != "neutral" || neutral.Confidence != 0.5 {
		t.Fatalf("neutral analysis = %+v", neutral)
	}
}

func TestFormatForSpeech(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips markdown emphasis",
			in:   "That is **very** easy, *trust* me.",
			want: "That is very easy, trust me.",
		},
		{
			name: "keeps link label drops url",
			in:   "See [our site](https://example.com) or https://example.com/faq today.",
			want: "See our site or today.",
		},
		{
			name: "removes code",
			in:   "Run `reset` now. ```\nsudo reboot\n``` Done.",
			want: "Run now. Done.",
		},
		{
			name: "abbreviations lose trailing period",
			in:   "Bring documents, receipts, etc. tomorrow.",
			want: "Bring documents, receipts, etc tomorrow.",
		},
		{
			name: "empty",
			in:   "   ",
			want: "",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatForSpeech(tc.in); got != tc.want {
				t.Fatalf("FormatForSpeech(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
