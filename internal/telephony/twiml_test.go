package telephony

import (
	"strings"
	"testing"
)

func TestVoiceResponseRender(t *testing.T) {
	r := NewVoiceResponse("en-US-Neural2-F", "en-US").
		Say("Hello there.").
		Gather(GatherOptions{TimeoutSeconds: 10, Action: "/webhook", Prompt: "I'm listening."})

	out, err := r.Render()
	if err != nil {
		t.Fatalf("Render error = %v", err)
	}

	for _, want := range []string{
		"<?xml",
		"<Response>",
		`<Say voice="en-US-Neural2-F" language="en-US">Hello there.</Say>`,
		`input="speech"`,
		`timeout="10"`,
		`speechTimeout="auto"`,
		`action="/webhook"`,
		`method="POST"`,
		">I&#39;m listening.</Say>",
		"</Response>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered response missing %q:\n%s", want, out)
		}
	}
}

func TestVoiceResponseHangup(t *testing.T) {
	out, err := NewVoiceResponse("", "").Say("Goodbye.").Hangup().Render()
	if err != nil {
		t.Fatalf("Render error = %v", err)
	}
	if !strings.Contains(out, "<Hangup></Hangup>") {
		t.Fatalf("missing hangup verb:\n%s", out)
	}
	if strings.Contains(out, "voice=") {
		t.Fatalf("empty voice attribute should be omitted:\n%s", out)
	}
}

func TestVoiceResponseEscapesText(t *testing.T) {
	out, err := NewVoiceResponse("", "").Say(`Press "1" & say <yes>`).Render()
	if err != nil {
		t.Fatalf("Render error = %v", err)
	}
	if strings.Contains(out, "<yes>") {
		t.Fatalf("text content not escaped:\n%s", out)
	}
	if !strings.Contains(out, "&amp;") {
		t.Fatalf("ampersand not escaped:\n%s", out)
	}
}
