package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/voxline/callbot/internal/brain"
	"github.com/voxline/callbot/internal/config"
	"github.com/voxline/callbot/internal/conversation"
	"github.com/voxline/callbot/internal/observability"
	"github.com/voxline/callbot/internal/ratelimit"
)

var metricsSeq atomic.Int64

func testServer(adapter brain.Adapter, sink *captureSink) *Server {
	cfg := config.Config{
		BotName:             "Alex",
		BotGreeting:         "Hello! I'm Alex, your assistant. How can I help you today?",
		BotGoodbye:          "Thank you for calling. Have a great day!",
		VoiceName:           "en-US-Neural2-F",
		VoiceLanguage:       "en-US",
		GatherTimeout:       10 * time.Second,
		ConfidenceThreshold: 0.5,
		ConversationHistory: 10,
		BrainTimeout:        5 * time.Second,
	}
	if adapter == nil {
		adapter = brain.NewMockAdapter(brain.Persona{Name: "Alex"})
	}
	if sink == nil {
		sink = &captureSink{}
	}
	store := conversation.NewStore(conversation.Options{})
	limiter := ratelimit.NewLimiter(ratelimit.Limits{PerMinute: 100, PerHour: 1000, PerDay: 10000})
	metrics := observability.NewMetrics(fmt.Sprintf("test_httpapi_%d", metricsSeq.Add(1)))
	return New(cfg, store, adapter, limiter, sink, metrics)
}

type captureSink struct {
	mu    sync.Mutex
	snaps []conversation.Snapshot
}

func (c *captureSink) SaveConversation(_ context.Context, snap conversation.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps = append(c.snaps, snap)
	return nil
}

func (c *captureSink) Close() error { return nil }

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snaps)
}

type stubAdapter struct {
	reply string
	err   error
}

func (a stubAdapter) GenerateReply(context.Context, brain.Request) (brain.Response, error) {
	if a.err != nil {
		return brain.Response{}, a.err
	}
	return brain.Response{Text: a.reply}, nil
}

func postWebhook(t *testing.T, ts *httptest.Server, form url.Values) (int, string) {
	t.Helper()
	res, err := http.PostForm(ts.URL+"/webhook", form)
	if err != nil {
		t.Fatalf("webhook request error = %v", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res.StatusCode, string(body)
}

func TestWebhookGreetsNewCall(t *testing.T) {
	srv := testServer(nil, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	status, body := postWebhook(t, ts, url.Values{
		"CallSid": {"CA100"},
		"From":    {"+15550001111"},
		"To":      {"+15550002222"},
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if !strings.Contains(body, "Hello! I&#39;m Alex") {
		t.Fatalf("greeting missing from response:\n%s", body)
	}
	if !strings.Contains(body, "<Gather") {
		t.Fatalf("response should keep listening:\n%s", body)
	}
	if srv.store.Len() != 1 {
		t.Fatalf("store should hold the new conversation")
	}
}

func TestWebhookTurnAppendsBothSides(t *testing.T) {
	srv := testServer(stubAdapter{reply: "Your balance is forty dollars."}, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	postWebhook(t, ts, url.Values{"CallSid": {"CA200"}, "From": {"+15550001111"}})
	status, body := postWebhook(t, ts, url.Values{
		"CallSid":      {"CA200"},
		"From":         {"+15550001111"},
		"SpeechResult": {"What is my balance?"},
		"Confidence":   {"0.92"},
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if !strings.Contains(body, "Your balance is forty dollars.") {
		t.Fatalf("assistant reply missing:\n%s", body)
	}

	stats, ok := srv.store.Stats("CA200")
	if !ok {
		t.Fatalf("conversation missing after turn")
	}
	if stats.TotalMessages != 2 || stats.UserMessages != 1 || stats.AssistantMessages != 1 {
		t.Fatalf("message counts = %d/%d/%d, want 2/1/1",
			stats.TotalMessages, stats.UserMessages, stats.AssistantMessages)
	}

	history := srv.store.History("CA200", 0)
	if history[0].Content != "What is my balance?" {
		t.Fatalf("user message = %q", history[0].Content)
	}
	if _, ok := history[0].Metadata["intent"].StringValue(); !ok {
		t.Fatalf("user message should carry intent metadata")
	}
}

func TestWebhookLowConfidenceReprompts(t *testing.T) {
	srv := testServer(nil, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	postWebhook(t, ts, url.Values{"CallSid": {"CA300"}})
	_, body := postWebhook(t, ts, url.Values{
		"CallSid":      {"CA300"},
		"SpeechResult": {"mumble mumble"},
		"Confidence":   {"0.2"},
	})
	if !strings.Contains(body, "speak more clearly") {
		t.Fatalf("low-confidence fallback missing:\n%s", body)
	}

	stats, _ := srv.store.Stats("CA300")
	if stats.TotalMessages != 0 {
		t.Fatalf("rejected speech must not be recorded, got %d messages", stats.TotalMessages)
	}
}

func TestWebhookBrainFailureStaysOnTheLine(t *testing.T) {
	srv := testServer(stubAdapter{err: brain.ErrRateLimited}, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	postWebhook(t, ts, url.Values{"CallSid": {"CA400"}})
	status, body := postWebhook(t, ts, url.Values{
		"CallSid":      {"CA400"},
		"SpeechResult": {"hello there"},
		"Confidence":   {"0.9"},
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200 even on generation failure", status)
	}
	if !strings.Contains(body, "too many requests") {
		t.Fatalf("spoken fallback missing:\n%s", body)
	}
	if !strings.Contains(body, "<Gather") {
		t.Fatalf("call should continue after a failed turn:\n%s", body)
	}

	stats, _ := srv.store.Stats("CA400")
	if stats.AssistantMessages != 1 {
		t.Fatalf("fallback line should be recorded as the assistant turn")
	}
}

func TestWebhookCompletedEndsAndArchives(t *testing.T) {
	sink := &captureSink{}
	srv := testServer(stubAdapter{reply: "ok"}, sink)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	postWebhook(t, ts, url.Values{"CallSid": {"CA500"}, "From": {"+15550001111"}})
	status, _ := postWebhook(t, ts, url.Values{
		"CallSid":    {"CA500"},
		"CallStatus": {"completed"},
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	stats, ok := srv.store.Stats("CA500")
	if !ok || stats.IsActive {
		t.Fatalf("conversation should be ended, stats=%+v ok=%v", stats, ok)
	}
	if sink.count() != 1 {
		t.Fatalf("archived snapshots = %d, want 1", sink.count())
	}

	// A second completed callback is a no-op, not a second archive.
	postWebhook(t, ts, url.Values{"CallSid": {"CA500"}, "CallStatus": {"completed"}})
	if sink.count() != 1 {
		t.Fatalf("duplicate completion should not re-archive")
	}
}

func TestWebhookFarewellEndsCall(t *testing.T) {
	sink := &captureSink{}
	srv := testServer(nil, sink)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	postWebhook(t, ts, url.Values{"CallSid": {"CA450"}})
	_, body := postWebhook(t, ts, url.Values{
		"CallSid":      {"CA450"},
		"SpeechResult": {"okay, goodbye now"},
		"Confidence":   {"0.9"},
	})
	if !strings.Contains(body, "Thank you for calling") || !strings.Contains(body, "<Hangup") {
		t.Fatalf("farewell should say goodbye and hang up:\n%s", body)
	}

	stats, _ := srv.store.Stats("CA450")
	if stats.IsActive {
		t.Fatalf("farewell should end the conversation")
	}
	if stats.TotalMessages != 2 {
		t.Fatalf("farewell turn should be recorded, got %d messages", stats.TotalMessages)
	}
	if sink.count() != 1 {
		t.Fatalf("farewell should archive the conversation")
	}
}

func TestWebhookMissingCallSID(t *testing.T) {
	srv := testServer(nil, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	status, _ := postWebhook(t, ts, url.Values{"SpeechResult": {"hello"}})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing CallSid", status)
	}
}

func TestWebhookRateLimited(t *testing.T) {
	srv := testServer(nil, nil)
	srv.limiter = ratelimit.NewLimiter(ratelimit.Limits{PerMinute: 1, PerHour: 100, PerDay: 1000})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	postWebhook(t, ts, url.Values{"CallSid": {"CA600"}, "From": {"+15550001111"}})
	_, body := postWebhook(t, ts, url.Values{"CallSid": {"CA601"}, "From": {"+15550001111"}})
	if !strings.Contains(body, "too many requests") || !strings.Contains(body, "<Hangup") {
		t.Fatalf("rate-limited response should apologize and hang up:\n%s", body)
	}

	if _, ok := srv.store.Stats("CA601"); ok {
		t.Fatalf("rate-limited call must not create a conversation")
	}
}

func TestWebhookNoSpeechOnExistingCall(t *testing.T) {
	srv := testServer(nil, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	postWebhook(t, ts, url.Values{"CallSid": {"CA700"}})
	postWebhook(t, ts, url.Values{
		"CallSid":      {"CA700"},
		"SpeechResult": {"hello"},
		"Confidence":   {"0.9"},
	})
	_, body := postWebhook(t, ts, url.Values{"CallSid": {"CA700"}, "SpeechResult": {""}})
	if !strings.Contains(body, "didn&#39;t catch that") {
		t.Fatalf("re-prompt missing:\n%s", body)
	}
}

func TestWebhookConcurrentDeliveriesSameCall(t *testing.T) {
	srv := testServer(stubAdapter{reply: "ok"}, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	const workers = 4
	const turns = 10

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < turns; i++ {
				res, err := http.PostForm(ts.URL+"/webhook", url.Values{
					"CallSid":      {"CA900"},
					"SpeechResult": {"tell me more"},
					"Confidence":   {"0.9"},
				})
				if err != nil {
					t.Errorf("webhook request error = %v", err)
					return
				}
				_, _ = io.Copy(io.Discard, res.Body)
				res.Body.Close()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < workers*turns; i++ {
			srv.store.AppendMessage("CA900", conversation.RoleUser, "interleaved", nil)
		}
	}()
	wg.Wait()

	stats, ok := srv.store.Stats("CA900")
	if !ok {
		t.Fatalf("conversation missing after concurrent deliveries")
	}
	if stats.TotalMessages != stats.UserMessages+stats.AssistantMessages {
		t.Fatalf("inconsistent counts: %d != %d + %d",
			stats.TotalMessages, stats.UserMessages, stats.AssistantMessages)
	}
	if count, _ := stats.Metadata["message_count"].NumberValue(); int(count) != stats.TotalMessages {
		t.Fatalf("message_count metadata = %v, messages = %d", count, stats.TotalMessages)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate(strings.Repeat("a", 20), 10); got != strings.Repeat("a", 7)+"..." {
		t.Fatalf("truncate = %q", got)
	}
	got := truncate(strings.Repeat("é", 20), 10)
	if got != strings.Repeat("é", 7)+"..." {
		t.Fatalf("truncate = %q", got)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if err := errors.New("x"); brainErrorClass(err) != "other" {
		t.Fatalf("unexpected error class for generic error")
	}
}
