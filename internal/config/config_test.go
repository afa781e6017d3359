package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MaxConversations != 1000 {
		t.Fatalf("MaxConversations = %d, want 1000", cfg.MaxConversations)
	}
	if cfg.CleanupInterval != time.Hour {
		t.Fatalf("CleanupInterval = %v, want 1h", cfg.CleanupInterval)
	}
	if cfg.ConversationMaxAge != 24*time.Hour {
		t.Fatalf("ConversationMaxAge = %v, want 24h", cfg.ConversationMaxAge)
	}
	if cfg.BrainMode != "auto" {
		t.Fatalf("BrainMode = %q, want %q", cfg.BrainMode, "auto")
	}
	if cfg.ConversationHistory != 10 {
		t.Fatalf("ConversationHistory = %d, want 10", cfg.ConversationHistory)
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("MAX_CONVERSATIONS", "50")
	t.Setenv("CLEANUP_INTERVAL", "5m")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.MaxConversations != 50 {
		t.Fatalf("MaxConversations = %d, want 50", cfg.MaxConversations)
	}
	if cfg.CleanupInterval != 5*time.Minute {
		t.Fatalf("CleanupInterval = %v, want 5m", cfg.CleanupInterval)
	}
	if cfg.ConfidenceThreshold != 0.7 {
		t.Fatalf("ConfidenceThreshold = %v, want 0.7", cfg.ConfidenceThreshold)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-positive max conversations", key: "MAX_CONVERSATIONS", value: "0"},
		{name: "negative cleanup interval", key: "CLEANUP_INTERVAL", value: "-1h"},
		{name: "unparseable duration", key: "CONVERSATION_MAX_AGE", value: "weekly"},
		{name: "confidence out of range", key: "CONFIDENCE_THRESHOLD", value: "1.5"},
		{name: "non-numeric rate limit", key: "RATE_CALLS_PER_HOUR", value: "many"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() accepted %s=%q", tc.key, tc.value)
			}
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"MAX_CONVERSATIONS",
		"CLEANUP_INTERVAL",
		"CONVERSATION_MAX_AGE",
		"CONVERSATION_HISTORY",
		"BOT_NAME",
		"BOT_GREETING",
		"BOT_GOODBYE",
		"VOICE_NAME",
		"VOICE_LANGUAGE",
		"GATHER_TIMEOUT",
		"CONFIDENCE_THRESHOLD",
		"BRAIN_MODE",
		"BRAIN_API_KEY",
		"BRAIN_BASE_URL",
		"BRAIN_MODEL",
		"BRAIN_MAX_TOKENS",
		"BRAIN_TEMPERATURE",
		"BRAIN_TIMEOUT",
		"RATE_CALLS_PER_MINUTE",
		"RATE_CALLS_PER_HOUR",
		"RATE_CALLS_PER_DAY",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
