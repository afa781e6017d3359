package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the callbot service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	MaxConversations    int
	CleanupInterval     time.Duration
	ConversationMaxAge  time.Duration
	ConversationHistory int

	BotName     string
	BotGreeting string
	BotGoodbye  string

	VoiceName           string
	VoiceLanguage       string
	GatherTimeout       time.Duration
	ConfidenceThreshold float64

	BrainMode        string
	BrainAPIKey      string
	BrainBaseURL     string
	BrainModel       string
	BrainMaxTokens   int
	BrainTemperature float64
	BrainTimeout     time.Duration

	CallsPerMinute int
	CallsPerHour   int
	CallsPerDay    int

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "callbot"),
		ShutdownTimeout:  15 * time.Second,

		MaxConversations:    1000,
		CleanupInterval:     time.Hour,
		ConversationMaxAge:  24 * time.Hour,
		ConversationHistory: 10,

		BotName:     envOrDefault("BOT_NAME", "Alex"),
		BotGreeting: envOrDefault("BOT_GREETING", "Hello! I'm Alex, your assistant. How can I help you today?"),
		BotGoodbye:  envOrDefault("BOT_GOODBYE", "Thank you for calling. Have a great day!"),

		VoiceName:           envOrDefault("VOICE_NAME", "en-US-Neural2-F"),
		VoiceLanguage:       envOrDefault("VOICE_LANGUAGE", "en-US"),
		GatherTimeout:       10 * time.Second,
		ConfidenceThreshold: 0.5,

		BrainMode:        envOrDefault("BRAIN_MODE", "auto"),
		BrainAPIKey:      trimmedEnv("BRAIN_API_KEY"),
		BrainBaseURL:     envOrDefault("BRAIN_BASE_URL", "https://api.openai.com/v1"),
		BrainModel:       envOrDefault("BRAIN_MODEL", "gpt-4o-mini"),
		BrainMaxTokens:   150,
		BrainTemperature: 0.7,
		BrainTimeout:     30 * time.Second,

		CallsPerMinute: 10,
		CallsPerHour:   100,
		CallsPerDay:    1000,

		DatabaseURL: trimmedEnv("DATABASE_URL"),
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxConversations, err = intFromEnv("MAX_CONVERSATIONS", cfg.MaxConversations)
	if err != nil {
		return Config{}, err
	}
	cfg.CleanupInterval, err = durationFromEnv("CLEANUP_INTERVAL", cfg.CleanupInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.ConversationMaxAge, err = durationFromEnv("CONVERSATION_MAX_AGE", cfg.ConversationMaxAge)
	if err != nil {
		return Config{}, err
	}
	cfg.ConversationHistory, err = intFromEnv("CONVERSATION_HISTORY", cfg.ConversationHistory)
	if err != nil {
		return Config{}, err
	}
	cfg.GatherTimeout, err = durationFromEnv("GATHER_TIMEOUT", cfg.GatherTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ConfidenceThreshold, err = floatFromEnv("CONFIDENCE_THRESHOLD", cfg.ConfidenceThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.BrainMaxTokens, err = intFromEnv("BRAIN_MAX_TOKENS", cfg.BrainMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.BrainTemperature, err = floatFromEnv("BRAIN_TEMPERATURE", cfg.BrainTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.BrainTimeout, err = durationFromEnv("BRAIN_TIMEOUT", cfg.BrainTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CallsPerMinute, err = intFromEnv("RATE_CALLS_PER_MINUTE", cfg.CallsPerMinute)
	if err != nil {
		return Config{}, err
	}
	cfg.CallsPerHour, err = intFromEnv("RATE_CALLS_PER_HOUR", cfg.CallsPerHour)
	if err != nil {
		return Config{}, err
	}
	cfg.CallsPerDay, err = intFromEnv("RATE_CALLS_PER_DAY", cfg.CallsPerDay)
	if err != nil {
		return Config{}, err
	}

	if cfg.MaxConversations <= 0 {
		return Config{}, fmt.Errorf("MAX_CONVERSATIONS must be positive")
	}
	if cfg.CleanupInterval <= 0 {
		return Config{}, fmt.Errorf("CLEANUP_INTERVAL must be positive")
	}
	if cfg.ConversationMaxAge <= 0 {
		return Config{}, fmt.Errorf("CONVERSATION_MAX_AGE must be positive")
	}
	if cfg.ConversationHistory <= 0 {
		return Config{}, fmt.Errorf("CONVERSATION_HISTORY must be positive")
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return Config{}, fmt.Errorf("CONFIDENCE_THRESHOLD must be between 0 and 1")
	}
	if cfg.BrainMaxTokens <= 0 {
		return Config{}, fmt.Errorf("BRAIN_MAX_TOKENS must be positive")
	}
	if cfg.CallsPerMinute <= 0 || cfg.CallsPerHour <= 0 || cfg.CallsPerDay <= 0 {
		return Config{}, fmt.Errorf("rate limits must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}
