package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Request is the normalized reply-generation request.
type Request struct {
	CallSID   string `json:"call_sid"`
	InputText string `json:"input_text"`
	History   []Turn `json:"history,omitempty"`
}

// Turn is one prior exchange carried as prompt context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response is the generated reply.
type Response struct {
	Text string `json:"text"`
}

// Adapter bridges the call loop with a hosted completion API.
type Adapter interface {
	GenerateReply(ctx context.Context, req Request) (Response, error)
}

// Typed failures surfaced by adapters. Callers map these to spoken
// fallback lines rather than propagating them to the caller's ear.
var (
	ErrRateLimited    = errors.New("completion API rate limited")
	ErrAuthentication = errors.New("completion API authentication failed")
	ErrInvalidRequest = errors.New("completion API rejected the request")
)

// Persona describes the assistant's voice personality injected into the
// system prompt.
type Persona struct {
	Name        string
	Tone        string
	Specialties []string
	Language    string
}

// Config controls adapter construction.
type Config struct {
	Mode        string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	MaxHistory  int
	Timeout     time.Duration
	Persona     Persona
}

func NewAdapter(cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewHTTPAdapter(cfg), nil
		}
		return NewMockAdapter(cfg.Persona), nil
	case "http":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("brain API key is required for http mode")
		}
		return NewHTTPAdapter(cfg), nil
	case "mock":
		return NewMockAdapter(cfg.Persona), nil
	default:
		return nil, fmt.Errorf("unsupported brain adapter mode %q", cfg.Mode)
	}
}
