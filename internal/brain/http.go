package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxAttempts = 3

// HTTPAdapter generates replies through an OpenAI-compatible
// chat-completions endpoint.
type HTTPAdapter struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	maxHistory  int
	persona     Persona
	client      *http.Client
}

func NewHTTPAdapter(cfg Config) *HTTPAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 150
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 10
	}
	return &HTTPAdapter{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		maxHistory:  maxHistory,
		persona:     cfg.Persona,
		client:      &http.Client{Timeout: timeout},
	}
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *HTTPAdapter) GenerateReply(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(completionRequest{
		Model:       a.model,
		Messages:    buildMessages(a.persona, req, a.maxHistory),
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(backoff(attempt, 200*time.Millisecond, 2*time.Second)):
			}
		}

		res, err := a.send(ctx, payload)
		if err != nil {
			if !isRetryable(err) {
				return Response{}, err
			}
			lastErr = err
			continue
		}
		return res, nil
	}
	return Response{}, lastErr
}

func (a *HTTPAdapter) send(ctx context.Context, payload []byte) (Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	res, err := a.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return Response{}, classifyStatus(res.StatusCode, string(body))
	}

	var parsed completionResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Response{}, fmt.Errorf("completion response contained no choices")
	}
	return Response{Text: strings.TrimSpace(parsed.Choices[0].Message.Content)}, nil
}

func classifyStatus(code int, body string) error {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrAuthentication
	case code >= 400 && code < 500:
		return fmt.Errorf("%w: status %d: %s", ErrInvalidRequest, code, body)
	default:
		return fmt.Errorf("completion API status %d: %s", code, body)
	}
}
