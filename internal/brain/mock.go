package brain

import (
	"context"
	"fmt"
	"strings"
)

// MockAdapter produces deterministic local replies when no completion
// API is configured.
type MockAdapter struct {
	persona Persona
}

func NewMockAdapter(persona Persona) *MockAdapter {
	return &MockAdapter{persona: persona}
}

func (a *MockAdapter) GenerateReply(ctx context.Context, req Request) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	default:
	}

	name := a.persona.Name
	if name == "" {
		name = "Alex"
	}

	input := strings.TrimSpace(req.InputText)
	if input == "" {
		return Response{Text: fmt.Sprintf("This is %s. I'm listening.", name)}, nil
	}
	if len(req.History) == 0 {
		return Response{Text: fmt.Sprintf("Hi, this is %s. You said: %s", name, input)}, nil
	}
	return Response{Text: fmt.Sprintf("I heard you: %s", input)}, nil
}
