package brain

import (
	"fmt"
	"strings"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildMessages assembles the completion prompt: persona system message,
// then the most recent maxHistory turns, then the current input.
func buildMessages(persona Persona, req Request, maxHistory int) []chatMessage {
	messages := []chatMessage{{Role: "system", Content: systemPrompt(persona)}}

	history := req.History
	if maxHistory > 0 && len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	for _, turn := range history {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		role := "assistant"
		if turn.Role == "user" {
			role = "user"
		}
		messages = append(messages, chatMessage{Role: role, Content: turn.Content})
	}

	return append(messages, chatMessage{Role: "user", Content: req.InputText})
}

func systemPrompt(p Persona) string {
	name := p.Name
	if name == "" {
		name = "Alex"
	}
	tone := p.Tone
	if tone == "" {
		tone = "friendly and professional"
	}
	specialties := strings.Join(p.Specialties, ", ")
	if specialties == "" {
		specialties = "customer service, general knowledge, small talk"
	}
	language := p.Language
	if language == "" {
		language = "English"
	}

	return fmt.Sprintf(`You are %s, an assistant on a live phone call.

- Tone: %s
- Specialties: %s
- Language: %s

Guidelines:
1. Keep responses concise and natural for voice conversation
2. Be helpful, friendly, and professional
3. If you don't understand something, ask for clarification
4. For customer service issues, gather necessary information
5. Avoid technical jargon unless specifically asked

Remember: you are speaking over the phone, so keep responses conversational and not too long.`,
		name, tone, specialties, language)
}
