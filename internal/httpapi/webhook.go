package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/voxline/callbot/internal/brain"
	"github.com/voxline/callbot/internal/conversation"
	"github.com/voxline/callbot/internal/speech"
	"github.com/voxline/callbot/internal/telephony"
)

// handleWebhook drives one turn of a call: transcribed caller speech in,
// voice markup out. Failures downstream of parsing are absorbed into an
// apology response so a broken turn never drops the call.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.metrics.WebhookRequests.WithLabelValues("bad_request").Inc()
		respondError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}

	callSID := r.PostFormValue("CallSid")
	if callSID == "" {
		s.metrics.WebhookRequests.WithLabelValues("bad_request").Inc()
		respondError(w, http.StatusBadRequest, "missing_call_sid", "CallSid form field is required")
		return
	}

	from := telephony.SanitizeNumber(r.PostFormValue("From"))
	to := telephony.SanitizeNumber(r.PostFormValue("To"))
	speechText := r.PostFormValue("SpeechResult")
	confidence, _ := strconv.ParseFloat(r.PostFormValue("Confidence"), 64)

	if r.PostFormValue("CallStatus") == "completed" {
		s.finishCall(r.Context(), callSID)
		s.metrics.WebhookRequests.WithLabelValues("completed").Inc()
		s.writeVoice(w, s.newResponse())
		return
	}

	if !s.limiter.Allow(from) {
		s.metrics.WebhookRequests.WithLabelValues("rate_limited").Inc()
		s.writeVoice(w, s.newResponse().
			Say("I'm receiving too many requests right now. Please try again in a moment.").
			Hangup())
		return
	}

	s.store.GetOrCreate(callSID, from, to)
	s.metrics.ActiveConversations.Set(float64(s.store.Len()))

	if s.store.MessageCount(callSID) == 0 && speechText == "" {
		s.metrics.CallEvents.WithLabelValues("started").Inc()
		s.metrics.WebhookRequests.WithLabelValues("greeting").Inc()
		s.hub.Publish(Event{
			Type:      EventCallStarted,
			CallSID:   callSID,
			From:      telephony.MaskNumber(from),
			Timestamp: time.Now().UTC(),
		})
		s.writeVoice(w, s.newResponse().
			Say(s.cfg.BotGreeting).
			Gather(s.gatherOptions("I'm listening.")))
		return
	}

	if speechText == "" {
		s.metrics.WebhookRequests.WithLabelValues("no_speech").Inc()
		s.writeVoice(w, s.newResponse().
			Say("I didn't catch that. Could you please repeat?").
			Gather(s.gatherOptions("")))
		return
	}

	result := speech.ProcessTranscript(speechText, confidence)
	if !result.Valid || !speech.ConfidenceAcceptable(confidence, s.cfg.ConfidenceThreshold) {
		s.metrics.WebhookRequests.WithLabelValues("low_confidence").Inc()
		s.writeVoice(w, s.newResponse().
			Say(speech.FallbackPrompt(confidence)).
			Gather(s.gatherOptions("")))
		return
	}

	if hasIntent(result.Patterns, "goodbye") {
		s.store.AppendMessage(callSID, conversation.RoleUser, speechText, nil)
		s.store.AppendMessage(callSID, conversation.RoleAssistant, s.cfg.BotGoodbye, nil)
		s.finishCall(r.Context(), callSID)
		s.metrics.WebhookRequests.WithLabelValues("farewell").Inc()
		s.writeVoice(w, s.newResponse().
			Say(s.cfg.BotGoodbye).
			Hangup())
		return
	}

	reply := s.generateReply(r.Context(), callSID, speechText, result)

	s.metrics.CallEvents.WithLabelValues("turn").Inc()
	s.metrics.WebhookRequests.WithLabelValues("ok").Inc()
	s.hub.Publish(Event{
		Type:      EventCallTurn,
		CallSID:   callSID,
		From:      telephony.MaskNumber(from),
		Text:      truncate(speechText, 100),
		Timestamp: time.Now().UTC(),
	})

	s.writeVoice(w, s.newResponse().
		Say(reply).
		Gather(s.gatherOptions("What else can I help you with?")))
}

// generateReply runs the completion adapter over the trimmed history
// and records both sides of the turn. Adapter failures degrade to a
// spoken fallback line.
func (s *Server) generateReply(ctx context.Context, callSID, input string, result speech.Result) string {
	history := s.store.History(callSID, s.cfg.ConversationHistory)
	turns := make([]brain.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, brain.Turn{Role: string(m.Role), Content: m.Content})
	}

	s.store.AppendMessage(callSID, conversation.RoleUser, input, map[string]conversation.MetaValue{
		"confidence": conversation.Number(result.Confidence),
		"intent":     conversation.String(speech.PrimaryIntent(result.Cleaned)),
		"sentiment":  conversation.String(speech.AnalyzeSentiment(result.Cleaned).Label),
	})

	brainCtx, cancel := context.WithTimeout(ctx, s.cfg.BrainTimeout)
	defer cancel()

	started := time.Now()
	res, err := s.brain.GenerateReply(brainCtx, brain.Request{
		CallSID:   callSID,
		InputText: input,
		History:   turns,
	})
	s.metrics.ObserveBrainLatency(time.Since(started))

	reply := res.Text
	if err != nil {
		s.metrics.BrainErrors.WithLabelValues(brainErrorClass(err)).Inc()
		log.Printf("reply generation failed for call %s: %v", callSID, err)
		reply = brain.SpokenFallback(err)
	}

	reply = speech.FormatForSpeech(reply)
	if reply == "" {
		reply = brain.SpokenFallback(nil)
	}

	s.store.AppendMessage(callSID, conversation.RoleAssistant, reply, nil)
	return reply
}

// finishCall ends the conversation and hands the snapshot to the
// archive sink. Archival is best-effort.
func (s *Server) finishCall(ctx context.Context, callSID string) {
	if !s.store.End(callSID) {
		return
	}
	s.metrics.CallEvents.WithLabelValues("ended").Inc()
	s.metrics.ActiveConversations.Set(float64(s.store.Len()))
	s.hub.Publish(Event{
		Type:      EventCallEnded,
		CallSID:   callSID,
		Timestamp: time.Now().UTC(),
	})

	if snap, ok := s.store.Export(callSID); ok {
		if err := s.sink.SaveConversation(ctx, snap); err != nil {
			log.Printf("archive failed for call %s: %v", callSID, err)
		}
	}
}

func (s *Server) newResponse() *telephony.VoiceResponse {
	return telephony.NewVoiceResponse(s.cfg.VoiceName, s.cfg.VoiceLanguage)
}

func (s *Server) gatherOptions(prompt string) telephony.GatherOptions {
	return telephony.GatherOptions{
		TimeoutSeconds: int(s.cfg.GatherTimeout.Seconds()),
		Action:         "/webhook",
		Prompt:         prompt,
	}
}

func (s *Server) writeVoice(w http.ResponseWriter, resp *telephony.VoiceResponse) {
	body, err := resp.Render()
	if err != nil {
		log.Printf("voice response render failed: %v", err)
		body, _ = s.newResponse().
			Say("I'm sorry, I'm experiencing technical difficulties. Please try again later.").
			Render()
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func hasIntent(patterns []string, name string) bool {
	for _, p := range patterns {
		if p == name {
			return true
		}
	}
	return false
}

func brainErrorClass(err error) string {
	switch {
	case errors.Is(err, brain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, brain.ErrAuthentication):
		return "authentication"
	case errors.Is(err, brain.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "other"
	}
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
