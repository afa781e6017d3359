package telephony

import (
	"encoding/xml"
	"fmt"
)

// Say speaks a line to the caller.
type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

// Gather collects caller speech and posts the transcription back.
type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr,omitempty"`
	Timeout       int      `xml:"timeout,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Language      string   `xml:"language,attr,omitempty"`
	Action        string   `xml:"action,attr,omitempty"`
	Method        string   `xml:"method,attr,omitempty"`
	Say           *Say     `xml:"Say,omitempty"`
}

// Hangup terminates the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type responseDoc struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

// VoiceResponse builds the markup document returned from the webhook.
type VoiceResponse struct {
	voice    string
	language string
	verbs    []any
}

func NewVoiceResponse(voice, language string) *VoiceResponse {
	return &VoiceResponse{voice: voice, language: language}
}

func (r *VoiceResponse) Say(text string) *VoiceResponse {
	r.verbs = append(r.verbs, Say{Voice: r.voice, Language: r.language, Text: text})
	return r
}

// GatherOptions configures a speech gather verb.
type GatherOptions struct {
	TimeoutSeconds int
	Action         string
	Prompt         string
}

func (r *VoiceResponse) Gather(opts GatherOptions) *VoiceResponse {
	g := Gather{
		Input:         "speech",
		Timeout:       opts.TimeoutSeconds,
		SpeechTimeout: "auto",
		Language:      r.language,
		Action:        opts.Action,
		Method:        "POST",
	}
	if opts.Prompt != "" {
		g.Say = &Say{Voice: r.voice, Language: r.language, Text: opts.Prompt}
	}
	r.verbs = append(r.verbs, g)
	return r
}

func (r *VoiceResponse) Hangup() *VoiceResponse {
	r.verbs = append(r.verbs, Hangup{})
	return r
}

// Render serializes the response document with an XML declaration.
func (r *VoiceResponse) Render() (string, error) {
	body, err := xml.Marshal(responseDoc{Verbs: r.verbs})
	if err != nil {
		return "", fmt.Errorf("render voice response: %w", err)
	}
	return xml.Header + string(body), nil
}
