package httpclient

import (
	"encoding/json"
	"maps"
)

// Message is one chat turn in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Template holds the request fields shared by every request of a sweep.
// Per-request bodies are shallow copies with "messages" set.
type Template map[string]any

// NewTemplate builds the shared completion request fields.
func NewTemplate(model string, temperature float64, maxTokens int) Template {
	return Template{
		"model":       model,
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}
}

// Payload returns a copy of the template carrying a single user message.
// The template itself is never modified.
func (t Template) Payload(prompt string) map[string]any {
	payload := make(map[string]any, len(t)+1)
	maps.Copy(payload, t)
	payload["messages"] = []Message{{Role: "user", Content: prompt}}
	return payload
}

// Body encodes the payload for prompt as JSON.
func (t Template) Body(prompt string) ([]byte, error) {
	return json.Marshal(t.Payload(prompt))
}
