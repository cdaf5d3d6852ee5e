package model

import (
	"context"
	"fmt"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// Request captures the normalized model input produced by the runner.
type Request struct {
	Instructions string    `json:"instructions"` // System prompt for the model
	Messages     []Message `json:"messages"`     // Conversation so far, oldest first
	Stream       bool      `json:"stream,omitempty"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	Partial      bool   `json:"partial"` // Indicates if this is a partial response
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason"` // "stop", "length", etc.
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	responses map[string]string
	fallback  string
	err       error
}

// NewMockModel constructs a MockModel that echoes prompts unless a canned
// response is registered.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// SetFallback sets the reply used when no canned response matches.
func (m *MockModel) SetFallback(response string) { m.fallback = response }

// FailWith makes every Generate call report err instead of producing output.
func (m *MockModel) FailWith(err error) { m.err = err }

// Generate implements Model; emits a single final response resolved from the
// canned table, the fallback, or an echo of the last user message.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		if m.err != nil {
			errCh <- m.err
			return
		}

		prompt := lastUserMessage(req)
		reply, ok := m.responses[prompt]
		if !ok {
			if m.fallback != "" {
				reply = m.fallback
			} else {
				reply = fmt.Sprintf("mock reply to: %s", prompt)
			}
		}

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case out <- Response{Content: reply, FinishReason: "stop"}:
		}
	}()

	return out, errCh
}

// Info returns the mock's metadata.
func (m *MockModel) Info() Info { return m.info }

func lastUserMessage(req Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}
