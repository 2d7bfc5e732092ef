package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Message is one chat turn handed to a provider. Role is one of
// "system", "user" or "assistant".
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Request captures the normalized model input produced by agent adapters.
type Request struct {
	// Instructions is the role-specific system prompt.
	Instructions string    `json:"instructions"`
	Messages     []Message `json:"messages"`
}

// Usage captures token usage statistics for a response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final output of one generation call.
type Response struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"` // "stop", "length", etc.
	Usage        *Usage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "azure", "mock"
}

// Model is the minimal interface required by agent adapters to drive
// generation. Generate performs exactly one call against the underlying
// service; retries are owned by the caller.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses are served from a scripted queue first, then from a prompt
// lookup table, then from a generic echo.
type MockModel struct {
	info      Info
	mu        sync.Mutex
	queue     []queued
	responses map[string]string
	calls     []Request
}

type queued struct {
	text string
	err  error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue appends a scripted response served before any prompt lookup.
func (m *MockModel) Enqueue(texts ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range texts {
		m.queue = append(m.queue, queued{text: t})
	}
}

// EnqueueError appends a scripted transport failure.
func (m *MockModel) EnqueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, queued{err: err})
}

// Calls returns a copy of all requests seen so far.
func (m *MockModel) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]Request, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		if next.err != nil {
			return nil, next.err
		}
		return &Response{Text: next.text, FinishReason: "stop"}, nil
	}

	var prompt strings.Builder
	for _, msg := range req.Messages {
		prompt.WriteString(msg.Text)
	}
	if canned, ok := m.responses[prompt.String()]; ok {
		return &Response{Text: canned, FinishReason: "stop"}, nil
	}
	return &Response{Text: fmt.Sprintf("Mock response to: %s", prompt.String()), FinishReason: "stop"}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
