package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/storymesh/core"
	"github.com/hupe1980/storymesh/logging"
	"github.com/hupe1980/storymesh/model"
)

// ErrEmptyResponse is returned when the model produced blank output.
var ErrEmptyResponse = fmt.Errorf("empty model response")

// Adapter is the uniform invocation contract for one role. Implementations
// perform exactly one external generation call per Invoke; retries belong to
// the gate, never to the adapter.
type Adapter interface {
	Role() core.Role
	Invoke(ctx context.Context, req core.AgentRequest) (*core.AgentResponse, error)
}

// Options configure a ModelAdapter.
type Options struct {
	// MaxContextChars bounds the rendered request size. The oldest
	// continuity entries are dropped first when the bound is exceeded.
	// Zero disables the bound.
	MaxContextChars int
	// InstructionData feeds the role instruction template.
	InstructionData InstructionData
	// Limiter caps total model calls per run when set.
	Limiter *core.CallLimiter
	Logger  logging.Logger
}

// ModelAdapter binds a role to a model.Model. The role's system instructions
// are rendered once at construction.
type ModelAdapter struct {
	role            core.Role
	llm             model.Model
	instructions    string
	maxContextChars int
	limiter         *core.CallLimiter
	logger          logging.Logger
}

// NewModelAdapter creates an adapter for the given role. The role must be
// one of the six known roles.
func NewModelAdapter(role core.Role, llm model.Model, optFns ...func(o *Options)) (*ModelAdapter, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(role))
	}

	opts := Options{
		MaxContextChars: 24000,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	instructions, err := Instructions(role, opts.InstructionData)
	if err != nil {
		return nil, err
	}

	return &ModelAdapter{
		role:            role,
		llm:             llm,
		instructions:    instructions,
		maxContextChars: opts.MaxContextChars,
		limiter:         opts.Limiter,
		logger:          opts.Logger,
	}, nil
}

// Role returns the role this adapter serves.
func (a *ModelAdapter) Role() core.Role { return a.role }

// Invoke performs one generation call for the request. Transport failures
// surface wrapped; blank output surfaces as ErrEmptyResponse.
func (a *ModelAdapter) Invoke(ctx context.Context, req core.AgentRequest) (*core.AgentResponse, error) {
	if req.Role != a.role {
		return nil, fmt.Errorf("request role %s does not match adapter role %s", req.Role, a.role)
	}

	if a.limiter != nil {
		if err := a.limiter.Increment(); err != nil {
			return nil, err
		}
	}

	prompt := a.renderPrompt(req)

	start := time.Now()
	resp, err := a.llm.Generate(ctx, model.Request{
		Instructions: a.instructions,
		Messages:     []model.Message{{Role: "user", Text: prompt}},
	})
	if err != nil {
		a.logger.Error("generation failed", "role", a.role.String(), "duration", time.Since(start), "error", err)
		return nil, fmt.Errorf("generation failed for %s: %w", a.role, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		a.logger.Warn("blank model output", "role", a.role.String())
		return nil, fmt.Errorf("%s: %w", a.role, ErrEmptyResponse)
	}

	out := &core.AgentResponse{
		Role:         a.role,
		Text:         text,
		ModelName:    a.llm.Info().Name,
		FinishReason: resp.FinishReason,
	}
	if resp.Usage != nil {
		out.PromptTokens = resp.Usage.PromptTokens
		out.OutputTokens = resp.Usage.CompletionTokens
	}
	a.logger.Debug("agent turn completed",
		"role", a.role.String(), "duration", time.Since(start), "chars", len(text))
	return out, nil
}

// renderPrompt assembles the user message: task, stable context blocks, the
// continuity window and prior-attempt feedback. Continuity entries are
// dropped oldest first until the prompt fits the configured bound.
func (a *ModelAdapter) renderPrompt(req core.AgentRequest) string {
	continuity := req.Continuity
	for {
		prompt := buildPrompt(req.Task, req.Context, continuity, req.Feedback)
		if a.maxContextChars <= 0 || len(prompt) <= a.maxContextChars || len(continuity) == 0 {
			if a.maxContextChars > 0 && len(prompt) > a.maxContextChars {
				a.logger.Warn("context bound exceeded after dropping all continuity entries",
					"role", a.role.String(), "chars", len(prompt))
			}
			if len(continuity) < len(req.Continuity) {
				a.logger.Debug("truncated continuity entries",
					"role", a.role.String(), "dropped", len(req.Continuity)-len(continuity))
			}
			return prompt
		}
		continuity = continuity[1:]
	}
}

func buildPrompt(task string, blocks, continuity []string, feedback string) string {
	var b strings.Builder
	b.WriteString(task)
	for _, block := range blocks {
		if block == "" {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(block)
	}
	if len(continuity) > 0 {
		b.WriteString("\n\nContinuity log:")
		for _, entry := range continuity {
			b.WriteString("\n- ")
			b.WriteString(entry)
		}
	}
	if feedback != "" {
		b.WriteString("\n\nYour previous attempt was rejected: ")
		b.WriteString(feedback)
		b.WriteString("\nAddress this in your next response.")
	}
	return b.String()
}
