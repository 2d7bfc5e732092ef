// Package anthropic provides a model wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/storymesh/model"
)

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       string(anthropic.ModelClaude3_5Sonnet20241022),
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       string(anthropic.ModelClaude3_5Sonnet20241022),
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{client: client, opts: opts}
}

// Generate implements model.Model with a single Messages API call.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.opts.Model),
		Messages:    buildMessages(req),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}
	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}

	return &model.Response{
		Text:         text,
		FinishReason: string(resp.StopReason),
		Usage: &model.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// buildMessages converts normalized messages into Anthropic message params.
// System-role messages are folded into the request's System field by the
// caller; any stray ones are treated as user turns.
func buildMessages(req model.Request) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		block := anthropic.NewTextBlock(msg.Text)
		if msg.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(block))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(block))
	}
	return messages
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "anthropic"}
}
