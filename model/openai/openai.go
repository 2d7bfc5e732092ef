// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API. It adapts StoryMesh's normalized Request/Response
// structures into the SDK's message format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/storymesh/model"
)

// Options configure the OpenAI model adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model with a single non-streaming completion call.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	ch0 := resp.Choices[0]
	return &model.Response{
		Text:         ch0.Message.Content,
		FinishReason: string(ch0.FinishReason),
		Usage: &model.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// buildMessages converts normalized messages into OpenAI chat messages,
// prefixing the role instructions as a system message.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(msg.Text))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Text))
		default:
			messages = append(messages, openai.UserMessage(msg.Text))
		}
	}
	return messages
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "openai"}
}
