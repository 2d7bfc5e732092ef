// Package azure provides a model.Model backed by Azure OpenAI (or any
// OpenAI-compatible endpoint) via the sashabaranov client, which carries
// first-class Azure deployment configuration.
package azure

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/hupe1980/storymesh/model"
)

// Options configure the Azure OpenAI model adapter.
type Options struct {
	// Deployment is the Azure deployment (model) name.
	Deployment string
	// Endpoint is the resource endpoint, e.g. https://myres.openai.azure.com.
	// When empty the client targets api.openai.com with BaseURL semantics.
	Endpoint string
	// APIVersion overrides the Azure API version when set.
	APIVersion  string
	APIKey      string
	Temperature float32
	MaxTokens   int
}

// Model wraps an OpenAI-compatible chat completions endpoint behind the
// generic model.Model interface.
type Model struct {
	client *goopenai.Client
	opts   Options
}

// NewModel creates a new Azure OpenAI model.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Deployment:  "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var cfg goopenai.ClientConfig
	if opts.Endpoint != "" {
		cfg = goopenai.DefaultAzureConfig(opts.APIKey, opts.Endpoint)
		if opts.APIVersion != "" {
			cfg.APIVersion = opts.APIVersion
		}
	} else {
		cfg = goopenai.DefaultConfig(opts.APIKey)
	}

	return &Model{client: goopenai.NewClientWithConfig(cfg), opts: opts}
}

// NewModelFromClient creates a model from an existing client, mainly for tests.
func NewModelFromClient(client *goopenai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Deployment:  "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model with a single chat completion call.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.Instructions != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.Instructions,
		})
	}
	for _, msg := range req.Messages {
		role := goopenai.ChatMessageRoleUser
		switch msg.Role {
		case "system":
			role = goopenai.ChatMessageRoleSystem
		case "assistant":
			role = goopenai.ChatMessageRoleAssistant
		}
		messages = append(messages, goopenai.ChatCompletionMessage{Role: role, Content: msg.Text})
	}

	resp, err := m.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       m.opts.Deployment,
		Messages:    messages,
		Temperature: m.opts.Temperature,
		MaxTokens:   m.opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("azure openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	ch0 := resp.Choices[0]
	return &model.Response{
		Text:         ch0.Message.Content,
		FinishReason: string(ch0.FinishReason),
		Usage: &model.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Info returns metadata describing this Azure OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Deployment, Provider: "azure"}
}
