// Package storymesh provides a high-level façade over the engine scheduler
// and its services (sessions, artifacts, archive, validation gate & logging)
// for generating a series of short stories from a single premise. Most
// applications interact with this package by:
//  1. Creating a StoryMesh via New() with a model.Model, or via FromConfig()
//  2. Calling Run() with the initial premise
//
// The façade delegates orchestration to engine.Scheduler while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a file-backed artifact
// store and a structured logger.
package storymesh

import (
	"context"
	"fmt"
	"os"

	"github.com/hupe1980/storymesh/agent"
	"github.com/hupe1980/storymesh/archive"
	"github.com/hupe1980/storymesh/artifact"
	"github.com/hupe1980/storymesh/config"
	"github.com/hupe1980/storymesh/core"
	"github.com/hupe1980/storymesh/engine"
	"github.com/hupe1980/storymesh/gate"
	"github.com/hupe1980/storymesh/internal/util"
	"github.com/hupe1980/storymesh/logging"
	"github.com/hupe1980/storymesh/model"
	"github.com/hupe1980/storymesh/model/anthropic"
	"github.com/hupe1980/storymesh/model/azure"
	"github.com/hupe1980/storymesh/model/openai"
	"github.com/hupe1980/storymesh/session"
)

// Options configures the StoryMesh instance.
type Options struct {
	// Stories is the number of stories to generate, >= 1.
	Stories int

	// Artifacts receives outline.txt and story_NN.txt. Defaults to an
	// in-memory store.
	Artifacts artifact.Store

	// Sessions holds run state. Defaults to an in-memory store.
	Sessions *session.InMemoryStore

	// Archive accumulates finalized stories for the non-repetition check.
	Archive *archive.Archive

	// Gate bounds retries per agent invocation.
	Gate *gate.Gate

	// MaxModelCalls caps total generation calls per run, 0 for unlimited.
	MaxModelCalls int

	// MaxContextChars bounds the rendered prompt per agent call.
	MaxContextChars int

	// MinStoryWords is the minimum length of a finalized story.
	MinStoryWords int

	// SimilarityThreshold rejects stories at or above this similarity
	// against any finalized story.
	SimilarityThreshold float64

	// OnStoryFailure decides whether a story exhausting its retries skips
	// ahead or aborts the run.
	OnStoryFailure engine.FailurePolicy

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// StoryMesh is the high-level façade aggregating the scheduler and its
// services.
type StoryMesh struct {
	opts      Options
	sessions  *session.InMemoryStore
	scheduler *engine.Scheduler
}

// New creates a StoryMesh around a single model shared by all six roles.
// Any unset service is initialized with an in-memory implementation.
func New(llm model.Model, optFns ...func(o *Options)) (*StoryMesh, error) {
	opts := Options{
		Stories:             2,
		Artifacts:           artifact.NewInMemoryStore(),
		Sessions:            session.NewInMemoryStore(),
		Archive:             archive.New(),
		Gate:                gate.New(),
		MaxContextChars:     24000,
		MinStoryWords:       300,
		SimilarityThreshold: 0.35,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Stories < 1 {
		return nil, fmt.Errorf("stories must be >= 1, got %d", opts.Stories)
	}

	limiter := core.NewCallLimiter(opts.MaxModelCalls)

	adapters := make(map[core.Role]agent.Adapter, len(core.Roles()))
	for _, role := range core.Roles() {
		ad, err := agent.NewModelAdapter(role, llm, func(o *agent.Options) {
			o.MaxContextChars = opts.MaxContextChars
			o.InstructionData = agent.InstructionData{StoryCount: opts.Stories}
			o.Limiter = limiter
			o.Logger = opts.Logger
		})
		if err != nil {
			return nil, fmt.Errorf("adapter for %s: %w", role, err)
		}
		adapters[role] = ad
	}

	sched, err := engine.New(adapters, opts.Sessions, func(o *engine.Options) {
		o.Artifacts = opts.Artifacts
		o.Archive = opts.Archive
		o.Gate = opts.Gate
		o.Logger = opts.Logger
		o.OnStoryFailure = opts.OnStoryFailure
		o.MinStoryWords = opts.MinStoryWords
		o.SimilarityThreshold = opts.SimilarityThreshold
	})
	if err != nil {
		return nil, err
	}

	return &StoryMesh{opts: opts, sessions: opts.Sessions, scheduler: sched}, nil
}

// FromConfig builds a fully wired StoryMesh from a validated configuration:
// provider selection, file-backed artifact store, structured logger, retry
// gate and run limits all follow the config.
func FromConfig(cfg *config.Config) (*StoryMesh, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	llm, err := buildModel(cfg)
	if err != nil {
		return nil, err
	}

	store, err := artifact.NewFileStore(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: output dir: %v", config.ErrInvalid, err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	g := gate.New(func(o *gate.Options) {
		o.MaxAttempts = cfg.Retry.MaxAttempts
		o.Backoff = gate.BackoffPolicy{Base: cfg.Retry.BackoffBase, Cap: cfg.Retry.BackoffCap}
		o.Logger = logger
	})

	policy := engine.PolicySkip
	if cfg.OnStoryFailure == "abort" {
		policy = engine.PolicyAbort
	}

	return New(llm, func(o *Options) {
		o.Stories = cfg.Stories
		o.Artifacts = store
		o.Gate = g
		o.MaxModelCalls = cfg.Limits.MaxModelCalls
		o.MaxContextChars = cfg.Limits.MaxContextChars
		o.MinStoryWords = cfg.Limits.MinStoryWords
		o.SimilarityThreshold = cfg.SimilarityThreshold
		o.OnStoryFailure = policy
		o.Logger = logger
	})
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.OpenAI.Model != "" {
				o.Model = cfg.OpenAI.Model
			}
			o.Temperature = cfg.OpenAI.Temperature
			o.MaxCompletionTokens = cfg.OpenAI.MaxTokens
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Anthropic.Model != "" {
				o.Model = cfg.Anthropic.Model
			}
			o.Temperature = cfg.Anthropic.Temperature
			o.MaxTokens = cfg.Anthropic.MaxTokens
			o.APIKey = cfg.Anthropic.APIKey
		}), nil
	case "azure":
		return azure.NewModel(func(o *azure.Options) {
			o.Endpoint = cfg.Azure.Endpoint
			if cfg.Azure.Deployment != "" {
				o.Deployment = cfg.Azure.Deployment
			}
			o.APIVersion = cfg.Azure.APIVersion
			o.APIKey = cfg.Azure.APIKey
			o.Temperature = cfg.Azure.Temperature
			o.MaxTokens = cfg.Azure.MaxTokens
		}), nil
	case "mock":
		return model.NewMockModel("mock"), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", config.ErrInvalid, cfg.Provider)
	}
}

// Run creates a fresh session for the premise and drives it to completion.
// The report is valid even when the run aborts; the error then wraps
// engine.ErrAborted.
func (m *StoryMesh) Run(ctx context.Context, prompt string) (*engine.Report, error) {
	sess, err := m.sessions.Create(util.NewID(), prompt, m.opts.Stories)
	if err != nil {
		return nil, err
	}
	return m.scheduler.Run(ctx, sess.ID)
}
