package gate

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/storymesh/agent"
	"github.com/hupe1980/storymesh/core"
	"github.com/hupe1980/storymesh/logging"
)

// Options configure a Gate.
type Options struct {
	// MaxAttempts bounds adapter invocations per request, including the
	// first one. Must be >= 1.
	MaxAttempts int
	Backoff     BackoffPolicy
	Logger      logging.Logger
	// Sleep waits between attempts; overridable in tests. The default
	// honors context cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Gate runs adapter invocations through validation with bounded retries.
type Gate struct {
	maxAttempts int
	backoff     BackoffPolicy
	logger      logging.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// New constructs a Gate with optional overrides.
func New(optFns ...func(o *Options)) *Gate {
	opts := Options{
		MaxAttempts: 3,
		Backoff:     DefaultBackoff,
		Logger:      logging.NoOpLogger{},
		Sleep:       sleepCtx,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Gate{
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		logger:      opts.Logger,
		sleep:       opts.Sleep,
	}
}

// Invoke drives the adapter until check passes or the attempt budget runs
// out. Each failure's reason is folded into the next attempt's feedback.
// Cancellation is checked before every attempt and during backoff waits.
func (g *Gate) Invoke(ctx context.Context, ad agent.Adapter, req core.AgentRequest, check Check) core.ValidationResult {
	var last core.ValidationResult

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			last = core.Fail(core.ReasonCanceled, err.Error())
			last.Attempts = attempt - 1
			return last
		}

		resp, err := ad.Invoke(ctx, req)
		switch {
		case err == nil:
			last = check(resp.Text)
		case errors.Is(err, agent.ErrEmptyResponse):
			last = core.Fail(core.ReasonEmpty, err.Error())
		default:
			last = core.Fail(core.ReasonGeneration, err.Error())
		}
		last.Attempts = attempt

		if last.OK {
			return last
		}

		g.logger.Warn("attempt rejected",
			"role", req.Role.String(), "attempt", attempt,
			"reason", last.Reason.String(), "detail", last.Detail)
		req.Feedback = last.Detail

		if attempt < g.maxAttempts {
			if err := g.sleep(ctx, g.backoff.Delay(attempt)); err != nil {
				last = core.Fail(core.ReasonCanceled, err.Error())
				last.Attempts = attempt
				return last
			}
		}
	}

	out := core.Fail(core.ReasonExhaustedRetries, last.Detail)
	out.Attempts = g.maxAttempts
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
