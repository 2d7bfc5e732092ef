package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/storymesh/agent"
	"github.com/hupe1980/storymesh/artifact"
	"github.com/hupe1980/storymesh/core"
	"github.com/hupe1980/storymesh/gate"
	"github.com/hupe1980/storymesh/internal/testutil"
	"github.com/hupe1980/storymesh/model"
	"github.com/hupe1980/storymesh/session"
	"github.com/hupe1980/storymesh/similarity"
)

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newAdapters(t *testing.T, llm model.Model, stories int) map[core.Role]agent.Adapter {
	t.Helper()
	adapters := make(map[core.Role]agent.Adapter)
	for _, role := range core.Roles() {
		ad, err := agent.NewModelAdapter(role, llm, func(o *agent.Options) {
			o.InstructionData = agent.InstructionData{StoryCount: stories}
		})
		require.NoError(t, err)
		adapters[role] = ad
	}
	return adapters
}

type fixture struct {
	scheduler *Scheduler
	store     *session.InMemoryStore
	artifacts *artifact.InMemoryStore
}

func newFixture(t *testing.T, llm model.Model, stories int, optFns ...func(o *Options)) fixture {
	t.Helper()
	store := session.NewInMemoryStore()
	artifacts := artifact.NewInMemoryStore()
	_, err := store.Create("run-1", "A drifter crosses a changing frontier.", stories)
	require.NoError(t, err)

	all := append([]func(o *Options){func(o *Options) {
		o.Artifacts = artifacts
		o.Gate = gate.New(func(g *gate.Options) { g.Sleep = noSleep })
	}}, optFns...)

	sched, err := New(newAdapters(t, llm, stories), store, all...)
	require.NoError(t, err)
	return fixture{scheduler: sched, store: store, artifacts: artifacts}
}

func TestNew_RequiresAllRoles(t *testing.T) {
	llm := model.NewMockModel("m")
	adapters := newAdapters(t, llm, 1)
	delete(adapters, core.RoleEditor)

	_, err := New(adapters, session.NewInMemoryStore())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "editor")
}

func TestScheduler_FullRun(t *testing.T) {
	llm := model.NewMockModel("m")
	testutil.ScriptRun(llm, 2, 300)

	fx := newFixture(t, llm, 2)
	report, err := fx.scheduler.Run(context.Background(), "run-1")
	require.NoError(t, err)

	assert.Equal(t, core.PhaseDone, report.Phase)
	assert.Equal(t, []int{1, 2}, report.Finalized())
	assert.Empty(t, report.Failed())

	names, err := fx.artifacts.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"outline.txt", "story_01.txt", "story_02.txt"}, names)

	outline, err := fx.artifacts.Get("outline.txt")
	require.NoError(t, err)
	assert.Contains(t, string(outline), "Story 1:")
	assert.Contains(t, string(outline), "Story 2:")

	var texts []string
	for _, name := range []string{"story_01.txt", "story_02.txt"} {
		data, err := fx.artifacts.Get(name)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Story ")
		assert.Contains(t, string(data), "END OF STORY\n")
		texts = append(texts, string(data))
	}
	// The two finalized stories must not repeat each other.
	assert.Less(t, similarity.Trigram(texts[0], texts[1]), 0.35)

	sess, err := fx.store.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, core.PhaseDone, sess.Phase())
	for i := 1; i <= 2; i++ {
		d, ok := sess.Draft(i)
		require.True(t, ok, "draft %d", i)
		assert.Equal(t, core.StatusFinalized, d.Status)
	}
}

func TestScheduler_SimilarStoryRetriedWithFeedback(t *testing.T) {
	llm := model.NewMockModel("m")
	llm.Enqueue(
		testutil.ArcResponse("arc"),
		testutil.WorldResponse(map[string]string{"frontier": "past the border"}),
		testutil.OutlineResponse(2),
	)
	storyOne := testutil.Prose("tale1 word", 300)
	llm.Enqueue(
		testutil.MemoryResponse("story one begins"),
		testutil.DraftResponse(testutil.Prose("tale1 draft", 40)),
		testutil.FeedbackResponse("fine"),
		testutil.FinalResponse(storyOne),
	)
	llm.Enqueue(
		testutil.MemoryResponse("story two begins"),
		testutil.DraftResponse(testutil.Prose("tale2 draft", 40)),
		testutil.FeedbackResponse("fine"),
		// First revision repeats story one and must be rejected.
		testutil.FinalResponse(storyOne),
		testutil.FinalResponse(testutil.Prose("tale2 word", 300)),
	)

	fx := newFixture(t, llm, 2)
	report, err := fx.scheduler.Run(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, report.Finalized())

	calls := llm.Calls()
	require.Len(t, calls, 12)
	retry := calls[11].Messages[0].Text
	assert.Contains(t, retry, "Your previous attempt was rejected:")
	assert.Contains(t, retry, "too similar to finalized story 1")
}

func TestScheduler_StoryFailureSkips(t *testing.T) {
	llm := model.NewMockModel("m")
	llm.Enqueue(
		testutil.ArcResponse("arc"),
		testutil.WorldResponse(map[string]string{"frontier": "past the border"}),
		testutil.OutlineResponse(2),
	)
	// Story 1: the writer never produces a SCENE marker.
	llm.Enqueue(
		testutil.MemoryResponse("story one begins"),
		"I cannot write this story.",
		"Still no scene for you.",
	)
	// Story 2 proceeds normally.
	seed := "tale2 word"
	llm.Enqueue(
		testutil.MemoryResponse("story two begins"),
		testutil.DraftResponse(testutil.Prose(seed+"draft", 40)),
		testutil.FeedbackResponse("fine"),
		testutil.FinalResponse(testutil.Prose(seed, 300)),
	)

	fx := newFixture(t, llm, 2, func(o *Options) {
		o.Gate = gate.New(func(g *gate.Options) {
			g.MaxAttempts = 2
			g.Sleep = noSleep
		})
	})
	report, err := fx.scheduler.Run(context.Background(), "run-1")
	require.NoError(t, err)

	assert.Equal(t, core.PhaseDone, report.Phase)
	assert.Equal(t, []int{1}, report.Failed())
	assert.Equal(t, []int{2}, report.Finalized())

	require.Len(t, report.Stories, 2)
	assert.Equal(t, core.StatusFailed, report.Stories[0].Status)
	assert.Contains(t, report.Stories[0].Reason, "exhausted_retries")

	names, err := fx.artifacts.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"outline.txt", "story_02.txt"}, names)

	sess, err := fx.store.Get("run-1")
	require.NoError(t, err)
	d, ok := sess.Draft(1)
	require.True(t, ok)
	assert.Equal(t, core.StatusFailed, d.Status)
	assert.NotEmpty(t, d.FailReason)
}

func TestScheduler_StoryFailureAbortsUnderAbortPolicy(t *testing.T) {
	llm := model.NewMockModel("m")
	llm.Enqueue(
		testutil.ArcResponse("arc"),
		testutil.WorldResponse(map[string]string{"frontier": "past the border"}),
		testutil.OutlineResponse(2),
		testutil.MemoryResponse("story one begins"),
		"no scene marker",
		"still no scene marker",
	)

	fx := newFixture(t, llm, 2, func(o *Options) {
		o.OnStoryFailure = PolicyAbort
		o.Gate = gate.New(func(g *gate.Options) {
			g.MaxAttempts = 2
			g.Sleep = noSleep
		})
	})
	report, err := fx.scheduler.Run(context.Background(), "run-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAborted))
	assert.Equal(t, core.PhaseAborted, report.Phase)

	// The outline survives the abort.
	names, lerr := fx.artifacts.List()
	require.NoError(t, lerr)
	assert.Equal(t, []string{"outline.txt"}, names)
}

func TestScheduler_PlanningFailureAborts(t *testing.T) {
	llm := model.NewMockModel("m")
	llm.Enqueue("no arc marker", "again nothing", "still nothing")

	fx := newFixture(t, llm, 1)
	report, err := fx.scheduler.Run(context.Background(), "run-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAborted))
	assert.Equal(t, core.PhaseAborted, report.Phase)
	assert.Empty(t, report.Stories)
}

// cancelingModel cancels the run's context once a set number of calls has
// been served, simulating an operator interrupt mid-run.
type cancelingModel struct {
	*model.MockModel
	cancel context.CancelFunc
	after  int
	calls  int
}

func (m *cancelingModel) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	m.calls++
	if m.calls > m.after {
		m.cancel()
	}
	return m.MockModel.Generate(ctx, req)
}

func TestScheduler_CancellationPreservesFinalizedStories(t *testing.T) {
	inner := model.NewMockModel("m")
	testutil.ScriptRun(inner, 2, 300)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Cancel after the outline phases and all four story 1 turns.
	llm := &cancelingModel{MockModel: inner, cancel: cancel, after: 7}

	fx := newFixture(t, llm, 2)
	report, err := fx.scheduler.Run(ctx, "run-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAborted))
	assert.Equal(t, core.PhaseAborted, report.Phase)
	assert.Equal(t, []int{1}, report.Finalized())

	// Story 1 is finalized, durable and immutable.
	data, gerr := fx.artifacts.Get("story_01.txt")
	require.NoError(t, gerr)
	assert.Contains(t, string(data), "END OF STORY\n")
	assert.ErrorIs(t, fx.artifacts.Persist("story_01.txt", []byte("tampered")), artifact.ErrImmutableArtifact)

	_, gerr = fx.artifacts.Get("story_02.txt")
	assert.ErrorIs(t, gerr, artifact.ErrNotFound)
}

func TestScheduler_MemoryKeeperFailureIsTolerated(t *testing.T) {
	llm := model.NewMockModel("m")
	llm.Enqueue(
		testutil.ArcResponse("arc"),
		testutil.WorldResponse(map[string]string{"frontier": "past the border"}),
		testutil.OutlineResponse(1),
	)
	// The memory keeper errors out on every attempt; the story still lands.
	for i := 0; i < 3; i++ {
		llm.EnqueueError(fmt.Errorf("memory service down"))
	}
	seed := "tale1 word"
	llm.Enqueue(
		testutil.DraftResponse(testutil.Prose(seed+"draft", 40)),
		testutil.FeedbackResponse("fine"),
		testutil.FinalResponse(testutil.Prose(seed, 300)),
	)

	fx := newFixture(t, llm, 1)
	report, err := fx.scheduler.Run(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, core.PhaseDone, report.Phase)
	assert.Equal(t, []int{1}, report.Finalized())
}

func TestScheduler_ContinuityRecordsFinalizedStories(t *testing.T) {
	llm := model.NewMockModel("m")
	testutil.ScriptRun(llm, 2, 300)

	fx := newFixture(t, llm, 2)
	_, err := fx.scheduler.Run(context.Background(), "run-1")
	require.NoError(t, err)

	view, err := fx.store.Snapshot("run-1")
	require.NoError(t, err)
	assert.Contains(t, view.Continuity, "Story 1 (The Journey Part 1) finalized.")
	assert.Contains(t, view.Continuity, "Story 2 (The Journey Part 2) finalized.")
}
