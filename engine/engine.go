package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/storymesh/agent"
	"github.com/hupe1980/storymesh/archive"
	"github.com/hupe1980/storymesh/artifact"
	"github.com/hupe1980/storymesh/core"
	"github.com/hupe1980/storymesh/gate"
	"github.com/hupe1980/storymesh/logging"
	"github.com/hupe1980/storymesh/outline"
	"github.com/hupe1980/storymesh/session"
)

// ErrAborted marks a run that stopped before all stories reached a terminal
// status. Already-finalized artifacts are preserved.
var ErrAborted = errors.New("run aborted")

// FailurePolicy decides what a story exhausting its retry budget means for
// the rest of the run.
type FailurePolicy int

const (
	// PolicySkip marks the story failed and continues with the next one.
	PolicySkip FailurePolicy = iota
	// PolicyAbort stops the whole run.
	PolicyAbort
)

// Options configure a Scheduler.
type Options struct {
	Artifacts artifact.Store
	Archive   *archive.Archive
	Gate      *gate.Gate
	Logger    logging.Logger
	// OnStoryFailure defaults to PolicySkip.
	OnStoryFailure FailurePolicy
	// MinStoryWords is the minimum length of a finalized story.
	MinStoryWords int
	// SimilarityThreshold rejects stories at or above this similarity
	// against any finalized story.
	SimilarityThreshold float64
}

// Scheduler owns the session of one run and drives the agents through the
// phase machine. It is not safe for concurrent Run calls on the same
// session; independent sessions may run concurrently through separate
// Scheduler instances or sequential calls.
type Scheduler struct {
	adapters  map[core.Role]agent.Adapter
	store     *session.InMemoryStore
	artifacts artifact.Store
	arch      *archive.Archive
	gate      *gate.Gate
	logger    logging.Logger
	policy    FailurePolicy
	minWords  int
	threshold float64
}

// New constructs a Scheduler. All six roles must have an adapter.
func New(adapters map[core.Role]agent.Adapter, store *session.InMemoryStore, optFns ...func(o *Options)) (*Scheduler, error) {
	for _, role := range core.Roles() {
		if _, ok := adapters[role]; !ok {
			return nil, fmt.Errorf("missing adapter for role %s", role)
		}
	}

	opts := Options{
		Artifacts:           artifact.NewInMemoryStore(),
		Archive:             archive.New(),
		Gate:                gate.New(),
		Logger:              logging.NoOpLogger{},
		MinStoryWords:       300,
		SimilarityThreshold: 0.35,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Scheduler{
		adapters:  adapters,
		store:     store,
		artifacts: opts.Artifacts,
		arch:      opts.Archive,
		gate:      opts.Gate,
		logger:    opts.Logger,
		policy:    opts.OnStoryFailure,
		minWords:  opts.MinStoryWords,
		threshold: opts.SimilarityThreshold,
	}, nil
}

// Run drives the session through all phases until Done or Aborted. The
// returned report is valid in both cases; on abort the error wraps
// ErrAborted.
func (s *Scheduler) Run(ctx context.Context, sessionID string) (*Report, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	report := &Report{SessionID: sessionID}

	if err := s.runOutlinePhases(ctx, sess, report); err != nil {
		report.Phase = sess.Phase()
		return report, err
	}
	if err := s.runStoryPhases(ctx, sess, report); err != nil {
		report.Phase = sess.Phase()
		return report, err
	}

	if err := s.transition(ctx, sess, core.PhaseDone); err != nil {
		err = s.abortErr(sess, err)
		report.Phase = sess.Phase()
		return report, err
	}
	report.Phase = core.PhaseDone
	s.logger.Info("run complete",
		"finalized", len(report.Finalized()), "failed", len(report.Failed()))
	return report, nil
}

// runOutlinePhases executes Planning and Outlining. Failure here is always
// fatal: nothing downstream can proceed without an outline.
func (s *Scheduler) runOutlinePhases(ctx context.Context, sess *core.Session, report *Report) error {
	sessionID := sess.ID

	// Planning: the series story arc.
	view := sess.Snapshot()
	res := s.invoke(ctx, core.RolePlanner, core.AgentRequest{
		Role: core.RolePlanner,
		Task: planTask(view),
	}, gate.All(gate.NonEmpty(), gate.Section("STORY_ARC:", "")))
	if !res.OK {
		return s.abortErr(sess, fmt.Errorf("planning failed (%s): %s", res.Reason, res.Detail))
	}
	if err := s.store.Merge(sessionID, session.Merge{Field: session.FieldStoryArc, StoryArc: res.Content}); err != nil {
		return s.abortErr(sess, err)
	}

	if err := s.transition(ctx, sess, core.PhaseOutlining); err != nil {
		return s.abortErr(sess, err)
	}

	// World elements.
	view = sess.Snapshot()
	res = s.invoke(ctx, core.RoleWorldBuilder, core.AgentRequest{
		Role: core.RoleWorldBuilder,
		Task: worldTask(view),
	}, gate.All(gate.NonEmpty(), gate.Section("WORLD_ELEMENTS:", "")))
	if !res.OK {
		return s.abortErr(sess, fmt.Errorf("world building failed (%s): %s", res.Reason, res.Detail))
	}
	if err := s.store.Merge(sessionID, session.Merge{Field: session.FieldWorldFacts, WorldFacts: parseWorldFacts(res.Content)}); err != nil {
		return s.abortErr(sess, err)
	}

	// The per-story outline.
	view = sess.Snapshot()
	var parsed []core.StoryOutline
	res = s.invoke(ctx, core.RoleOutliner, core.AgentRequest{
		Role: core.RoleOutliner,
		Task: outlineTask(view),
	}, gate.All(
		gate.NonEmpty(),
		gate.RequireMarkers(outline.StartMarker, outline.EndMarker),
		gate.Parsed(func(text string) error {
			stories, err := outline.Parse(text, view.StoryCount)
			if err != nil {
				return err
			}
			parsed = stories
			return nil
		}),
	))
	if !res.OK {
		return s.abortErr(sess, fmt.Errorf("outlining failed (%s): %s", res.Reason, res.Detail))
	}
	if err := s.store.Merge(sessionID, session.Merge{Field: session.FieldOutline, RawOutline: res.Content, Outline: parsed}); err != nil {
		return s.abortErr(sess, err)
	}

	if err := s.artifacts.Persist("outline.txt", renderOutlineArtifact(parsed)); err != nil {
		return s.abortErr(sess, fmt.Errorf("persist outline: %w", err))
	}
	s.logger.Info("outline persisted", "stories", len(parsed))
	return nil
}

// runStoryPhases drives each story through Drafting, Editing, Finalizing.
func (s *Scheduler) runStoryPhases(ctx context.Context, sess *core.Session, report *Report) error {
	view := sess.Snapshot()
	for i := 1; i <= view.StoryCount; i++ {
		if err := s.transition(ctx, sess, core.PhaseDrafting); err != nil {
			return s.abortErr(sess, err)
		}
		if err := sess.AdvanceStory(i); err != nil {
			return s.abortErr(sess, err)
		}

		entry := view.Outline[i-1]
		draft := &core.StoryDraft{Index: i, Outline: entry, Status: core.StatusPlanned}
		if err := s.mergeDraft(sess.ID, draft); err != nil {
			return s.abortErr(sess, err)
		}

		summary, err := s.runStory(ctx, sess, draft)
		switch {
		case err == nil:
			report.Stories = append(report.Stories, StoryReport{
				Index: i, Title: entry.Title, Status: core.StatusFinalized,
			})
			if aerr := s.arch.Add(archive.Entry{
				Index: i, Title: entry.Title, Text: draft.Text(), Summary: summary,
			}); aerr != nil {
				return s.abortErr(sess, aerr)
			}
			if merr := s.store.Merge(sess.ID, session.Merge{
				Field:      session.FieldContinuity,
				Continuity: []string{fmt.Sprintf("Story %d (%s) finalized.", i, entry.Title)},
			}); merr != nil {
				return s.abortErr(sess, merr)
			}
		case errors.Is(err, ErrAborted):
			return err
		default:
			// Terminal per-story failure.
			draft.Status = core.StatusFailed
			draft.FailReason = err.Error()
			if merr := s.mergeDraft(sess.ID, draft); merr != nil {
				return s.abortErr(sess, merr)
			}
			report.Stories = append(report.Stories, StoryReport{
				Index: i, Title: entry.Title, Status: core.StatusFailed, Reason: err.Error(),
			})
			s.logger.Error("story failed", "story", i, "title", entry.Title, "reason", err.Error())
			if s.policy == PolicyAbort {
				return s.abortErr(sess, fmt.Errorf("story %d failed: %v", i, err))
			}
		}
	}
	return nil
}

// runStory executes the drafting, editing and finalizing phases for the
// draft's story. A returned error wrapping ErrAborted ends the run; any
// other error is the story's terminal failure reason.
func (s *Scheduler) runStory(ctx context.Context, sess *core.Session, draft *core.StoryDraft) (summary string, err error) {
	log := s.logger
	index := draft.Index
	entry := draft.Outline

	// Memory keeper context. Failures here are tolerated: the run degrades
	// to archive summaries instead of a curated update.
	view := sess.Snapshot()
	res := s.invoke(ctx, core.RoleMemoryKeeper, core.AgentRequest{
		Role:       core.RoleMemoryKeeper,
		Task:       memoryTask(view, index),
		Context:    s.storyContext(view),
		Continuity: view.Continuity,
	}, gate.All(gate.NonEmpty(), gate.Section("MEMORY UPDATE:", "")))
	if res.OK {
		summary = res.Content
		entries, facts := parseMemoryUpdate(res.Content)
		if len(entries) > 0 {
			if err := s.store.Merge(sess.ID, session.Merge{Field: session.FieldContinuity, Continuity: entries}); err != nil {
				return "", s.abortErr(sess, err)
			}
		}
		if len(facts) > 0 {
			if err := s.store.Merge(sess.ID, session.Merge{Field: session.FieldWorldFacts, WorldFacts: facts}); err != nil {
				return "", s.abortErr(sess, err)
			}
		}
	} else {
		if res.Reason == core.ReasonCanceled {
			return "", s.abortErr(sess, fmt.Errorf("canceled: %s", res.Detail))
		}
		log.Warn("memory update unavailable", "story", index, "reason", res.Reason.String())
	}

	// Writer draft.
	view = sess.Snapshot()
	res = s.invoke(ctx, core.RoleWriter, core.AgentRequest{
		Role:       core.RoleWriter,
		Task:       draftTask(view, entry),
		Context:    s.storyContext(view),
		Continuity: view.Continuity,
	}, gate.All(gate.NonEmpty(), gate.Section("SCENE:", "")))
	if !res.OK {
		return "", s.storyErr(sess, res)
	}
	draft.Chapters = []string{res.Content}
	if err := draft.Advance(core.StatusDrafted); err != nil {
		return "", err
	}
	if err := s.mergeDraft(sess.ID, draft); err != nil {
		return "", s.abortErr(sess, err)
	}

	if err := s.transition(ctx, sess, core.PhaseEditing); err != nil {
		return "", s.abortErr(sess, err)
	}

	// Editor review.
	res = s.invoke(ctx, core.RoleEditor, core.AgentRequest{
		Role:    core.RoleEditor,
		Task:    editTask(entry, draft.Text()),
		Context: s.storyContext(view),
	}, gate.All(gate.NonEmpty(), gate.Section("FEEDBACK:", "")))
	if !res.OK {
		return "", s.storyErr(sess, res)
	}
	feedback := res.Content

	// Writer final revision, gated by length and non-repetition.
	res = s.invoke(ctx, core.RoleWriter, core.AgentRequest{
		Role:       core.RoleWriter,
		Task:       reviseTask(entry, draft.Text(), feedback),
		Context:    s.storyContext(view),
		Continuity: view.Continuity,
	}, gate.All(
		gate.NonEmpty(),
		gate.Section("SCENE FINAL:", ""),
		gate.MinWords(s.minWords),
		gate.NotSimilar(s.arch, s.threshold),
	))
	if !res.OK {
		return "", s.storyErr(sess, res)
	}
	draft.Chapters = []string{res.Content}
	if err := draft.Advance(core.StatusEdited); err != nil {
		return "", err
	}
	if err := s.mergeDraft(sess.ID, draft); err != nil {
		return "", s.abortErr(sess, err)
	}

	if err := s.transition(ctx, sess, core.PhaseFinalizing); err != nil {
		return "", s.abortErr(sess, err)
	}

	name := fmt.Sprintf("story_%02d.txt", index)
	if err := s.artifacts.Persist(name, renderStoryArtifact(draft)); err != nil {
		return "", s.abortErr(sess, fmt.Errorf("persist %s: %w", name, err))
	}
	if err := s.artifacts.Finalize(name); err != nil {
		return "", s.abortErr(sess, fmt.Errorf("finalize %s: %w", name, err))
	}
	if err := draft.Advance(core.StatusFinalized); err != nil {
		return "", err
	}
	if err := s.mergeDraft(sess.ID, draft); err != nil {
		return "", s.abortErr(sess, err)
	}
	log.Info("story finalized", "story", index, "title", entry.Title, "artifact", name)
	return summary, nil
}

// storyContext assembles the stable context blocks every drafting-side
// request carries: outline, world facts and prior story summaries.
func (s *Scheduler) storyContext(view core.SessionView) []string {
	blocks := []string{view.OutlineContext(), worldFactsBlock(view.WorldFacts)}
	if summaries := s.arch.Summaries(); summaries != "" {
		blocks = append(blocks, summaries)
	}
	return blocks
}

func (s *Scheduler) invoke(ctx context.Context, role core.Role, req core.AgentRequest, check gate.Check) core.ValidationResult {
	return s.gate.Invoke(ctx, s.adapters[role], req, check)
}

func (s *Scheduler) mergeDraft(sessionID string, draft *core.StoryDraft) error {
	return s.store.Merge(sessionID, session.Merge{Field: session.FieldDraft, Draft: draft})
}

// transition checks cancellation, then moves the session to the next phase.
func (s *Scheduler) transition(ctx context.Context, sess *core.Session, next core.Phase) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancellation before %s: %w", next, err)
	}
	from := sess.Phase()
	if from == next {
		// Re-entering Drafting for the next story.
		return nil
	}
	if err := sess.SetPhase(next); err != nil {
		return err
	}
	s.logger.Info("phase transition", "from", from.String(), "to", next.String())
	return nil
}

// storyErr converts a failed gate result into the story's terminal error,
// escalating cancellation to a run abort.
func (s *Scheduler) storyErr(sess *core.Session, res core.ValidationResult) error {
	if res.Reason == core.ReasonCanceled {
		return s.abortErr(sess, fmt.Errorf("canceled: %s", res.Detail))
	}
	return fmt.Errorf("%s after %d attempts: %s", res.Reason, res.Attempts, res.Detail)
}

// abortErr marks the session aborted and returns the wrapping error; finalized
// artifacts are left untouched.
func (s *Scheduler) abortErr(sess *core.Session, cause error) error {
	if !sess.Phase().Terminal() {
		if err := sess.SetPhase(core.PhaseAborted); err != nil {
			s.logger.Error("failed to mark session aborted", "error", err)
		}
	}
	if errors.Is(cause, ErrAborted) {
		return cause
	}
	s.logger.Error("run aborted", "cause", cause.Error())
	return fmt.Errorf("%w: %v", ErrAborted, cause)
}
