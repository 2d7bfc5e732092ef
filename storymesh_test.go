package storymesh

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/storymesh/artifact"
	"github.com/hupe1980/storymesh/config"
	"github.com/hupe1980/storymesh/core"
	"github.com/hupe1980/storymesh/engine"
	"github.com/hupe1980/storymesh/internal/testutil"
	"github.com/hupe1980/storymesh/model"
)

func TestStoryMesh_Run(t *testing.T) {
	llm := model.NewMockModel("m")
	testutil.ScriptRun(llm, 2, 300)

	artifacts := artifact.NewInMemoryStore()
	mesh, err := New(llm, func(o *Options) {
		o.Stories = 2
		o.Artifacts = artifacts
	})
	require.NoError(t, err)

	report, err := mesh.Run(context.Background(), "A drifter crosses a changing frontier.")
	require.NoError(t, err)
	assert.Equal(t, core.PhaseDone, report.Phase)
	assert.Equal(t, []int{1, 2}, report.Finalized())

	names, err := artifacts.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"outline.txt", "story_01.txt", "story_02.txt"}, names)
}

func TestNew_RejectsBadStoryCount(t *testing.T) {
	_, err := New(model.NewMockModel("m"), func(o *Options) { o.Stories = 0 })
	assert.Error(t, err)
}

func TestFromConfig_WritesToOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	cfg := config.Default()
	cfg.Provider = "mock"
	cfg.Prompt = "A lighthouse keeper finds a map."
	cfg.Stories = 1
	cfg.OutputDir = dir
	cfg.Retry.BackoffBase = 0

	mesh, err := FromConfig(&cfg)
	require.NoError(t, err)
	require.DirExists(t, dir)

	// The mock provider echoes prompts, so planning never produces its
	// marker and the run aborts without writing artifacts.
	report, err := mesh.Run(context.Background(), cfg.Prompt)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrAborted)
	assert.Equal(t, core.PhaseAborted, report.Phase)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFromConfig_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = "nonsense"
	_, err := FromConfig(&cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}
