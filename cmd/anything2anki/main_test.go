package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slavadubrov/anything2anki/internal/config"
	"github.com/slavadubrov/anything2anki/internal/deck"
	"github.com/slavadubrov/anything2anki/internal/llm"
	"github.com/slavadubrov/anything2anki/internal/prompt"
	"github.com/slavadubrov/anything2anki/internal/workflow"
)

// newTestRunCmd resets the shared flag variables and binds them to a fresh
// command so Changed() tracking starts clean per test.
func newTestRunCmd(t *testing.T) *cobra.Command {
	t.Helper()
	flagOutput, flagModel, flagPreset = "", "", ""
	flagMaxReflections = 1
	flagPreviewOnly, flagShow, flagNoProgress = false, false, false

	cmd := &cobra.Command{Use: "test"}
	addRunFlags(cmd)
	return cmd
}

func clearProviderKeys(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
}

func TestResolveRunOptionsDefaults(t *testing.T) {
	cfg = config.DefaultConfig()
	cmd := newTestRunCmd(t)

	opts, err := resolveRunOptions(cmd, []string{"notes.md", "Go concurrency basics"})
	require.NoError(t, err)

	assert.Equal(t, "notes.md", opts.inputPath)
	assert.Equal(t, "Go concurrency basics", opts.objective)
	assert.Equal(t, "notes.apkg", opts.outputPath)
	assert.Equal(t, "openai:gpt-5-mini", opts.modelID)
	assert.Equal(t, 1, opts.maxReflections)
	assert.Equal(t, prompt.PresetGeneral, opts.preset)
	assert.Equal(t, "Generated Deck", opts.deckName)
	assert.False(t, opts.previewOnly)
}

func TestResolveRunOptionsFlagsWin(t *testing.T) {
	cfg = config.DefaultConfig()
	cfg.Workflow.Preset = "cloze"
	cfg.Workflow.MaxReflections = 2
	cmd := newTestRunCmd(t)

	require.NoError(t, cmd.Flags().Set("model", "anthropic:claude-sonnet-4-5-20250514"))
	require.NoError(t, cmd.Flags().Set("preset", "programming"))
	require.NoError(t, cmd.Flags().Set("max-reflections", "3"))
	require.NoError(t, cmd.Flags().Set("output", "out/deck.apkg"))

	opts, err := resolveRunOptions(cmd, []string{"notes.md", "Go generics"})
	require.NoError(t, err)

	assert.Equal(t, "anthropic:claude-sonnet-4-5-20250514", opts.modelID)
	assert.Equal(t, prompt.PresetProgramming, opts.preset)
	assert.Equal(t, 3, opts.maxReflections)
	assert.Equal(t, "out/deck.apkg", opts.outputPath)
}

func TestResolveRunOptionsZeroReflectionsFlag(t *testing.T) {
	cfg = config.DefaultConfig()
	cmd := newTestRunCmd(t)
	require.NoError(t, cmd.Flags().Set("max-reflections", "0"))

	opts, err := resolveRunOptions(cmd, []string{"notes.md", "objective"})
	require.NoError(t, err)
	assert.Equal(t, 0, opts.maxReflections, "an explicit zero must not fall back to config")
}

func TestResolveRunOptionsOutputDir(t *testing.T) {
	cfg = config.DefaultConfig()
	cfg.Deck.OutputDir = "decks"

	t.Run("config dir used for default name", func(t *testing.T) {
		cmd := newTestRunCmd(t)
		opts, err := resolveRunOptions(cmd, []string{filepath.Join("in", "notes.md"), "objective"})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("decks", "notes.apkg"), opts.outputPath)
	})

	t.Run("explicit output wins", func(t *testing.T) {
		cmd := newTestRunCmd(t)
		require.NoError(t, cmd.Flags().Set("output", "elsewhere.apkg"))
		opts, err := resolveRunOptions(cmd, []string{"notes.md", "objective"})
		require.NoError(t, err)
		assert.Equal(t, "elsewhere.apkg", opts.outputPath)
	})
}

func TestResolveRunOptionsUnknownPreset(t *testing.T) {
	cfg = config.DefaultConfig()
	cmd := newTestRunCmd(t)
	require.NoError(t, cmd.Flags().Set("preset", "poetry"))

	_, err := resolveRunOptions(cmd, []string{"notes.md", "objective"})
	assert.ErrorIs(t, err, prompt.ErrUnknownPreset)
}

func TestDefaultOutputName(t *testing.T) {
	assert.Equal(t, "notes.apkg", defaultOutputName("notes.md"))
	assert.Equal(t, "notes.apkg", defaultOutputName(filepath.Join("a", "b", "notes.html")))
	assert.Equal(t, "notes.apkg", defaultOutputName("notes"))
}

func TestBuildClient(t *testing.T) {
	t.Run("qualified model picks provider", func(t *testing.T) {
		clearProviderKeys(t)
		t.Setenv("OPENAI_API_KEY", "sk-test")
		cfg = config.DefaultConfig()

		client, err := buildClient("openai:gpt-5-mini")
		require.NoError(t, err)
		require.IsType(t, &llm.OpenAIClient{}, client)
		assert.Equal(t, "gpt-5-mini", client.GetModel())
	})

	t.Run("configured provider backs unqualified model", func(t *testing.T) {
		clearProviderKeys(t)
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
		cfg = config.DefaultConfig()
		cfg.LLM.Provider = "anthropic"

		client, err := buildClient("some-house-model")
		require.NoError(t, err)
		require.IsType(t, &llm.AnthropicClient{}, client)
		assert.Equal(t, "some-house-model", client.GetModel())
	})

	t.Run("env detection as last resort", func(t *testing.T) {
		clearProviderKeys(t)
		t.Setenv("GEMINI_API_KEY", "g-test")
		cfg = config.DefaultConfig()

		client, err := buildClient("some-house-model")
		require.NoError(t, err)
		require.IsType(t, &llm.GeminiClient{}, client)
	})

	t.Run("no key anywhere fails", func(t *testing.T) {
		clearProviderKeys(t)
		cfg = config.DefaultConfig()

		_, err := buildClient("some-house-model")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no API key found")
	})
}

func TestWriteSummary(t *testing.T) {
	t.Run("full run", func(t *testing.T) {
		var buf bytes.Buffer
		result := &workflow.Result{
			Calls: map[workflow.Phase]int{workflow.PhaseImprovement: 2},
		}
		rendered := deck.RenderResult{
			PackagePath: "notes.apkg",
			PreviewPath: "notes.md",
			CardCount:   7,
		}

		writeSummary(&buf, result, rendered)
		out := buf.String()

		assert.Contains(t, out, "Generated 7 cards (2 improvement cycles)")
		assert.Contains(t, out, "Deck:    notes.apkg")
		assert.Contains(t, out, "Preview: notes.md")
		assert.NotContains(t, out, "Note:")
	})

	t.Run("degraded run", func(t *testing.T) {
		var buf bytes.Buffer
		result := &workflow.Result{
			Degraded:       true,
			DegradedReason: "reflection cycle 1: rate limited",
			Calls:          map[workflow.Phase]int{},
		}
		rendered := deck.RenderResult{PreviewPath: "notes.md", CardCount: 3}

		writeSummary(&buf, result, rendered)
		out := buf.String()

		assert.Contains(t, out, "Generated 3 cards\n")
		assert.Contains(t, out, "Note: reflection cycle 1: rate limited")
		assert.NotContains(t, out, "Deck:", "preview-only output has no package line")
	})
}

func TestProgressLabels(t *testing.T) {
	p := &progress{cycles: 2}

	assert.Equal(t, "cards generated, reviewing...",
		p.labelFor(workflow.Transition{To: workflow.StateGenerated}))
	assert.Equal(t, "cycle 1/2: reviewing cards...",
		p.labelFor(workflow.Transition{To: workflow.StateReflecting}))
	assert.Equal(t, "cycle 1/2: cards improved",
		p.labelFor(workflow.Transition{To: workflow.StateImproved}))
	assert.Equal(t, "cycle 2/2: reviewing cards...",
		p.labelFor(workflow.Transition{To: workflow.StateReflecting}))
	assert.Equal(t, "writing deck...",
		p.labelFor(workflow.Transition{To: workflow.StateDone}))

	generationOnly := &progress{cycles: 0}
	assert.Equal(t, "cards generated",
		generationOnly.labelFor(workflow.Transition{To: workflow.StateGenerated}))
}

func TestPresetsCommand(t *testing.T) {
	var buf bytes.Buffer
	presetsCmd.SetOut(&buf)
	presetsCmd.Run(presetsCmd, nil)

	out := buf.String()
	assert.Contains(t, out, "general")
	assert.Contains(t, out, "cloze")
	assert.Contains(t, out, "programming")
	assert.Contains(t, out, "* default")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, buf.String(), "anything2anki")
}
