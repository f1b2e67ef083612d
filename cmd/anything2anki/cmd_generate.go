package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slavadubrov/anything2anki/internal/deck"
	"github.com/slavadubrov/anything2anki/internal/input"
	"github.com/slavadubrov/anything2anki/internal/llm"
	"github.com/slavadubrov/anything2anki/internal/prompt"
	"github.com/slavadubrov/anything2anki/internal/workflow"
)

var generateCmd = &cobra.Command{
	Use:   `generate INPUT "learning description"`,
	Short: "Generate an Anki deck from a text file",
	Long: `Reads the input file (plain text, markdown, or a saved .html page), asks the
model for question/answer pairs guided by the learning description, runs the
configured number of review/improve cycles, and writes an .apkg deck next to
the input along with a markdown preview of every card.

Examples:
  anything2anki generate notes.md "Go concurrency basics"
  anything2anki generate page.html "HTTP caching" -o decks/http.apkg -r 2
  anything2anki generate notes.md "Go generics" --preset programming --show`,
	Args: cobra.ExactArgs(2),
	RunE: runGenerate,
}

var (
	flagOutput         string
	flagModel          string
	flagMaxReflections int
	flagPreset         string
	flagPreviewOnly    bool
	flagShow           bool
	flagNoProgress     bool
)

func init() {
	addRunFlags(generateCmd)
}

// addRunFlags registers the per-run flags shared by generate and watch.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output .apkg path (default: input path with .apkg suffix)")
	cmd.Flags().StringVarP(&flagModel, "model", "m", "", "Model ID, optionally provider-qualified (e.g. openai:gpt-5-mini)")
	cmd.Flags().IntVarP(&flagMaxReflections, "max-reflections", "r", 1, "Review/improve cycles after generation (0 = generation only)")
	cmd.Flags().StringVarP(&flagPreset, "preset", "p", "", "Prompt preset, see 'anything2anki presets' (default: general)")
	cmd.Flags().BoolVar(&flagPreviewOnly, "preview-only", false, "Write only the markdown preview, skip the .apkg")
	cmd.Flags().BoolVar(&flagShow, "show", false, "Render the preview to the terminal after the run")
	cmd.Flags().BoolVar(&flagNoProgress, "no-progress", false, "Disable the progress spinner")
}

// runOptions is one run's fully resolved input: flags merged over config.
type runOptions struct {
	inputPath      string
	objective      string
	outputPath     string
	modelID        string
	maxReflections int
	preset         prompt.Preset
	previewOnly    bool
	show           bool
	noProgress     bool
	deckName       string
}

// resolveRunOptions merges flags over the loaded config. Flags win when set;
// env overrides were already folded into cfg by config.Load.
func resolveRunOptions(cmd *cobra.Command, args []string) (runOptions, error) {
	opts := runOptions{
		inputPath:      args[0],
		objective:      args[1],
		modelID:        cfg.LLM.Model,
		maxReflections: cfg.Workflow.MaxReflections,
		previewOnly:    flagPreviewOnly,
		show:           flagShow,
		noProgress:     flagNoProgress,
		deckName:       cfg.Deck.Name,
	}

	if flagModel != "" {
		opts.modelID = flagModel
	}
	if cmd.Flags().Changed("max-reflections") {
		opts.maxReflections = flagMaxReflections
	}

	presetName := cfg.Workflow.Preset
	if flagPreset != "" {
		presetName = flagPreset
	}
	preset, err := prompt.ParsePreset(presetName)
	if err != nil {
		return runOptions{}, err
	}
	opts.preset = preset

	switch {
	case flagOutput != "":
		opts.outputPath = flagOutput
	case cfg.Deck.OutputDir != "":
		opts.outputPath = filepath.Join(cfg.Deck.OutputDir, defaultOutputName(opts.inputPath))
	default:
		opts.outputPath = strings.TrimSuffix(opts.inputPath, filepath.Ext(opts.inputPath)) + ".apkg"
	}

	return opts, nil
}

func defaultOutputName(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".apkg"
}

// buildClient resolves the provider for a model ID and constructs the client.
// Unqualified IDs with no recognizable family fall back to the configured
// provider, then to whichever API key is present in the environment.
func buildClient(modelID string) (llm.Client, error) {
	provider, model, err := llm.Parse(modelID)
	if err != nil {
		return nil, err
	}

	apiKey := cfg.LLM.APIKey
	if provider == "" {
		if cfg.LLM.Provider != "" {
			provider = llm.Provider(cfg.LLM.Provider)
		} else {
			detected, key, err := llm.DetectProvider()
			if err != nil {
				return nil, err
			}
			provider = detected
			if apiKey == "" {
				apiKey = key
			}
		}
	}
	if apiKey == "" {
		apiKey = llm.EnvAPIKey(provider)
	}

	return llm.NewClient(llm.ClientConfig{
		Provider:   provider,
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.GetTimeout(),
		MaxRetries: cfg.LLM.MaxRetries,
		Logger:     logger,
	})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	opts, err := resolveRunOptions(cmd, args)
	if err != nil {
		return err
	}

	runTimeout := timeout
	if runTimeout <= 0 {
		runTimeout = cfg.GetTimeout()
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	return executeRun(ctx, cmd.OutOrStdout(), opts)
}

// executeRun performs one full pass: read input, run the workflow, render the
// deck, print a summary. Shared by generate and watch.
func executeRun(ctx context.Context, out io.Writer, opts runOptions) error {
	sourceText, err := input.ReadFile(opts.inputPath)
	if err != nil {
		return err
	}

	client, err := buildClient(opts.modelID)
	if err != nil {
		return err
	}
	logger.Info("input loaded",
		zap.String("input", opts.inputPath),
		zap.Int("bytes", len(sourceText)),
		zap.String("model", client.GetModel()))

	engineCfg := workflow.Config{
		MaxReflections: opts.maxReflections,
		Preset:         opts.preset,
		Logger:         logger,
	}

	// The spinner and debug logs fight over the terminal; verbose runs keep
	// the logs instead.
	var prog *progress
	if !opts.noProgress && !verbose {
		prog = newProgress(opts.maxReflections)
		engineCfg.OnTransition = prog.Observe
	}

	engine, err := workflow.NewEngine(client, engineCfg)
	if err != nil {
		return err
	}

	if prog != nil {
		prog.Start()
	}
	result, runErr := engine.Run(ctx, sourceText, opts.objective)
	if prog != nil {
		prog.Stop()
	}
	if runErr != nil {
		return runErr
	}

	renderer := deck.NewRenderer(deck.Config{Name: opts.deckName, Logger: logger})
	rendered, err := renderer.Render(ctx, result.Cards, opts.outputPath, opts.previewOnly)
	if err != nil {
		return err
	}

	writeSummary(out, result, rendered)

	if opts.show {
		if err := showPreview(out, rendered.PreviewPath); err != nil {
			logger.Warn("failed to render preview", zap.Error(err))
		}
	}
	return nil
}

// writeSummary prints the per-run outcome for humans; structured details go
// to the logger.
func writeSummary(w io.Writer, result *workflow.Result, rendered deck.RenderResult) {
	fmt.Fprintf(w, "Generated %d cards", rendered.CardCount)
	if n := result.Calls[workflow.PhaseImprovement]; n > 0 {
		fmt.Fprintf(w, " (%d improvement cycles)", n)
	}
	fmt.Fprintln(w)

	if result.Degraded {
		fmt.Fprintf(w, "Note: %s; kept the last good version\n", result.DegradedReason)
	}
	if rendered.PackagePath != "" {
		fmt.Fprintf(w, "Deck:    %s\n", rendered.PackagePath)
	}
	fmt.Fprintf(w, "Preview: %s\n", rendered.PreviewPath)
}

// showPreview renders the markdown preview to the terminal.
func showPreview(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return err
	}
	rendered, err := renderer.Render(string(data))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, rendered)
	return err
}
