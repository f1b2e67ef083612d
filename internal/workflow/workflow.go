// Package workflow implements the run loop that turns source text into a
// validated flashcard set: exactly one generation, then a bounded number of
// reflect/improve cycles. Each phase is a single LLM round-trip whose JSON
// output is extracted and shape-validated before the loop moves on.
//
// Generation failure is fatal. A failed reflection or improvement ends the
// loop early and the last known-good set becomes the run's output; the run
// still counts as a success, marked degraded on the result.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slavadubrov/anything2anki/internal/extract"
	"github.com/slavadubrov/anything2anki/internal/llm"
	"github.com/slavadubrov/anything2anki/internal/prompt"
	"github.com/slavadubrov/anything2anki/internal/schema"
)

// State is a named position in the run's state machine.
type State string

const (
	StateStart      State = "start"
	StateGenerated  State = "generated"
	StateReflecting State = "reflecting"
	StateImproved   State = "improved"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Phase names one of the three LLM interactions.
type Phase string

const (
	PhaseGeneration  Phase = "generation"
	PhaseReflection  Phase = "reflection"
	PhaseImprovement Phase = "improvement"
)

// Transition is one recorded state change. Phase names the interaction that
// drove it, empty for pure bookkeeping moves such as the final transition to
// Done. Err is non-nil when the driving phase failed.
type Transition struct {
	From  State
	To    State
	Phase Phase
	Err   error
}

// Result is the full account of a run: the final cards, the feedback from the
// last successful reflection, every state transition, and per-phase call
// counts. Degraded is set when a reflect or improve failure cut the loop
// short and the cards are an earlier phase's output.
type Result struct {
	RunID string

	Cards    schema.FlashcardSet
	Feedback *schema.Feedback

	State          State
	Degraded       bool
	DegradedReason string

	Transitions []Transition
	Calls       map[Phase]int

	Duration time.Duration
}

// Config controls a run.
type Config struct {
	// MaxReflections bounds the reflect/improve cycles after generation.
	// Zero means generation only; negative values are treated as zero.
	MaxReflections int

	// Preset picks the prompt family. Empty means prompt.DefaultPreset.
	Preset prompt.Preset

	Logger *zap.Logger

	// OnTransition, when set, observes every state change as it is recorded.
	// Called from the run's goroutine; keep it fast.
	OnTransition func(Transition)
}

// Engine executes runs. Engines are stateless across runs and safe for
// concurrent use: every run owns its own Result, card set, and feedback.
type Engine struct {
	client llm.Client
	cfg    Config
	logger *zap.Logger

	genSystem string
	refSystem string
	impSystem string
}

// NewEngine validates the configuration and resolves the preset's system
// prompts. An unknown preset fails here, before any LLM call is made.
func NewEngine(client llm.Client, cfg Config) (*Engine, error) {
	if cfg.Preset == "" {
		cfg.Preset = prompt.DefaultPreset
	}
	if cfg.MaxReflections < 0 {
		cfg.MaxReflections = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	gen, ref, imp, err := prompt.SystemPrompts(cfg.Preset)
	if err != nil {
		return nil, err
	}

	return &Engine{
		client:    client,
		cfg:       cfg,
		logger:    cfg.Logger,
		genSystem: gen,
		refSystem: ref,
		impSystem: imp,
	}, nil
}

// Run executes the state machine over the source text. It returns an error
// only when generation fails; reflect/improve failures degrade the run but
// still return the last known-good cards with a nil error.
func (e *Engine) Run(ctx context.Context, sourceText, objective string) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID: uuid.NewString(),
		State: StateStart,
		Calls: map[Phase]int{
			PhaseGeneration:  0,
			PhaseReflection:  0,
			PhaseImprovement: 0,
		},
	}
	defer func() { result.Duration = time.Since(start) }()

	logger := e.logger.With(zap.String("run_id", result.RunID))
	logger.Info("run started",
		zap.String("model", e.client.GetModel()),
		zap.String("preset", string(e.cfg.Preset)),
		zap.Int("max_reflections", e.cfg.MaxReflections))

	cards, err := e.generate(ctx, result, sourceText, objective)
	if err != nil {
		e.move(result, StateFailed, PhaseGeneration, err)
		logger.Error("generation failed", zap.Error(err))
		return result, fmt.Errorf("generation failed: %w", err)
	}
	e.move(result, StateGenerated, PhaseGeneration, nil)
	result.Cards = cards
	logger.Info("cards generated", zap.Int("cards", len(cards)))

	for cycle := 1; cycle <= e.cfg.MaxReflections; cycle++ {
		e.move(result, StateReflecting, PhaseReflection, nil)

		feedback, err := e.reflect(ctx, result, result.Cards, sourceText, objective)
		if err != nil {
			result.Degraded = true
			result.DegradedReason = fmt.Sprintf("reflection cycle %d: %v", cycle, err)
			e.move(result, StateDone, PhaseReflection, err)
			logger.Warn("reflection failed, keeping last known-good cards",
				zap.Int("cycle", cycle),
				zap.Int("cards", len(result.Cards)),
				zap.Error(err))
			return result, nil
		}
		result.Feedback = feedback
		logger.Info("feedback received",
			zap.Int("cycle", cycle),
			zap.Int("weaknesses", len(feedback.Weaknesses)),
			zap.Int("recommendations", len(feedback.Recommendations)))

		improved, err := e.improve(ctx, result, result.Cards, feedback, sourceText, objective)
		if err != nil {
			result.Degraded = true
			result.DegradedReason = fmt.Sprintf("improvement cycle %d: %v", cycle, err)
			e.move(result, StateDone, PhaseImprovement, err)
			logger.Warn("improvement failed, keeping last known-good cards",
				zap.Int("cycle", cycle),
				zap.Int("cards", len(result.Cards)),
				zap.Error(err))
			return result, nil
		}
		e.move(result, StateImproved, PhaseImprovement, nil)
		result.Cards = improved
		logger.Info("cards improved",
			zap.Int("cycle", cycle),
			zap.Int("cards", len(improved)))
	}

	e.move(result, StateDone, "", nil)
	logger.Info("run finished",
		zap.Int("cards", len(result.Cards)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// move records a state change on the result and notifies the hook.
func (e *Engine) move(result *Result, to State, phase Phase, err error) {
	tr := Transition{From: result.State, To: to, Phase: phase, Err: err}
	result.State = to
	result.Transitions = append(result.Transitions, tr)
	if e.cfg.OnTransition != nil {
		e.cfg.OnTransition(tr)
	}
}

func (e *Engine) generate(ctx context.Context, result *Result, sourceText, objective string) (schema.FlashcardSet, error) {
	result.Calls[PhaseGeneration]++
	raw, err := e.client.CompleteWithSystem(ctx, e.genSystem, prompt.GenerationUser(sourceText, objective))
	if err != nil {
		return nil, &ChannelError{Phase: PhaseGeneration, Err: err}
	}
	region, err := extract.Array(raw)
	if err != nil {
		return nil, err
	}
	return schema.ValidateFlashcards(region)
}

func (e *Engine) reflect(ctx context.Context, result *Result, cards schema.FlashcardSet, sourceText, objective string) (*schema.Feedback, error) {
	result.Calls[PhaseReflection]++
	raw, err := e.client.CompleteWithSystem(ctx, e.refSystem, prompt.ReflectionUser(cards, sourceText, objective))
	if err != nil {
		return nil, &ChannelError{Phase: PhaseReflection, Err: err}
	}
	region, err := extract.Object(raw)
	if err != nil {
		return nil, err
	}
	return schema.ValidateFeedback(region)
}

func (e *Engine) improve(ctx context.Context, result *Result, cards schema.FlashcardSet, feedback *schema.Feedback, sourceText, objective string) (schema.FlashcardSet, error) {
	result.Calls[PhaseImprovement]++
	raw, err := e.client.CompleteWithSystem(ctx, e.impSystem, prompt.ImprovementUser(sourceText, objective, cards, feedback))
	if err != nil {
		return nil, &ChannelError{Phase: PhaseImprovement, Err: err}
	}
	region, err := extract.Array(raw)
	if err != nil {
		return nil, err
	}
	return schema.ValidateFlashcards(region)
}
