// Package prompt provides the preset registry and the prompt builders for
// the three workflow phases. Presets are a closed set; an unknown name fails
// here, before any model call is made.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/slavadubrov/anything2anki/internal/schema"
)

// Preset selects which aspects of the source text the model should
// prioritize when writing cards.
type Preset string

const (
	PresetGeneral     Preset = "general"
	PresetCloze       Preset = "cloze"
	PresetConcepts    Preset = "concepts"
	PresetProcedures  Preset = "procedures"
	PresetProgramming Preset = "programming"
)

// DefaultPreset is used when the caller does not pick one.
const DefaultPreset = PresetGeneral

// ErrUnknownPreset is wrapped into errors returned for preset names outside
// the registry.
var ErrUnknownPreset = errors.New("unknown preset")

type presetSpec struct {
	description string
	focus       string // appended to the generation system prompt; empty for general
}

// registry is the closed preset set. Order of Available() follows presetOrder.
var registry = map[Preset]presetSpec{
	PresetGeneral: {
		description: "balanced question/answer cards covering the whole text",
	},
	PresetCloze: {
		description: "cloze-style fill-in-the-blank cards",
		focus: "Favor cloze-style cards: take a key sentence, blank out the critical " +
			"term in the question, and use the missing term as the answer.",
	},
	PresetConcepts: {
		description: "definitions and relationships between concepts",
		focus: "Prioritize definitions and relationships between concepts over isolated " +
			"facts. Every card should test why or how a concept matters, not just its name.",
	},
	PresetProcedures: {
		description: "step-by-step processes and their ordering",
		focus: "Prioritize step-by-step processes: ask what comes next, what a given " +
			"step accomplishes, and which preconditions a step requires.",
	},
	PresetProgramming: {
		description: "code behavior, APIs, and common pitfalls",
		focus: "Prioritize code behavior: ask what a construct does, when to use it, " +
			"and what its pitfalls are. Keep code fragments in questions short.",
	},
}

var presetOrder = []Preset{
	PresetGeneral, PresetCloze, PresetConcepts, PresetProcedures, PresetProgramming,
}

// Available returns every registered preset in stable order.
func Available() []Preset {
	out := make([]Preset, len(presetOrder))
	copy(out, presetOrder)
	return out
}

// Describe returns the one-line description for a registered preset.
func Describe(p Preset) string {
	return registry[p].description
}

// ParsePreset normalizes and validates a preset name.
func ParsePreset(name string) (Preset, error) {
	p := Preset(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := registry[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p, nil
}

const generationBase = `You are an expert at creating educational flashcards.
Your task is to extract key information from text and create question-answer
pairs that are suitable for spaced repetition learning.

Generate questions and answers that:
- Are clear and concise
- Test understanding of key concepts
- Cover important information from the text
- Are appropriate for memorization`

const generationSchema = `You must produce JSON: respond with a single JSON array of objects, where
each object has:
- "question": The question text
- "answer": The answer text

Example format:
[
  {"question": "What is X?", "answer": "X is Y because Z."},
  {"question": "How does A work?", "answer": "A works by B and C."}
]`

const reflectionSystem = `You are a demanding reviewer of educational flashcards.
Provide constructive feedback on the flashcard set you are given: judge how
well it covers the source text, whether the questions are unambiguous, and
whether the answers are correct and complete.

Respond with a single JSON object with exactly these fields:
- "strengths": list of strings
- "weaknesses": list of strings
- "recommendations": list of strings
- "overall_quality": a short summary judgement (string)

Do not include any text outside the JSON object.`

const improvementSystem = `You are an expert at creating educational flashcards. You will receive a
flashcard set together with reviewer feedback. Return improved flashcards:
rewrite the set so it addresses every weakness and recommendation while
keeping what already works.

You must produce JSON: respond with a single JSON array of objects with
"question" and "answer" fields, containing the complete improved set. Do not
include any explanation outside the JSON.`

// SystemPrompts returns the generation, reflection, and improvement system
// prompts for a preset.
func SystemPrompts(p Preset) (gen, ref, imp string, err error) {
	spec, ok := registry[p]
	if !ok {
		return "", "", "", fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}

	parts := []string{generationBase}
	if spec.focus != "" {
		parts = append(parts, spec.focus)
	}
	parts = append(parts, generationSchema)

	return strings.Join(parts, "\n\n"), reflectionSystem, improvementSystem, nil
}

// GenerationUser builds the user prompt for the generation phase.
func GenerationUser(sourceText, objective string) string {
	return fmt.Sprintf(`Based on the following learning objective: %q

Please analyze the following text and generate relevant question-answer pairs:

%s

Return ONLY a valid JSON array of objects with "question" and "answer" fields.
Do not include any explanation or additional text outside the JSON.`, objective, sourceText)
}

// ImprovementUser builds the user prompt for the improvement phase: the
// generation prompt plus the previous attempt and its feedback as JSON.
func ImprovementUser(sourceText, objective string, cards schema.FlashcardSet, fb *schema.Feedback) string {
	context := struct {
		QAPairs  schema.FlashcardSet `json:"qa_pairs"`
		Feedback *schema.Feedback    `json:"feedback"`
	}{QAPairs: cards, Feedback: fb}
	contextJSON, _ := json.MarshalIndent(context, "", "  ")

	return fmt.Sprintf(`Based on the following learning objective: %q

Please analyze the following text and generate relevant question-answer pairs:

%s

A previous attempt and reviewer feedback follow. Produce a complete
replacement set that addresses the feedback:

%s

Return ONLY a valid JSON array of objects with "question" and "answer" fields.
Do not include any explanation or additional text outside the JSON.`, objective, sourceText, contextJSON)
}

// ReflectionUser builds the user prompt for the reflection phase.
func ReflectionUser(cards schema.FlashcardSet, sourceText, objective string) string {
	cardsJSON, _ := json.MarshalIndent(cards, "", "  ")

	return fmt.Sprintf(`Review the following flashcards, generated for the learning objective: %q

Flashcards:
%s

Source text:
%s

Return ONLY a valid JSON object with "strengths", "weaknesses",
"recommendations", and "overall_quality" fields. Do not include any
explanation outside the JSON.`, objective, cardsJSON, sourceText)
}
