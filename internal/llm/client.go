// Package llm implements the completion channel the workflow talks through.
//
// Three providers are supported: OpenAI and Anthropic over their HTTP APIs,
// and Gemini through the official google.golang.org/genai SDK. All of them
// satisfy Client, so nothing outside this package cares which provider is
// behind a model ID.
package llm

import "context"

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	SetModel(model string)
	GetModel() string
}
