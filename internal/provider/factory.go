package provider

import (
	"context"
	"fmt"
	"strings"
)

// Options selects and configures a provider. The active provider is an
// explicit value passed around by callers, never package-level state.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// New constructs the generator for the named provider. An empty provider
// name defaults to gemini.
func New(ctx context.Context, opts Options) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "gemini"
	}

	switch provider {
	case "gemini":
		return NewGeminiGenerator(ctx, opts.APIKey, opts.Model)
	case "openai":
		return NewOpenAIGenerator(opts.APIKey, opts.Model, opts.BaseURL), nil
	case "ollama":
		return NewOllamaGenerator(opts.Model, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported diagram provider: %s", opts.Provider)
	}
}
