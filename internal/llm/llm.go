package llm

import (
	"fmt"

	"frieddie/internal/chat"
)

type Provider string

const (
	ProviderOpenAI          Provider = "openai"
	ProviderOpenAIFunctions Provider = "openai-functions"
	ProviderOllama          Provider = "ollama"
	ProviderAnthropic       Provider = "anthropic"
	ProviderGemini          Provider = "gemini"
)

const DefaultModel = "gpt-3.5-turbo-0613"

// Options selects and authenticates a provider. Empty APIKey falls back to the
// provider's usual environment variable.
type Options struct {
	Provider Provider
	Model    string
	BaseURL  string
	APIKey   string
}

func NewAdapter(opts Options) (chat.Adapter, error) {
	if opts.Provider == "" {
		opts.Provider = ProviderOpenAI
	}
	var (
		adapter chat.Adapter
		err     error
	)
	switch opts.Provider {
	case ProviderOpenAI:
		adapter, err = wrap(NewOpenAIAdapter(opts.Model, opts.BaseURL, opts.APIKey))
	case ProviderOpenAIFunctions:
		adapter, err = NewFunctionsAdapter(opts.Model, opts.BaseURL, opts.APIKey), nil
	case ProviderOllama:
		adapter, err = wrap(NewOllamaAdapter(opts.Model, opts.BaseURL))
	case ProviderAnthropic:
		adapter, err = wrap(NewAnthropicAdapter(opts.Model, opts.BaseURL, opts.APIKey))
	case ProviderGemini:
		adapter, err = wrap(NewGeminiAdapter(opts.Model, opts.APIKey))
	default:
		return nil, fmt.Errorf("unsupported provider: %s", opts.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%s adapter: %w", opts.Provider, err)
	}
	return adapter, nil
}

func wrap(a *LangChainAdapter, err error) (chat.Adapter, error) {
	if err != nil {
		return nil, err
	}
	return a, nil
}
