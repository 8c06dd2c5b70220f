package chat

import (
	"context"

	"frieddie/internal/middleware"

	"github.com/tmc/langchaingo/llms"
)

// Reply is what one model call produced: either final text or a single
// function call. FunctionCall is nil for final text.
type Reply struct {
	Content      string
	FunctionCall *FunctionCall
}

// Adapter abstracts chat completion providers.
type Adapter interface {
	// Complete sends the whole history plus params (tools, token budget) and
	// maps the provider's completion reason onto Reply.
	Complete(ctx context.Context, history []Message, params *middleware.LLMParams) (Reply, error)
}

// Dispatcher advertises callable functions and runs them by name.
type Dispatcher interface {
	Tools() []llms.Tool
	Dispatch(ctx context.Context, name, rawArgs string) (string, error)
}
