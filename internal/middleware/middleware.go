package middleware

import (
	"context"

	"github.com/tmc/langchaingo/llms"
)

type EventName string

const (
	EventBeforeLLMRequest EventName = "before_llm_request"
	EventAfterLLMResponse EventName = "after_llm_response"
)

// LLMParams are the per-turn knobs handed to the model adapter.
type LLMParams struct {
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int

	// Tools advertises the function registry. ToolChoice is "auto" unless a
	// middleware forces something else.
	Tools      []llms.Tool
	ToolChoice any
}

type Decision struct {
	Cancel      bool   // stop the pipeline for this event
	Reason      string // for logs
	ReplaceText *string

	// Optional: change request + continue
	OverrideParams *LLMParams
}

type Event struct {
	Name     EventName
	UserText string     // for before_llm_request
	LLMText  string     // for after_llm_response
	Params   *LLMParams // mutable
	Attempt  int        // model calls already made in this turn
	Context  map[string]any
}

type Middleware interface {
	ID() string
	Priority() int
	OnEvent(ctx context.Context, e *Event) (Decision, error)
}

// ConditionalMiddleware is an optional extension that allows a middleware to be
// dynamically enabled/disabled per request/event.
//
// If a middleware implements this interface and returns false, it will be
// skipped during dispatch (but still recorded in results with a "skipped"
// reason).
type ConditionalMiddleware interface {
	ShouldLoad(ctx context.Context, e *Event) bool
}
