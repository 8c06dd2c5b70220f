package tokenbudget

import (
	"context"

	mw "frieddie/internal/middleware"
)

func init() {
	// Auto-register middleware so it is picked up via middlewares/autoload.
	mw.Register(BudgetLimiter{})
}

// BudgetLimiter caps the response budget of a request when
// Event.Context["token_budget"] is set. It prefers the smaller of the
// existing MaxTokens and the provided budget.
type BudgetLimiter struct{}

func (BudgetLimiter) ID() string    { return "token_budget" }
func (BudgetLimiter) Priority() int { return 90 }

// ShouldLoad always returns true; the middleware will no-op when no budget is
// present in Event.Context["token_budget"].
func (BudgetLimiter) ShouldLoad(_ context.Context, _ *mw.Event) bool { return true }

func (BudgetLimiter) OnEvent(_ context.Context, e *mw.Event) (mw.Decision, error) {
	if e == nil || e.Name != mw.EventBeforeLLMRequest {
		return mw.Decision{}, nil
	}
	budget := budgetFrom(e.Context)
	if budget <= 0 {
		return mw.Decision{}, nil
	}

	// Copy params so downstream can mutate safely.
	params := &mw.LLMParams{}
	if e.Params != nil {
		*params = *e.Params
	}

	if params.MaxTokens == 0 || params.MaxTokens > budget {
		params.MaxTokens = budget
		return mw.Decision{
			OverrideParams: params,
			Reason:         "token_budget: capped MaxTokens",
		}, nil
	}

	return mw.Decision{}, nil
}

// budgetFrom accepts ints and the float64 that JSON decoding produces.
func budgetFrom(c map[string]any) int {
	switch v := c["token_budget"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
