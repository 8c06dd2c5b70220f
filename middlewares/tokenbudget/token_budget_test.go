package tokenbudget

import (
	"context"
	"testing"

	mw "frieddie/internal/middleware"
)

func TestBudgetCapsMaxTokens(t *testing.T) {
	params := &mw.LLMParams{MaxTokens: 100}
	ev := &mw.Event{
		Name:    mw.EventBeforeLLMRequest,
		Params:  params,
		Context: map[string]any{"token_budget": 40},
	}
	dec, err := BudgetLimiter{}.OnEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if dec.OverrideParams == nil || dec.OverrideParams.MaxTokens != 40 {
		t.Fatalf("expected MaxTokens capped to 40, got %+v", dec.OverrideParams)
	}
	if params.MaxTokens != 100 {
		t.Fatalf("original params must not be mutated, got %d", params.MaxTokens)
	}
}

func TestBudgetAcceptsJSONNumbers(t *testing.T) {
	ev := &mw.Event{
		Name:    mw.EventBeforeLLMRequest,
		Params:  &mw.LLMParams{MaxTokens: 100},
		Context: map[string]any{"token_budget": float64(64)},
	}
	dec, _ := BudgetLimiter{}.OnEvent(context.Background(), ev)
	if dec.OverrideParams == nil || dec.OverrideParams.MaxTokens != 64 {
		t.Fatalf("expected MaxTokens 64, got %+v", dec.OverrideParams)
	}
}

func TestBudgetNoopWhenLarger(t *testing.T) {
	cases := []map[string]any{
		nil,
		{"token_budget": 500},
		{"token_budget": "lots"},
		{"token_budget": 0},
	}
	for _, c := range cases {
		ev := &mw.Event{Name: mw.EventBeforeLLMRequest, Params: &mw.LLMParams{MaxTokens: 100}, Context: c}
		dec, err := BudgetLimiter{}.OnEvent(context.Background(), ev)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if dec.OverrideParams != nil {
			t.Fatalf("expected no override for %v, got %+v", c, dec.OverrideParams)
		}
	}
}

func TestBudgetIgnoresOtherEvents(t *testing.T) {
	ev := &mw.Event{Name: mw.EventAfterLLMResponse, Context: map[string]any{"token_budget": 10}}
	dec, _ := BudgetLimiter{}.OnEvent(context.Background(), ev)
	if dec.OverrideParams != nil {
		t.Fatalf("after_llm_response must not override params")
	}
}
