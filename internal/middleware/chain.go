package middleware

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

const skipReason = "skipped (ShouldLoad=false)"

// Chain runs middlewares for one conversation event, highest Priority first.
// Equal priorities keep registration order.
type Chain struct {
	mu  sync.RWMutex
	mws []Middleware

	trace traceSink
}

// DecisionResult is what one middleware decided for one event.
type DecisionResult struct {
	MiddlewareID string
	Priority     int
	Skipped      bool
	Decision     Decision
}

func NewChain(mws ...Middleware) *Chain {
	c := &Chain{}
	c.Use(mws...)
	return c
}

// SetDebugWriter turns on the JSONL decision trace. A nil w turns it off.
func (c *Chain) SetDebugWriter(w io.Writer) {
	c.trace.setWriter(w)
}

func (c *Chain) Use(mws ...Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mws = append(c.mws, mws...)
	sort.SliceStable(c.mws, func(i, j int) bool {
		return c.mws[i].Priority() > c.mws[j].Priority()
	})
}

func (c *Chain) List() []Middleware {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Middleware, len(c.mws))
	copy(out, c.mws)
	return out
}

func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mws)
}

// Dispatch hands e to every middleware in order and stops after the first
// Cancel. Skipped middlewares still get a result. A middleware error aborts
// the event and comes back wrapped with the middleware id.
func (c *Chain) Dispatch(ctx context.Context, e *Event) ([]DecisionResult, error) {
	mws := c.List()
	results := make([]DecisionResult, 0, len(mws))
	for _, mw := range mws {
		res, err := c.run(ctx, mw, e)
		if err != nil {
			return nil, fmt.Errorf("middleware %s: %w", mw.ID(), err)
		}
		results = append(results, res)
		if res.Decision.Cancel {
			break
		}
	}
	return results, nil
}

func (c *Chain) run(ctx context.Context, mw Middleware, e *Event) (DecisionResult, error) {
	res := DecisionResult{MiddlewareID: mw.ID(), Priority: mw.Priority()}
	before := snapshot(e)

	if cmw, ok := mw.(ConditionalMiddleware); ok && !cmw.ShouldLoad(ctx, e) {
		res.Skipped = true
		res.Decision.Reason = skipReason
		c.trace.record(e, res, before, nil)
		return res, nil
	}

	dec, err := mw.OnEvent(ctx, e)
	if err != nil {
		res.Decision = Decision{Cancel: true, Reason: err.Error()}
		c.trace.record(e, res, before, err)
		return res, err
	}
	e.apply(dec)
	res.Decision = dec
	c.trace.record(e, res, before, nil)
	return res, nil
}

// FoldText replays the ReplaceText decisions of results over initial. It
// returns the final text and the decision that canceled the event, if any.
func FoldText(initial string, results []DecisionResult) (string, *Decision) {
	cur := strings.TrimSpace(initial)
	for _, r := range results {
		dec := r.Decision
		if dec.ReplaceText != nil {
			cur = strings.TrimSpace(*dec.ReplaceText)
		}
		if dec.Cancel {
			return cur, &dec
		}
	}
	return cur, nil
}

// text is the part of the event a middleware may rewrite.
func (e *Event) text() string {
	if e == nil {
		return ""
	}
	switch e.Name {
	case EventBeforeLLMRequest:
		return e.UserText
	case EventAfterLLMResponse:
		return e.LLMText
	}
	return ""
}

func (e *Event) apply(dec Decision) {
	if e == nil {
		return
	}
	if dec.OverrideParams != nil {
		e.Params = dec.OverrideParams
	}
	if dec.ReplaceText == nil {
		return
	}
	switch e.Name {
	case EventBeforeLLMRequest:
		e.UserText = *dec.ReplaceText
	case EventAfterLLMResponse:
		e.LLMText = *dec.ReplaceText
	}
}
