package middleware

import (
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// traceSink writes one JSON line per middleware decision
// (bin/middleware.debug.jsonl when the gateway enables it).
type traceSink struct {
	mu sync.Mutex
	w  io.Writer
}

type traceLine struct {
	Timestamp  string `json:"ts"`
	Event      string `json:"event"`
	Session    string `json:"session,omitempty"`
	Attempt    int    `json:"attempt"`
	Middleware string `json:"middleware"`
	Priority   int    `json:"priority"`
	Skipped    bool   `json:"skipped,omitempty"`
	Cancel     bool   `json:"cancel,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`

	TextChanged  bool `json:"text_changed,omitempty"`
	InTokens     int  `json:"in_tokens_est"`
	OutTokens    int  `json:"out_tokens_est"`
	MaxTokensIn  int  `json:"max_tokens_before,omitempty"`
	MaxTokensOut int  `json:"max_tokens_after,omitempty"`
}

// eventState is what a trace line compares before and after a middleware.
type eventState struct {
	text      string
	maxTokens int
}

func snapshot(e *Event) eventState {
	s := eventState{text: e.text()}
	if e != nil && e.Params != nil {
		s.maxTokens = e.Params.MaxTokens
	}
	return s
}

func (t *traceSink) setWriter(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.w = w
}

func (t *traceSink) record(e *Event, res DecisionResult, before eventState, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w == nil || e == nil {
		return
	}

	after := snapshot(e)
	line := traceLine{
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		Event:        string(e.Name),
		Session:      sessionID(e),
		Attempt:      e.Attempt,
		Middleware:   res.MiddlewareID,
		Priority:     res.Priority,
		Skipped:      res.Skipped,
		Cancel:       res.Decision.Cancel,
		Reason:       res.Decision.Reason,
		TextChanged:  before.text != after.text,
		InTokens:     estimateTokens(before.text),
		OutTokens:    estimateTokens(after.text),
		MaxTokensIn:  before.maxTokens,
		MaxTokensOut: after.maxTokens,
	}
	if err != nil {
		line.Error = err.Error()
	}
	_ = json.NewEncoder(t.w).Encode(line)
}

// estimateTokens is a rough count: words, or a quarter of the runes when
// that is larger.
func estimateTokens(s string) int {
	words := len(strings.Fields(s))
	quarter := (utf8.RuneCountInString(s) + 3) / 4
	if words > quarter {
		return words
	}
	return quarter
}

func sessionID(e *Event) string {
	if e.Context == nil {
		return ""
	}
	id, _ := e.Context["session_id"].(string)
	return id
}
