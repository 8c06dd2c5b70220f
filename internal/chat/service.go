package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"frieddie/internal/fault"
	"frieddie/internal/middleware"

	"github.com/google/uuid"
)

const (
	DefaultMaxDepth    = 8
	DefaultMaxTokens   = 100
	DefaultCallTimeout = 30 * time.Second
)

// Service drives one turn of a conversation: model call, optional function
// dispatch, model call again, until the model answers in plain text.
type Service struct {
	adapter     Adapter
	functions   Dispatcher
	mws         *middleware.Chain
	maxDepth    int
	maxTokens   int
	tokenBudget int
	callTimeout time.Duration
	logger      *log.Logger
}

type ServiceOption func(*Service)

func WithMiddlewareChain(chain *middleware.Chain) ServiceOption {
	return func(s *Service) {
		s.mws = chain
	}
}

// WithMaxDepth bounds how many functions one turn may dispatch.
func WithMaxDepth(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

func WithMaxTokens(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithTokenBudget sets the default "token_budget" middleware context entry
// for turns that do not bring their own.
func WithTokenBudget(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.tokenBudget = n
		}
	}
}

// WithCallTimeout limits each individual model call and function dispatch.
func WithCallTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

func WithLogger(l *log.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(adapter Adapter, functions Dispatcher, opts ...ServiceOption) *Service {
	s := &Service{
		adapter:     adapter,
		functions:   functions,
		maxDepth:    DefaultMaxDepth,
		maxTokens:   DefaultMaxTokens,
		callTimeout: DefaultCallTimeout,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Respond(ctx context.Context, t *Transcript, input string) (string, error) {
	return s.RespondWithContext(ctx, t, input, nil)
}

// RespondWithContext appends input (when non-blank) as a user message and
// loops until the model produces final text, which is appended and returned.
// On failure the transcript keeps whatever was appended before the error.
// mwCtx is forwarded to middlewares; a "token_budget" entry there wins over
// the service default.
func (s *Service) RespondWithContext(ctx context.Context, t *Transcript, input string, mwCtx map[string]any) (string, error) {
	if t == nil {
		return "", errors.New("nil transcript")
	}
	input = strings.TrimSpace(input)
	mwCtx = s.middlewareContext(t, mwCtx)

	for depth := 0; ; depth++ {
		params, text, canceled, err := s.before(ctx, input, depth, mwCtx)
		if err != nil {
			return "", err
		}
		if depth == 0 {
			if canceled != nil {
				return s.shortCircuit(t, input, text, canceled)
			}
			input = text
			if input != "" {
				t.Append(Message{Role: RoleUser, Content: input})
			}
		}

		reply, err := s.complete(ctx, t, params, depth)
		if err != nil {
			return "", err
		}

		if reply.FunctionCall == nil {
			answer, err := s.finish(ctx, input, reply.Content, params, depth, mwCtx)
			if err != nil {
				return "", err
			}
			t.Append(Message{Role: RoleAssistant, Content: answer})
			return answer, nil
		}

		if depth >= s.maxDepth {
			return "", fault.New(fault.KindLoopExceeded,
				fmt.Sprintf("model kept requesting functions after %d dispatches", s.maxDepth), nil)
		}

		call := *reply.FunctionCall
		if call.ID == "" {
			call.ID = "call_" + uuid.NewString()
		}
		t.Append(Message{Role: RoleAssistant, Content: reply.Content, FunctionCall: &call})

		result, err := s.dispatch(ctx, call)
		if err != nil {
			return "", err
		}
		t.Append(Message{Role: RoleFunction, Name: call.Name, Content: result, CallID: call.ID})
	}
}

func (s *Service) middlewareContext(t *Transcript, mwCtx map[string]any) map[string]any {
	out := make(map[string]any, len(mwCtx)+2)
	for k, v := range mwCtx {
		out[k] = v
	}
	if _, ok := out["session_id"]; !ok {
		out["session_id"] = t.ID()
	}
	if _, ok := out["token_budget"]; !ok && s.tokenBudget > 0 {
		out["token_budget"] = s.tokenBudget
	}
	return out
}

// before runs before_llm_request ahead of model call number attempt. Only
// the first call of a turn carries user text, so only it can be rewritten or
// answered by a middleware; later calls still get their params adjusted.
func (s *Service) before(ctx context.Context, input string, attempt int, mwCtx map[string]any) (*middleware.LLMParams, string, *middleware.Decision, error) {
	params := s.baseParams()
	if s.mws == nil {
		return params, input, nil, nil
	}
	e := &middleware.Event{
		Name:    middleware.EventBeforeLLMRequest,
		Params:  params,
		Attempt: attempt,
		Context: mwCtx,
	}
	if attempt == 0 {
		e.UserText = input
	}
	results, err := s.mws.Dispatch(ctx, e)
	if err != nil {
		return nil, "", nil, err
	}
	if e.Params != nil {
		params = e.Params
	}
	text, canceled := middleware.FoldText(input, results)
	if attempt > 0 {
		if canceled != nil {
			return nil, "", nil, canceledErr(canceled, "request canceled by middleware")
		}
		return params, input, nil, nil
	}
	return params, text, canceled, nil
}

// shortCircuit answers a turn from a middleware decision without a model call.
func (s *Service) shortCircuit(t *Transcript, input, text string, dec *middleware.Decision) (string, error) {
	if dec.ReplaceText == nil || text == "" {
		return "", canceledErr(dec, "request canceled by middleware")
	}
	if input != "" {
		t.Append(Message{Role: RoleUser, Content: input})
	}
	t.Append(Message{Role: RoleAssistant, Content: text})
	return text, nil
}

func canceledErr(dec *middleware.Decision, fallback string) error {
	if strings.TrimSpace(dec.Reason) == "" {
		return errors.New(fallback)
	}
	return errors.New(dec.Reason)
}

func (s *Service) baseParams() *middleware.LLMParams {
	params := &middleware.LLMParams{
		MaxTokens:  s.maxTokens,
		ToolChoice: "auto",
	}
	if s.functions != nil {
		params.Tools = s.functions.Tools()
	}
	return params
}

func (s *Service) complete(ctx context.Context, t *Transcript, params *middleware.LLMParams, depth int) (Reply, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	s.logger.Printf("[Orchestrator] session=%s calling model (depth=%d, messages=%d)", t.ID(), depth, t.Len())
	reply, err := s.adapter.Complete(callCtx, t.Messages(), params)
	if err != nil {
		return Reply{}, fault.FromContext(callCtx, fault.KindModelCallFailed, "model call", err)
	}
	if reply.FunctionCall == nil && strings.TrimSpace(reply.Content) == "" {
		return Reply{}, fault.New(fault.KindModelCallFailed, "empty response from model", nil)
	}
	return reply, nil
}

func (s *Service) dispatch(ctx context.Context, call FunctionCall) (string, error) {
	if s.functions == nil {
		return "", fault.New(fault.KindUnknownFunction, "no functions registered", nil)
	}
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	s.logger.Printf("[Orchestrator] calling %s ...", call.Name)
	result, err := s.functions.Dispatch(callCtx, call.Name, call.Arguments)
	if err != nil {
		return "", fault.FromContext(callCtx, fault.KindBackendCallFailed, "dispatch "+call.Name, err)
	}
	return result, nil
}

func (s *Service) finish(ctx context.Context, input, answer string, params *middleware.LLMParams, depth int, mwCtx map[string]any) (string, error) {
	answer = strings.TrimSpace(answer)
	if s.mws == nil {
		return answer, nil
	}
	e := &middleware.Event{
		Name:     middleware.EventAfterLLMResponse,
		UserText: input,
		LLMText:  answer,
		Params:   params,
		Attempt:  depth + 1,
		Context:  mwCtx,
	}
	results, err := s.mws.Dispatch(ctx, e)
	if err != nil {
		return "", err
	}
	updated, canceled := middleware.FoldText(answer, results)
	if canceled != nil && updated == "" {
		return "", canceledErr(canceled, "response canceled by middleware")
	}
	return updated, nil
}
