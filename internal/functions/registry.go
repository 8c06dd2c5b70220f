package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"

	"frieddie/internal/fault"

	"github.com/tmc/langchaingo/llms"
)

// UnknownFunctionResult is handed back to the model, as a normal function
// result, when it asks for a name nobody registered.
const UnknownFunctionResult = "Something went wrong."

// Function is one capability the model may call.
type Function interface {
	// Name returns the unique name the model uses (e.g. "get_events").
	Name() string
	// Description returns a human-readable description for the LLM.
	Description() string
	// Parameters returns the JSON schema for the arguments as a map.
	Parameters() map[string]any
	// Execute runs the function. Non-string results are JSON encoded.
	Execute(ctx context.Context, args map[string]any) (any, error)
}

// Registry holds the available functions.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]Function
	logger    *log.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		functions: make(map[string]Function),
		logger:    log.New(io.Discard, "", 0),
	}
}

func (r *Registry) SetLogger(l *log.Logger) {
	if l != nil {
		r.logger = l
	}
}

func (r *Registry) Register(f Function) error {
	if f == nil {
		return fmt.Errorf("function is nil")
	}
	name := f.Name()
	if name == "" {
		return fmt.Errorf("function name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.functions[name]; exists {
		return fmt.Errorf("function %s already registered", name)
	}
	r.functions[name] = f
	return nil
}

func (r *Registry) Get(name string) (Function, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.functions[name]
	if !ok {
		return nil, fault.New(fault.KindUnknownFunction, fmt.Sprintf("function %q is not registered", name), nil)
	}
	return f, nil
}

// List returns the registered functions sorted by name, so the catalog sent
// to the model is stable between calls.
func (r *Registry) List() []Function {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Function, 0, len(r.functions))
	for _, f := range r.functions {
		list = append(list, f)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

func (r *Registry) Tools() []llms.Tool {
	list := r.List()
	tools := make([]llms.Tool, 0, len(list))
	for _, f := range list {
		tools = append(tools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        f.Name(),
				Description: f.Description(),
				Parameters:  f.Parameters(),
			},
		})
	}
	return tools
}

// Dispatch parses rawArgs, validates them against the function's schema and
// runs it. Unknown names are not an error: the model gets
// UnknownFunctionResult and can correct itself.
func (r *Registry) Dispatch(ctx context.Context, name, rawArgs string) (string, error) {
	args, err := parseArgs(rawArgs)
	if err != nil {
		return "", fault.BadFunctionArgs(fmt.Sprintf("arguments for %s are not a JSON object", name), err)
	}

	f, err := r.Get(name)
	if err != nil {
		r.logger.Printf("[Functions] %v", err)
		return UnknownFunctionResult, nil
	}

	if err := Validate(args, f.Parameters()); err != nil {
		return "", fault.BadFunctionArgs(fmt.Sprintf("arguments for %s", name), err)
	}

	r.logger.Printf("[Functions] calling %s ...", name)
	result, err := f.Execute(ctx, args)
	if err != nil {
		return "", err
	}
	return stringify(result)
}

func parseArgs(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func stringify(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode function result: %w", err)
	}
	return string(b), nil
}
