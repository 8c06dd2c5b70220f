// Package fault classifies the failures that cross package boundaries so front
// ends can decide how to render them.
package fault

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindModelCallFailed   Kind = "model_call_failed"
	KindBackendCallFailed Kind = "backend_call_failed"
	KindBadFunctionArgs   Kind = "bad_function_args"
	KindUnknownFunction   Kind = "unknown_function"
	KindLoopExceeded      Kind = "loop_exceeded"
	KindTimeout           Kind = "timeout"
)

type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func New(kind Kind, message string, cause error) error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

func BackendCallFailed(message string, cause error) error {
	return New(KindBackendCallFailed, message, cause)
}

func BadFunctionArgs(message string, cause error) error {
	return New(KindBadFunctionArgs, message, cause)
}

// KindOf returns the kind of the outermost *Error in err's chain, or "" when
// err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromContext reports a Timeout when ctx expired, otherwise wraps err with
// the fallback kind unless it is already classified.
func FromContext(ctx context.Context, fallback Kind, message string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return New(KindTimeout, message, err)
	}
	if KindOf(err) != "" {
		return err
	}
	return New(fallback, message, err)
}
