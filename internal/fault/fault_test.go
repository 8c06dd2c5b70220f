package fault

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := BadFunctionArgs("invalid JSON", errors.New("unexpected end"))
	wrapped := fmt.Errorf("dispatch get_events: %w", base)

	if !Is(wrapped, KindBadFunctionArgs) {
		t.Fatalf("expected bad_function_args, got %q", KindOf(wrapped))
	}
	if Is(wrapped, KindModelCallFailed) {
		t.Fatalf("did not expect model_call_failed")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no kind")
	}
}

func TestFromContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := FromContext(ctx, KindModelCallFailed, "model call", ctx.Err())
	if !Is(err, KindTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestFromContextKeepsExistingKind(t *testing.T) {
	orig := BackendCallFailed("graphql", errors.New("503"))
	err := FromContext(context.Background(), KindModelCallFailed, "ignored", orig)
	if err != orig {
		t.Fatalf("expected original error back, got %v", err)
	}

	err = FromContext(context.Background(), KindModelCallFailed, "model call", errors.New("boom"))
	if !Is(err, KindModelCallFailed) {
		t.Fatalf("expected fallback kind, got %v", err)
	}
	if err.Error() != "model_call_failed: model call: boom" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
