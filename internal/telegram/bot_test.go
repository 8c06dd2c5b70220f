package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"frieddie/internal/chat"

	"github.com/stretchr/testify/require"
)

type countingResponder struct {
	mu     sync.Mutex
	seen   map[string][]string
	answer string
	err    error
}

func (r *countingResponder) Respond(_ context.Context, t *chat.Transcript, input string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = map[string][]string{}
	}
	r.seen[t.ID()] = append(r.seen[t.ID()], input)
	if r.err != nil {
		return "", r.err
	}
	t.Append(chat.Message{Role: chat.RoleUser, Content: input}, chat.Message{Role: chat.RoleAssistant, Content: r.answer})
	return r.answer, nil
}

func TestOneTranscriptPerChat(t *testing.T) {
	r := &countingResponder{answer: "ok"}
	b := newBot(r)

	require.Equal(t, "ok", b.reply(context.Background(), 1, "hello"))
	require.Equal(t, "ok", b.reply(context.Background(), 1, "find a hike"))
	require.Equal(t, "ok", b.reply(context.Background(), 2, "hi"))

	require.Equal(t, 2, b.sessions.Len())
	require.Len(t, r.seen, 2)
	require.Equal(t, 5, b.sessions.get(1).transcript.Len())
	require.Equal(t, 3, b.sessions.get(2).transcript.Len())
}

func TestReplyHidesErrors(t *testing.T) {
	b := newBot(&countingResponder{err: errors.New("401 from model")})
	require.Equal(t, failureText, b.reply(context.Background(), 7, "hi"))

	b = newBot(&countingResponder{answer: "  "})
	require.Equal(t, emptyText, b.reply(context.Background(), 7, "hi"))
}

type blockingResponder struct {
	started chan struct{}
	err     chan error
}

func (r *blockingResponder) Respond(ctx context.Context, _ *chat.Transcript, _ string) (string, error) {
	close(r.started)
	<-ctx.Done()
	r.err <- ctx.Err()
	return "", ctx.Err()
}

func TestShutdownCancelsTurnInFlight(t *testing.T) {
	r := &blockingResponder{started: make(chan struct{}), err: make(chan error, 1)}
	b := newBot(r)
	ctx, cancel := context.WithCancel(context.Background())
	b.baseCtx = ctx

	done := make(chan string, 1)
	go func() { done <- b.onText(3, "find me a concert") }()

	<-r.started
	cancel()
	select {
	case reply := <-done:
		require.Equal(t, failureText, reply)
	case <-time.After(5 * time.Second):
		t.Fatal("turn was not canceled")
	}
	require.ErrorIs(t, <-r.err, context.Canceled)
}

func TestSessionsClearAndEvict(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions("sys", 30*time.Minute)
	s.now = func() time.Time { return now }

	s.get(1).transcript.Append(chat.Message{Role: chat.RoleUser, Content: "x"})
	require.True(t, s.Clear(1))
	require.Equal(t, 1, s.get(1).transcript.Len())
	require.False(t, s.Clear(99))

	now = now.Add(20 * time.Minute)
	s.get(2)
	now = now.Add(15 * time.Minute)
	require.Equal(t, 1, s.Evict())
	require.Equal(t, 1, s.Len())

	now = now.Add(time.Hour)
	require.Equal(t, 1, s.Evict())
	require.Zero(t, s.Len())
}

func TestNewBotRequiresToken(t *testing.T) {
	_, err := NewBot(" ", &countingResponder{})
	require.Error(t, err)
}

func TestSplitMessage(t *testing.T) {
	require.Nil(t, splitMessage("", 10))
	require.Equal(t, []string{"short"}, splitMessage("short", 10))

	long := strings.Repeat("å", 30) // 2 bytes each
	parts := splitMessage(long, 11)
	require.Equal(t, long, strings.Join(parts, ""))
	for _, p := range parts {
		require.LessOrEqual(t, len(p), 11)
		require.True(t, utf8.ValidString(p))
	}

	lines := "first line\nsecond line\nthird"
	parts = splitMessage(lines, 16)
	require.Equal(t, "first line\n", parts[0])
	require.Equal(t, lines, strings.Join(parts, ""))
}
