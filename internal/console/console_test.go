package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"frieddie/internal/chat"

	"github.com/stretchr/testify/require"
)

type echoResponder struct {
	inputs []string
	err    error
}

func (e *echoResponder) Respond(_ context.Context, t *chat.Transcript, input string) (string, error) {
	e.inputs = append(e.inputs, input)
	if e.err != nil {
		return "", e.err
	}
	t.Append(chat.Message{Role: chat.RoleUser, Content: input})
	answer := "you said " + input
	t.Append(chat.Message{Role: chat.RoleAssistant, Content: answer})
	return answer, nil
}

func run(t *testing.T, r Responder, input string) (string, *Console) {
	t.Helper()
	var out bytes.Buffer
	c := New(r, WithIO(strings.NewReader(input), &out))
	require.NoError(t, c.Run(context.Background()))
	return out.String(), c
}

func TestConsoleAnswersAndSaysGoodbye(t *testing.T) {
	r := &echoResponder{}
	out, c := run(t, r, "Find me a hike\nthank you\nnever read\n")

	require.Equal(t, []string{"Find me a hike"}, r.inputs)
	require.Contains(t, out, "Welcome to the frieddie AI Assistant")
	require.Contains(t, out, "Prompt:")
	require.Contains(t, out, "🤖 frobbie: you said Find me a hike")
	require.Contains(t, out, "🤖 frobbie: "+Farewell)
	require.Equal(t, 3, c.Transcript().Len())
}

func TestConsoleEmptyLineSkipsModel(t *testing.T) {
	r := &echoResponder{}
	_, _ = run(t, r, "\n   \nthank you\n")
	require.Empty(t, r.inputs)
}

func TestConsoleExitPhraseIsExact(t *testing.T) {
	r := &echoResponder{}
	out, _ := run(t, r, "THANK YOU\nThank you!\n  thank you  \n")
	require.Equal(t, []string{"THANK YOU", "Thank you!"}, r.inputs)
	require.Contains(t, out, "you said THANK YOU")
	require.Equal(t, 1, strings.Count(out, Farewell))
}

func TestConsoleErrorsKeepLooping(t *testing.T) {
	r := &echoResponder{err: errors.New("model unavailable")}
	out, _ := run(t, r, "one\ntwo\nthank you\n")
	require.Equal(t, []string{"one", "two"}, r.inputs)
	require.Equal(t, 2, strings.Count(out, "Error: model unavailable"))
}

func TestConsoleClearResetsTranscript(t *testing.T) {
	r := &echoResponder{}
	out, c := run(t, r, "hello there\n/clear\n")
	require.Contains(t, out, "context cleared")
	require.Equal(t, 1, c.Transcript().Len())
}

func TestConsoleEOFSaysGoodbye(t *testing.T) {
	out, _ := run(t, &echoResponder{}, "")
	require.Contains(t, out, Farewell)
}

func TestConsoleStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pr, pw := io.Pipe()
	defer pw.Close()
	c := New(&echoResponder{}, WithIO(pr, &bytes.Buffer{}))
	require.NoError(t, c.Run(ctx))
}
