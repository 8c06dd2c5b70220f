package llm

import (
	"context"
	"testing"

	"frieddie/internal/chat"
	"frieddie/internal/middleware"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	resp     *llms.ContentResponse
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, o := range options {
		o(&m.opts)
	}
	return m.resp, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLangChainAdapterToolCall(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		StopReason: "tool_calls",
		ToolCalls: []llms.ToolCall{{
			ID:   "call_1",
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      "get_events",
				Arguments: `{"location":"Malmö, Sweden","category":"hike"}`,
			},
		}},
	}}}}
	a := NewLangChainAdapter(model, "gpt-test")

	tools := []llms.Tool{{Type: "function", Function: &llms.FunctionDefinition{Name: "get_events"}}}
	reply, err := a.Complete(context.Background(), []chat.Message{
		{Role: chat.RoleSystem, Content: "sys"},
		{Role: chat.RoleUser, Content: "hikes in Malmö?"},
	}, &middleware.LLMParams{MaxTokens: 100, Tools: tools, ToolChoice: "auto"})
	require.NoError(t, err)
	require.NotNil(t, reply.FunctionCall)
	require.Equal(t, "get_events", reply.FunctionCall.Name)
	require.Equal(t, "call_1", reply.FunctionCall.ID)

	require.Equal(t, "gpt-test", model.opts.Model)
	require.Equal(t, 100, model.opts.MaxTokens)
	require.Len(t, model.opts.Tools, 1)
	require.Equal(t, "auto", model.opts.ToolChoice)
	require.Len(t, model.messages, 2)
	require.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
}

func TestLangChainAdapterFinalText(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:    "Here are two hikes near you.",
		StopReason: "stop",
	}}}}
	reply, err := NewLangChainAdapter(model, "").Complete(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Nil(t, reply.FunctionCall)
	require.Equal(t, "Here are two hikes near you.", reply.Content)
}

func TestLangChainAdapterEmptyChoices(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{}}
	_, err := NewLangChainAdapter(model, "").Complete(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestConvertHistoryPairsCallIDs(t *testing.T) {
	msgs := convertHistory([]chat.Message{
		{Role: chat.RoleSystem, Content: "sys"},
		{Role: chat.RoleUser, Content: "who are my frieddies?"},
		{Role: chat.RoleAssistant, FunctionCall: &chat.FunctionCall{Name: "get_frieddies", Arguments: "{}"}},
		{Role: chat.RoleFunction, Name: "get_frieddies", Content: `[{"firstName":"Ada"}]`},
	})
	require.Len(t, msgs, 4)

	call, ok := msgs[2].Parts[0].(llms.ToolCall)
	require.True(t, ok)
	require.Equal(t, "call_2", call.ID)

	resp, ok := msgs[3].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	require.Equal(t, llms.ChatMessageTypeTool, msgs[3].Role)
	require.Equal(t, call.ID, resp.ToolCallID)
	require.Equal(t, "get_frieddies", resp.Name)
}

func TestNewAdapterUnknownProvider(t *testing.T) {
	_, err := NewAdapter(Options{Provider: "carrier-pigeon"})
	require.Error(t, err)
}
