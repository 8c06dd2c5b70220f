package llm

import (
	"context"
	"fmt"

	"frieddie/internal/chat"
	"frieddie/internal/middleware"

	"github.com/tmc/langchaingo/llms"
)

// LangChainAdapter speaks the tool-calling API of any langchaingo model.
type LangChainAdapter struct {
	client llms.Model
	model  string
}

func NewLangChainAdapter(client llms.Model, model string) *LangChainAdapter {
	return &LangChainAdapter{client: client, model: model}
}

func (a *LangChainAdapter) Complete(ctx context.Context, history []chat.Message, params *middleware.LLMParams) (chat.Reply, error) {
	messages := convertHistory(history)

	resp, err := a.client.GenerateContent(ctx, messages, callOptions(a.model, params)...)
	if err != nil {
		return chat.Reply{}, err
	}
	if len(resp.Choices) == 0 {
		return chat.Reply{}, fmt.Errorf("empty response from model")
	}

	choice := resp.Choices[0]
	reply := chat.Reply{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		// One function per turn; the model sees the result before deciding on more.
		reply.FunctionCall = &chat.FunctionCall{
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: tc.FunctionCall.Arguments,
		}
		break
	}
	if reply.FunctionCall == nil && choice.FuncCall != nil && isFunctionCallReason(choice.StopReason) {
		reply.FunctionCall = &chat.FunctionCall{
			Name:      choice.FuncCall.Name,
			Arguments: choice.FuncCall.Arguments,
		}
	}
	return reply, nil
}

func isFunctionCallReason(reason string) bool {
	switch reason {
	case "function_call", "tool_calls", "tool_use":
		return true
	}
	return false
}

func callOptions(model string, params *middleware.LLMParams) []llms.CallOption {
	opts := make([]llms.CallOption, 0, 8)
	if model != "" {
		opts = append(opts, llms.WithModel(model))
	}
	if params == nil {
		return opts
	}
	if params.Model != "" {
		opts = append(opts, llms.WithModel(params.Model))
	}
	if params.Temperature != 0 {
		opts = append(opts, llms.WithTemperature(params.Temperature))
	}
	if params.TopP != 0 {
		opts = append(opts, llms.WithTopP(params.TopP))
	}
	if params.MaxTokens != 0 {
		opts = append(opts, llms.WithMaxTokens(params.MaxTokens))
	}
	if len(params.Tools) > 0 {
		opts = append(opts, llms.WithTools(params.Tools))
		if params.ToolChoice != nil {
			opts = append(opts, llms.WithToolChoice(params.ToolChoice))
		}
	}
	return opts
}

// convertHistory maps the transcript onto langchaingo messages. Function
// results are sent as tool responses; history supplied by clients may lack
// call IDs, so missing ones are paired with the preceding call.
func convertHistory(history []chat.Message) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(history))
	pending := ""
	for i, m := range history {
		switch m.Role {
		case chat.RoleSystem:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case chat.RoleUser:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case chat.RoleAssistant:
			var parts []llms.ContentPart
			if m.Content != "" {
				parts = append(parts, llms.TextPart(m.Content))
			}
			if fc := m.FunctionCall; fc != nil {
				id := fc.ID
				if id == "" {
					id = fmt.Sprintf("call_%d", i)
				}
				pending = id
				parts = append(parts, llms.ToolCall{
					ID:   id,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      fc.Name,
						Arguments: fc.Arguments,
					},
				})
			}
			// If both empty, add a space to avoid error
			if len(parts) == 0 {
				parts = append(parts, llms.TextPart(" "))
			}
			messages = append(messages, llms.MessageContent{
				Role:  llms.ChatMessageTypeAI,
				Parts: parts,
			})
		case chat.RoleFunction:
			id := m.CallID
			if id == "" {
				id = pending
			}
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: id,
						Name:       m.Name,
						Content:    m.Content,
					},
				},
			})
		}
	}
	return messages
}
