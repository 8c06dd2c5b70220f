package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"frieddie/internal/chat"
	"frieddie/internal/middleware"

	openai "github.com/sashabaranov/go-openai"
)

// FunctionsAdapter talks to the chat completions endpoint using the
// "functions" / "function_call" request fields and reads the
// "function_call" finish reason, for models that predate tool calling.
type FunctionsAdapter struct {
	client *openai.Client
	model  string
}

func NewFunctionsAdapter(model, baseURL, apiKey string) *FunctionsAdapter {
	if model == "" {
		model = DefaultModel
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &FunctionsAdapter{client: openai.NewClientWithConfig(cfg), model: model}
}

func (a *FunctionsAdapter) Complete(ctx context.Context, history []chat.Message, params *middleware.LLMParams) (chat.Reply, error) {
	req := openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: toOpenAIMessages(history),
	}
	if params != nil {
		if params.Model != "" {
			req.Model = params.Model
		}
		req.MaxTokens = params.MaxTokens
		req.Temperature = float32(params.Temperature)
		req.TopP = float32(params.TopP)
		for _, t := range params.Tools {
			if t.Function == nil {
				continue
			}
			req.Functions = append(req.Functions, openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			})
		}
		if len(req.Functions) > 0 {
			req.FunctionCall = functionCallMode(params.ToolChoice)
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return chat.Reply{}, fmt.Errorf("openai status %d: %w", apiErr.HTTPStatusCode, err)
		}
		return chat.Reply{}, err
	}
	if len(resp.Choices) == 0 {
		return chat.Reply{}, fmt.Errorf("empty response from model")
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonFunctionCall && choice.Message.FunctionCall != nil {
		return chat.Reply{
			Content: choice.Message.Content,
			FunctionCall: &chat.FunctionCall{
				Name:      choice.Message.FunctionCall.Name,
				Arguments: choice.Message.FunctionCall.Arguments,
			},
		}, nil
	}
	return chat.Reply{Content: choice.Message.Content}, nil
}

func functionCallMode(choice any) any {
	if s, ok := choice.(string); ok && s != "" {
		return s
	}
	return "auto"
}

func toOpenAIMessages(history []chat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		msg := openai.ChatCompletionMessage{Content: m.Content}
		switch m.Role {
		case chat.RoleSystem:
			msg.Role = openai.ChatMessageRoleSystem
		case chat.RoleUser:
			msg.Role = openai.ChatMessageRoleUser
		case chat.RoleAssistant:
			msg.Role = openai.ChatMessageRoleAssistant
			if fc := m.FunctionCall; fc != nil {
				msg.FunctionCall = &openai.FunctionCall{Name: fc.Name, Arguments: fc.Arguments}
			}
		case chat.RoleFunction:
			msg.Role = openai.ChatMessageRoleFunction
			msg.Name = m.Name
		default:
			continue
		}
		out = append(out, msg)
	}
	return out
}
