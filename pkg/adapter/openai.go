package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIAdapter implements the Adapter interface for OpenAI models.
type OpenAIAdapter struct {
	client openai.Client
}

// NewOpenAIAdapter creates a new OpenAI adapter.
func NewOpenAIAdapter(apiKey string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIAdapter{client: client}, nil
}

// Name returns the adapter identifier.
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Models returns the list of supported OpenAI models.
func (a *OpenAIAdapter) Models() []string {
	return []string{
		"gpt-5.2-instant",
		"gpt-5.2-thinking",
		"gpt-5.2-pro",
	}
}

// Complete sends the conversation to OpenAI and returns the response.
func (a *OpenAIAdapter) Complete(ctx context.Context, req *Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(req.Model),
		Messages:            openaiMessages(req),
		MaxCompletionTokens: openai.Int(int64(maxTokensOrDefault(req))),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, a.wrap(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &ProviderError{
			Provider: a.Name(),
			Code:     CodeGeneric,
			Message:  "openai returned no choices",
		}
	}

	return &Response{
		Content:  resp.Choices[0].Message.Content,
		Model:    req.Model,
		Provider: a.Name(),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (a *OpenAIAdapter) wrap(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &ProviderError{
			Provider: a.Name(),
			Code:     codeFromStatus(apierr.StatusCode),
			Message:  fmt.Sprintf("openai API error (status %d)", apierr.StatusCode),
			Err:      err,
		}
	}
	return Classify(a.Name(), err)
}

func openaiMessages(req *Request) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
