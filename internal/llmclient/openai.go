package llmclient

import (
	"context"
	"net/http"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"

	"github.com/verdana-eu/verdana-agent/internal/apperr"
)

// OpenAICompatClient talks to any OpenAI-chat-completions-compatible
// endpoint via the official SDK, grounded on manifold's
// internal/llm/openai client and schema construction idiom.
type OpenAICompatClient struct {
	sdk   openai.Client
	model string
}

// NewOpenAICompatClient constructs a client against baseURL (empty means the
// default OpenAI endpoint) using apiKey for bearer auth. timeout bounds every
// request's underlying HTTP client (option.WithHTTPClient), grounded on
// manifold's internal/llm/openai client construction — the SDK sets no
// timeout of its own, so a hung call would otherwise block indefinitely.
func NewOpenAICompatClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAICompatClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithHTTPClient(&http.Client{Timeout: timeout})}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAICompatClient{sdk: openai.NewClient(opts...), model: model}
}

func (c *OpenAICompatClient) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: adaptMessages(messages),
	}
	if opts.Temperature > 0 {
		params.Temperature = param.NewOpt(opts.Temperature)
	}
	if opts.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(opts.MaxOutputTokens))
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", apperr.New(apperr.KindLLM, "call openai chat completions api", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.New(apperr.KindLLM, "openai chat completions returned no choices", nil)
	}

	return resp.Choices[0].Message.Content, nil
}

func adaptMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
