package completion

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"global_explorer/internal/adapters/observability"
	"global_explorer/internal/domain"
)

// OpenAI talks to any OpenAI-compatible chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(baseURL, key, model string, timeout time.Duration) (*OpenAI, error) {
	if key == "" {
		return nil, errors.New("openai: API key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (o *OpenAI) Complete(ctx context.Context, conversation []domain.Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(conversation))
	for _, m := range conversation {
		role := openai.ChatMessageRoleUser
		if m.Role != "user" {
			role = openai.ChatMessageRoleSystem
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: math.SmallestNonzeroFloat32,
		Messages:    msgs,
	})
	status := http.StatusOK
	if err != nil {
		var apiErr *openai.APIError
		status = 0
		if errors.As(err, &apiErr) {
			status = apiErr.HTTPStatusCode
		}
	}
	observability.ObserveExternal("openai", "chat.completions", status, time.Since(start))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
