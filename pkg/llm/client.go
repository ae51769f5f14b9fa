package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/drivelens/drivelens/pkg/types"
)

// ChatRequest is one model invocation. JSONResponse constrains the model to
// emit a single JSON object.
type ChatRequest struct {
	System       string
	User         string
	Temperature  float64
	MaxTokens    int64
	JSONResponse bool
}

// ChatClient is the model surface the rest of the service depends on
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// OpenAIClient implements ChatClient against the OpenAI chat completions API
type OpenAIClient struct {
	client openai.Client
	model  string
}

var _ ChatClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client from config. Returns nil when no API key
// is configured; callers treat a nil client as provider-not-configured.
func NewOpenAIClient(cfg types.OpenAIConfig) *OpenAIClient {
	if !cfg.IsConfigured() {
		return nil
	}
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  cfg.Model,
	}
}

func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	if req.JSONResponse {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// IsRateLimited reports whether the provider throttled the request
func IsRateLimited(err error) bool {
	var apiErr *openai.Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// IsAuthError reports whether the provider rejected our API key
func IsAuthError(err error) bool {
	var apiErr *openai.Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
