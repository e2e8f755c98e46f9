package answer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"voxd/internal/fault"
)

const (
	DefaultChatBaseURL = "https://api.mistral.ai/v1/"
	DefaultChatModel   = "mistral-small-latest"

	DefaultChatTemperature = 0.7
)

type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
	HTTPClient  *http.Client
}

// Chat talks to any OpenAI-compatible chat-completions endpoint. Retries are
// disabled: a failure here falls through to the next tier instead.
type Chat struct {
	client openai.Client
	cfg    ChatConfig
}

func NewChat(cfg ChatConfig) *Chat {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultChatBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 100
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultChatTemperature
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Chat{client: openai.NewClient(opts...), cfg: cfg}
}

func (c *Chat) Complete(ctx context.Context, system, user string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       openai.ChatModel(c.cfg.Model),
		MaxTokens:   openai.Int(c.cfg.MaxTokens),
		Temperature: openai.Float(c.cfg.Temperature),
	}

	log.Debug("Querying chat model", "model", c.cfg.Model)

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyChatErr(err)
	}

	if len(resp.Choices) == 0 {
		return "", fault.Provider("llm", fault.KindBadResponse, errors.New("no choices in response"))
	}

	return resp.Choices[0].Message.Content, nil
}

func classifyChatErr(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fault.Provider("llm", fault.KindOf(fault.FromStatus("llm", apiErr.StatusCode)),
			fmt.Errorf("chat completion: %w", err))
	}
	return fault.FromTransport("llm", fmt.Errorf("chat completion: %w", err))
}
