// Package genai provides GenAI-enhanced operations using the OpenAI API.
//
// It wraps chat completions behind a small client used by the intent
// classifier and the response composer. Every call is bounded by a timeout so
// a stalled provider degrades into the pipeline's fallback paths instead of
// hanging a conversation.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 30 * time.Second

// ErrNoChoicesReturned indicates the completion response carried no choices.
var ErrNoChoicesReturned = fmt.Errorf("no choices returned")

// chatService defines the minimal interface for chat completions.
type chatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	// APIKey for the OpenAI API. Falls back to OPENAI_API_KEY.
	APIKey string
	// Model name used for completions.
	Model string
	// Timeout per completion call.
	Timeout time.Duration
}

// Option configures the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the completion model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	chat    chatService
	model   string
	timeout time.Duration
}

// NewClient initializes a new GenAI client. The API key is taken from the
// options or the OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{
		Model:   openai.ChatModelGPT4oMini,
		Timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		slog.Error("GenAI NewClient missing API key")
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("GenAI NewClient initialized", "model", cfg.Model, "timeout", cfg.Timeout)
	return &Client{chat: &cli.Chat.Completions, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// Generate produces a completion for the given system and user prompts.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt, temperature, maxTokens, false)
}

// GenerateStructured produces a completion in JSON mode, for callers that
// parse the model output. The caller is responsible for validating the JSON.
func (c *Client) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt, temperature, maxTokens, true)
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int, jsonMode bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(temperature),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.chat.New(ctx, params)
	if err != nil {
		slog.Error("GenAI complete failed", "error", err, "model", c.model, "json_mode", jsonMode)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("GenAI complete returned no choices", "model", c.model)
		return "", ErrNoChoicesReturned
	}
	slog.Debug("GenAI complete succeeded", "model", c.model, "json_mode", jsonMode)
	return resp.Choices[0].Message.Content, nil
}
