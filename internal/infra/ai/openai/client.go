package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/call-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/call-analyzer/internal/infra/ai/prompt"
)

const (
	DefaultModel               = "llama-3.3-70b-versatile"
	DefaultBaseURL             = "https://api.groq.com/openai/v1"
	DefaultTimeout             = 30 * time.Second
	DefaultMaxCompletionTokens = 300
)

// Options configures NewClient. Zero values fall back to the defaults above.
type Options struct {
	APIKey              string
	Model               string
	BaseURL             string
	Timeout             time.Duration
	MaxCompletionTokens int
	HTTPClient          *http.Client
}

// Client talks to any OpenAI-compatible chat completion endpoint.
type Client struct {
	api                 *openai.Client
	Model               string
	MaxCompletionTokens int
	Timeout             time.Duration

	configErr error
}

// NewClient never fails; a missing API key is recorded and returned by every
// Complete call before any request is built.
func NewClient(opts Options) *Client {
	c := &Client{
		Model:               opts.Model,
		MaxCompletionTokens: opts.MaxCompletionTokens,
		Timeout:             opts.Timeout,
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxCompletionTokens <= 0 {
		c.MaxCompletionTokens = DefaultMaxCompletionTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		c.configErr = fmt.Errorf("%w: API_KEY not set in environment", analysis.ErrConfiguration)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = DefaultBaseURL
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	c.api = openai.NewClientWithConfig(cfg)
	return c
}

// Err reports the configuration problem detected at construction, if any.
func (c *Client) Err() error { return c.configErr }

// Complete sends one chat completion for the transcript and returns the reply text.
func (c *Client) Complete(ctx context.Context, transcript string) (string, error) {
	if c.configErr != nil {
		return "", c.configErr
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(transcript)},
		},
		// go-openai drops a literal 0 (omitempty)
		Temperature:         math.SmallestNonzeroFloat32,
		MaxCompletionTokens: c.MaxCompletionTokens,
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.upstreamError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", analysis.ErrEmptyResponse)
	}

	content := messageText(resp.Choices[0].Message)
	if content == "" {
		return "", analysis.ErrEmptyResponse
	}
	return content, nil
}

// messageText prefers the plain content string and falls back to the text
// parts of array-form content.
func messageText(msg openai.ChatCompletionMessage) string {
	if msg.Content != "" {
		return msg.Content
	}
	var b strings.Builder
	for _, part := range msg.MultiContent {
		if part.Type == openai.ChatMessagePartTypeText {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func (c *Client) upstreamError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %s", analysis.ErrUpstream, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: status %d: %v", analysis.ErrUpstream, reqErr.HTTPStatusCode, reqErr)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out after %s", analysis.ErrUpstream, c.Timeout)
	}
	return fmt.Errorf("%w: %v", analysis.ErrUpstream, err)
}
