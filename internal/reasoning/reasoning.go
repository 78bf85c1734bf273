// Package reasoning sends prompts, optionally with an image, to a hosted
// language model and returns the raw text answer.
package reasoning

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mj1618/deskctl/internal/model"
)

const (
	DefaultTextModel   = "claude-haiku-4-5"
	DefaultVisionModel = "claude-sonnet-4-5"
	DefaultMaxTokens   = 4096
	DefaultTimeout     = 60 * time.Second
)

// ErrNoAPIKey is returned when a reasoning client is requested without credentials.
var ErrNoAPIKey = errors.New("no API key configured (set ANTHROPIC_API_KEY or DESKCTL_API_KEY)")

// Prompt is one request to a model.
type Prompt struct {
	Text string
	// Image is optional PNG data sent before the text.
	Image     []byte
	MediaType string
}

// Reasoner answers prompts.
type Reasoner interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Func adapts a function to Reasoner.
type Func func(ctx context.Context, p Prompt) (string, error)

func (f Func) Complete(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}

// Config selects the endpoint and model.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// Client is a Reasoner backed by the Anthropic Messages API.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// New creates a Client. A missing API key is a configuration error.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, model.NewError(model.KindConfiguration, "reasoning", ErrNoAPIKey)
	}
	if cfg.Model == "" {
		return nil, model.Errorf(model.KindConfiguration, "reasoning", "no model configured")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:       anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Complete sends p and concatenates the text blocks of the answer.
func (c *Client) Complete(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var blocks []anthropic.ContentBlockParamUnion
	if len(p.Image) > 0 {
		mediaType := p.MediaType
		if mediaType == "" {
			mediaType = "image/png"
		}
		blocks = append(blocks, anthropic.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(p.Image)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(p.Text))

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.model, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%s: empty response", c.model)
	}
	return sb.String(), nil
}
