// Package openai is the fallback AI service, backed by openai-go.
package openai

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/unkn0wn-root/lingocache/service"
	"github.com/unkn0wn-root/lingocache/svcerr"
)

const (
	Name         = "openai"
	DefaultModel = "gpt-4o-mini"
)

type Config struct {
	APIKey  string
	Model   string // "" => DefaultModel
	BaseURL string // optional, for compatible gateways
}

type Client struct {
	model  string
	client *openai.Client
}

var _ service.Completer = (*Client)(nil)

// New returns the OpenAI-backed service.
func New(cfg Config) *service.LLM {
	c := NewClient(cfg)
	return service.NewLLM(service.LLMConfig{
		Name:      Name,
		Completer: c,
		Probe:     c.Available,
	})
}

func NewClient(cfg Config) *Client {
	c := &Client{model: cfg.Model}
	if c.model == "" {
		c.model = DefaultModel
	}
	if cfg.APIKey == "" {
		return c
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0), // retry.Do owns retries
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	c.client = &client
	return c
}

func (c *Client) Available(context.Context) bool { return c.client != nil }

func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.client == nil {
		return "", svcerr.Unavailable(Name, "OPENAI_API_KEY not configured")
	}
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", classify(err)
	}
	if len(completion.Choices) == 0 {
		e := svcerr.New(svcerr.KindProcessingFailed, "no choices in completion")
		e.Service = Name
		return "", e
	}
	return completion.Choices[0].Message.Content, nil
}

func classify(err error) error {
	var e *svcerr.Error
	var apiErr *openai.Error
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		e = svcerr.Wrap(svcerr.KindTimeout, "request deadline exceeded", err)
	case errors.As(err, &apiErr):
		e = svcerr.Wrap(svcerr.ForStatus(apiErr.StatusCode), http.StatusText(apiErr.StatusCode), err)
	case errors.As(err, &ne):
		e = svcerr.Wrap(svcerr.KindNetwork, "transport error", err)
	default:
		e = svcerr.Wrap(svcerr.KindProcessingFailed, "chat completion failed", err)
	}
	e.Service = Name
	return e
}
