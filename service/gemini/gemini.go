// Package gemini is the primary AI service, backed by google.golang.org/genai.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/genai"

	"github.com/unkn0wn-root/lingocache/service"
	"github.com/unkn0wn-root/lingocache/svcerr"
)

const (
	Name         = "gemini"
	DefaultModel = "gemini-2.5-flash"
)

type Config struct {
	APIKey string
	Model  string // "" => DefaultModel
}

// Client completes prompts with the Gemini API. A Client without an API key
// reports itself unavailable and never dials out.
type Client struct {
	apiKey string
	model  string
	client *genai.Client
}

var _ service.Completer = (*Client)(nil)

// New returns the Gemini-backed service.
func New(ctx context.Context, cfg Config) (*service.LLM, error) {
	c, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return service.NewLLM(service.LLMConfig{
		Name:      Name,
		Completer: c,
		Probe:     c.Available,
	}), nil
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	c := &Client{apiKey: cfg.APIKey, model: cfg.Model}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.apiKey == "" {
		return c, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	c.client = client
	return c, nil
}

// Available reports whether a key is configured. It does not call the API;
// a dead key surfaces as a terminal error on first use instead.
func (c *Client) Available(context.Context) bool { return c.client != nil }

func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.client == nil {
		return "", svcerr.Unavailable(Name, "GEMINI_API_KEY not configured")
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), cfg)
	if err != nil {
		return "", classify(err)
	}
	return result.Text(), nil
}

func classify(err error) error {
	e := svcerr.As(classifyKind(err))
	e.Service = Name
	return e
}

func classifyKind(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return svcerr.Wrap(svcerr.KindTimeout, "request deadline exceeded", err)
	}
	if errors.Is(err, context.Canceled) {
		return svcerr.Wrap(svcerr.KindProcessingFailed, "request canceled", err)
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	if code != 0 {
		return svcerr.Wrap(svcerr.ForStatus(code), http.StatusText(code), err)
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return svcerr.Wrap(svcerr.KindNetwork, "transport error", err)
	}
	return svcerr.Wrap(svcerr.KindProcessingFailed, "generate content failed", err)
}
