package client

import (
	"context"
	"fmt"

	"github.com/minsupark/paperlens/core/parse"
	"github.com/minsupark/paperlens/internal/jsonschema"
	"github.com/minsupark/paperlens/providers/ai"
	"github.com/minsupark/paperlens/providers/observability"
)

// Client wraps a Provider with a fixed model, an optional system prompt and
// generation settings. It is the unit handed to pipeline nodes; each node may
// carry its own Client backed by a different model.
type Client struct {
	provider     ai.Provider
	model        string
	systemPrompt string
	generation   *ai.GenerationConfig
	observer     observability.Logger
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithModel sets the model identifier sent with every request.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithSystemPrompt sets a system prompt prepended to every request.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

// WithGenerationConfig sets sampling parameters for every request.
func WithGenerationConfig(config ai.GenerationConfig) Option {
	return func(c *Client) { c.generation = &config }
}

// WithObserver sets the logger used to trace request lifecycles.
func WithObserver(observer observability.Logger) Option {
	return func(c *Client) { c.observer = observer }
}

// New creates a Client bound to the given provider.
func New(provider ai.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}

	c := &Client{
		provider: provider,
		observer: observability.NoopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return c, nil
}

// Model returns the model identifier the client is bound to.
func (c *Client) Model() string {
	return c.model
}

// Invoke sends a single user prompt and returns the raw text response.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	response, err := c.send(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

// InvokeAs sends a single user prompt requesting structured output shaped by
// T and parses the response into it. The JSON schema is generated from T via
// reflection and passed as the provider's response format.
func InvokeAs[T any](ctx context.Context, c *Client, prompt string) (*T, error) {
	schema := jsonschema.GenerateJSONSchema[T]()

	response, err := c.send(ctx, prompt, &ai.ResponseFormat{
		OutputSchema: schema,
		Strict:       true,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := parse.ParseStringAs[T](response.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse structured response: %w", err)
	}

	return &parsed, nil
}

func (c *Client) send(ctx context.Context, prompt string, format *ai.ResponseFormat) (*ai.ChatResponse, error) {
	request := ai.ChatRequest{
		Model:            c.model,
		SystemPrompt:     c.systemPrompt,
		ResponseFormat:   format,
		GenerationConfig: c.generation,
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: prompt},
		},
	}

	c.observer.Debug(ctx, "sending chat request",
		observability.String("model", c.model),
		observability.Int("prompt_length", len(prompt)),
		observability.Bool("structured", format != nil),
	)

	response, err := c.provider.SendMessage(ctx, request)
	if err != nil {
		c.observer.Error(ctx, "chat request failed",
			observability.String("model", c.model),
			observability.Error(err),
		)
		return nil, err
	}

	attrs := []observability.Attribute{
		observability.String("model", c.model),
		observability.Int("response_length", len(response.Content)),
	}
	if response.Usage != nil {
		attrs = append(attrs, observability.Int("total_tokens", response.Usage.TotalTokens))
	}
	c.observer.Debug(ctx, "received chat response", attrs...)

	return response, nil
}
