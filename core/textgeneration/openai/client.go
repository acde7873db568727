// Package openai streams responses from OpenAI's responses API. Each
// Generate call runs its own SSE request; in-flight generations are tracked
// by session id so they can be stopped when a speaker is interrupted.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultModel = "gpt-4o-mini"

type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	mu sync.Mutex
	// active tracks the cancel handle of the in-flight generation per session.
	active map[string]context.CancelFunc
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL overrides the API endpoint, for proxies and compatible
// backends.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	apiKey, ok := os.LookupEnv("OPENAI_API_KEY")
	if !ok {
		return nil, fmt.Errorf("openai api key not found")
	}

	client := &Client{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		active: map[string]context.CancelFunc{},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Stop cancels the session's in-flight generation, if any. The generation's
// error callback observes the cancellation.
func (c *Client) Stop(sessionID string) error {
	c.mu.Lock()
	cancel := c.active[sessionID]
	delete(c.active, sessionID)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(c.active))
	for _, cancel := range c.active {
		cancels = append(cancels, cancel)
	}
	c.active = map[string]context.CancelFunc{}
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return nil
}

func (c *Client) track(sessionID string, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if previous := c.active[sessionID]; previous != nil {
		previous()
	}
	c.active[sessionID] = cancel
}

func (c *Client) untrack(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, sessionID)
}
