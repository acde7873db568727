package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/koscakluka/roundtable-core/core/textgeneration"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/responses"

	eventPrefix = "event:"
	chunkPrefix = "data:"
)

type requestBody struct {
	Model        string          `json:"model"`
	Input        []openAIMessage `json:"input"`
	Instructions string          `json:"instructions,omitempty"`
	Stream       bool            `json:"stream"`
}

type openAIMessage struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate streams a response to the prompt through the configured callbacks.
// The call blocks until the stream ends, is stopped, or fails; fragments are
// delivered in order as they arrive.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...textgeneration.GenerationOption) error {
	options := textgeneration.GenerationOptions{
		FragmentCallback:  func(string, string) {},
		CompletedCallback: func(string, string) {},
		ErrorCallback:     func(string, error) {},
	}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, cancel := context.WithCancel(ctx)
	c.track(options.SessionID, cancel)
	defer c.untrack(options.SessionID)
	defer cancel()

	reqBody := requestBody{
		Model: c.model,
		Input: []openAIMessage{{
			Type:    "message",
			Role:    "user",
			Content: prompt,
		}},
		Instructions: options.Instructions,
		Stream:       true,
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return fmt.Errorf("error creating HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		options.ErrorCallback(options.SessionID, err)
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		options.ErrorCallback(options.SessionID, err)
		return err
	}

	var response strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		chunk := strings.TrimSpace(scanner.Text())
		if len(chunk) == 0 {
			continue
		}
		if !strings.HasPrefix(chunk, eventPrefix) {
			continue
		}
		event := strings.TrimSpace(strings.TrimPrefix(chunk, eventPrefix))

		scanner.Scan()
		chunk = strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))

		switch streamingEventType(event) {
		case streamingEventResponseOutputTextDelta:
			var responseBody streamingBodyResponseTextDelta
			if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
				options.ErrorCallback(options.SessionID, fmt.Errorf("error unmarshalling JSON: %w", err))
				continue
			}
			response.WriteString(responseBody.Delta)
			options.FragmentCallback(options.SessionID, responseBody.Delta)

		case streamingEventResponseCompleted:
			options.CompletedCallback(options.SessionID, response.String())
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		options.ErrorCallback(options.SessionID, err)
		return fmt.Errorf("error reading streamed response: %w", err)
	}

	// The stream ended without a completion event, most likely because the
	// generation was stopped.
	if ctx.Err() != nil {
		options.ErrorCallback(options.SessionID, ctx.Err())
		return ctx.Err()
	}
	options.CompletedCallback(options.SessionID, response.String())
	return nil
}

type streamingEventType string

const (
	streamingEventResponseOutputTextDelta streamingEventType = "response.output_text.delta"
	streamingEventResponseCreated         streamingEventType = "response.created"
	streamingEventResponseInProgress      streamingEventType = "response.in_progress"
	streamingEventResponseCompleted       streamingEventType = "response.completed"
)

type streamingBodyResponseTextDelta struct {
	Delta string `json:"delta"`
}
