// Package llm is the HTTP adapter for the review model. A single client
// speaks both common wire dialects, selected by configuration, so any
// chat-completions-compatible endpoint can serve reviews.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/visionpr/reviewer/internal/adapter/httpx"
)

// Wire dialects.
const (
	DialectOpenAI    = "openai"
	DialectAnthropic = "anthropic"
)

const (
	defaultTimeout   = 120 * time.Second
	defaultMaxTokens = 4096

	anthropicVersion = "2023-06-01"
)

// Client calls a chat-completions endpoint and returns the model's review
// text. It implements the review use case's Provider port.
type Client struct {
	dialect    string
	endpoint   string
	model      string
	apiKey     string
	maxTokens  int
	httpClient *http.Client
	retryConf  httpx.RetryConfig
	logger     httpx.Logger
}

// NewClient creates a model client. Dialect selects the request and auth
// format; anything that is not "anthropic" speaks the OpenAI dialect.
func NewClient(dialect, endpoint, model, apiKey string) *Client {
	return &Client{
		dialect:    strings.ToLower(dialect),
		endpoint:   endpoint,
		model:      model,
		apiKey:     apiKey,
		maxTokens:  defaultMaxTokens,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf:  httpx.DefaultRetryConfig(),
	}
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetRetryConfig replaces the retry policy.
func (c *Client) SetRetryConfig(cfg httpx.RetryConfig) {
	c.retryConf = cfg
}

// SetMaxTokens caps the response length requested from the model.
func (c *Client) SetMaxTokens(n int) {
	if n > 0 {
		c.maxTokens = n
	}
}

// SetLogger attaches a structured logger for request/response logging.
func (c *Client) SetLogger(logger httpx.Logger) {
	c.logger = logger
}

// Name identifies the provider in logs and run records.
func (c *Client) Name() string {
	return c.dialect
}

// Review sends the prompt and returns the model's review text.
func (c *Client) Review(ctx context.Context, prompt string) (string, error) {
	payload, err := c.buildPayload(prompt)
	if err != nil {
		return "", fmt.Errorf("marshal model request: %w", err)
	}

	var raw []byte
	err = httpx.RetryWithBackoff(ctx, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if reqErr != nil {
			return &httpx.Error{Type: httpx.ErrTypeUnknown, Message: reqErr.Error(), Service: c.dialect}
		}
		req.Header.Set("Content-Type", "application/json")
		c.setAuthHeaders(req)

		start := time.Now()
		if c.logger != nil {
			c.logger.LogRequest(ctx, httpx.RequestLog{
				Service:   c.dialect,
				Method:    http.MethodPost,
				Target:    c.model,
				Timestamp: start,
				BodyChars: len(payload),
				APIKey:    c.apiKey,
			})
		}

		resp, callErr := c.httpClient.Do(req)
		if callErr != nil {
			err := httpx.NewTimeoutError(c.dialect, httpx.RedactURLSecrets(callErr.Error()))
			c.logError(ctx, start, err)
			return err
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return &httpx.Error{
				Type:       httpx.ErrTypeUnknown,
				Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
				StatusCode: resp.StatusCode,
				Retryable:  resp.StatusCode >= 500,
				Service:    c.dialect,
			}
		}
		if resp.StatusCode >= 400 {
			err := httpx.MapStatusError(c.dialect, resp.StatusCode, httpx.TruncateForLogging(string(data)))
			c.logError(ctx, start, err)
			return err
		}

		if c.logger != nil {
			c.logger.LogResponse(ctx, httpx.ResponseLog{
				Service:    c.dialect,
				Target:     c.model,
				Timestamp:  start,
				Duration:   time.Since(start),
				StatusCode: resp.StatusCode,
			})
		}
		raw = data
		return nil
	}, c.retryConf)
	if err != nil {
		return "", err
	}

	return c.parseResponse(raw)
}

func (c *Client) buildPayload(prompt string) ([]byte, error) {
	messages := []chatMessage{{Role: "user", Content: prompt}}
	if c.dialect == DialectAnthropic {
		return json.Marshal(anthropicRequest{
			Model:     c.model,
			MaxTokens: c.maxTokens,
			Messages:  messages,
		})
	}
	return json.Marshal(openAIRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	})
}

func (c *Client) setAuthHeaders(req *http.Request) {
	if c.dialect == DialectAnthropic {
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", anthropicVersion)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *Client) parseResponse(raw []byte) (string, error) {
	if c.dialect == DialectAnthropic {
		var resp anthropicResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", fmt.Errorf("decode model response: %w", err)
		}
		var b strings.Builder
		for _, block := range resp.Content {
			if block.Type == "" || block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		if b.Len() == 0 {
			return "", fmt.Errorf("model response contains no text content")
		}
		return b.String(), nil
	}

	var resp openAIResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("model error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model response contains no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) logError(ctx context.Context, start time.Time, err *httpx.Error) {
	if c.logger == nil {
		return
	}
	c.logger.LogError(ctx, httpx.ErrorLog{
		Service:    c.dialect,
		Target:     c.model,
		Timestamp:  start,
		Duration:   time.Since(start),
		Error:      err,
		StatusCode: err.StatusCode,
		Retryable:  err.Retryable,
	})
}
