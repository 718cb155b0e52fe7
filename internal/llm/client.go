package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"healthmate/internal/models"
)

// ErrConnectivity marks failures reaching the provider (as opposed to the
// provider rejecting the request). Callers surface these as a distinct
// user-facing message.
var ErrConnectivity = errors.New("llm: connection error")

// Completer is the narrow interface consumed by the router and chains.
// Tests substitute a fake.
type Completer interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// ToolCompleter is the interface consumed by the tool-dispatch agent
type ToolCompleter interface {
	CompleteWithTools(ctx context.Context, messages []models.ChatMessage, tools []models.Tool) (*models.ChatMessage, error)
}

// Client calls an OpenAI-compatible chat completions API
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new LLM client
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		// Pace outbound calls: sustained 2 req/s with small bursts,
		// enough headroom for router + chain + agent per request.
		limiter: rate.NewLimiter(rate.Limit(2), 6),
	}
}

// Complete performs a plain text completion and returns the assistant content
func (c *Client) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	msg, err := c.do(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// CompleteWithTools performs a completion with tool definitions attached and
// returns the full assistant message (content and/or tool calls)
func (c *Client) CompleteWithTools(ctx context.Context, messages []models.ChatMessage, tools []models.Tool) (*models.ChatMessage, error) {
	return c.do(ctx, messages, tools)
}

func (c *Client) do(ctx context.Context, messages []models.ChatMessage, tools []models.Tool) (*models.ChatMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	chatReq := models.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Tools:    tools,
	}

	reqBody, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("llm API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}

	msg := result.Choices[0].Message
	return &msg, nil
}
