// Package llm is the client for the hosted completion API. It speaks
// the Anthropic Messages dialect: a system field, alternating turns and
// typed content blocks for text and image attachments.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tunaaoguzhann/coach-relay/core"
)

const (
	defaultHost      = "https://api.anthropic.com"
	defaultModel     = "claude-3-5-sonnet-20241022"
	defaultMaxTokens = 1024
	defaultTimeout   = 60 * time.Second
	apiVersion       = "2023-06-01"
)

type Config struct {
	APIKey      string
	Model       string
	Host        string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature,omitempty"`
	System      string       `json:"system,omitempty"`
}

type apiMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type apiResponse struct {
	ID         string         `json:"id"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      apiUsage       `json:"usage"`
	Error      *apiError      `json:"error,omitempty"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Complete sends the assembled conversation and returns the assistant
// reply. It implements core.Completer.
func (c *Client) Complete(ctx context.Context, system string, msgs []core.Message) (core.Reply, error) {
	request := apiRequest{
		Model:       c.config.Model,
		Messages:    buildMessages(msgs),
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		System:      system,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return core.Reply{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Host+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return core.Reply{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.Reply{}, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Reply{}, fmt.Errorf("read response: %w", err)
	}

	var response apiResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return core.Reply{}, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if response.Error != nil {
		return core.Reply{}, fmt.Errorf("completion API error (%s): %s", response.Error.Type, response.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return core.Reply{}, fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return core.Reply{
		Content:      text,
		Model:        response.Model,
		InputTokens:  response.Usage.InputTokens,
		OutputTokens: response.Usage.OutputTokens,
	}, nil
}

func buildMessages(msgs []core.Message) []apiMessage {
	out := make([]apiMessage, 0, len(msgs))
	for _, m := range msgs {
		blocks := make([]contentBlock, 0, len(m.Images)+1)
		for _, u := range m.Images {
			blocks = append(blocks, contentBlock{
				Type:   "image",
				Source: &imageSource{Type: "url", URL: u},
			})
		}
		if m.Content != "" {
			blocks = append(blocks, contentBlock{Type: "text", Text: m.Content})
		}
		out = append(out, apiMessage{Role: m.Role, Content: blocks})
	}
	return out
}
