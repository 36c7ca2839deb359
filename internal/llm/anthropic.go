package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kamilpajak/medguide/internal/config"
	"go.uber.org/zap"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
)

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAnthropicClient creates a new Anthropic client
func NewAnthropicClient(pc config.ProviderConfig, opts ...Option) *AnthropicClient {
	o := newOptions(opts)
	baseURL := pc.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	return &AnthropicClient{
		apiKey:     pc.APIKey,
		model:      pc.Model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: o.httpClient,
		logger:     o.logger,
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (c *AnthropicClient) buildRequest(req Request) anthropicRequest {
	blocks := []anthropicContentBlock{{Type: "text", Text: BuildPrompt(req)}}
	for _, img := range encodeImages(req.Images, c.logger) {
		blocks = append(blocks, anthropicContentBlock{
			Type: "image",
			Source: &anthropicImageSource{
				Type:      "base64",
				MediaType: img.MIMEType,
				Data:      img.Data,
			},
		})
	}

	return anthropicRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: blocks}},
	}
}

// extractText returns content[0].text.
func (c *AnthropicClient) extractText(body []byte) (string, bool) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false
	}
	if len(resp.Content) == 0 {
		return "", false
	}
	return resp.Content[0].Text, true
}

// Send sends one Messages API request.
func (c *AnthropicClient) Send(ctx context.Context, req Request) (string, error) {
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	status, body, err := postJSON(ctx, c.httpClient, c.baseURL+"/messages", headers, c.buildRequest(req))
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		return "", newProviderError(config.Anthropic, status, body)
	}

	text, ok := c.extractText(body)
	if !ok {
		return "", &ProviderError{Provider: config.Anthropic, Status: status, Message: "response has no content"}
	}

	c.logger.Debug("anthropic reply received", zap.String("model", c.model), zap.Int("chars", len(text)))
	return text, nil
}

// Kind returns config.Anthropic.
func (c *AnthropicClient) Kind() config.ProviderKind {
	return config.Anthropic
}

// Model returns the model name
func (c *AnthropicClient) Model() string {
	return c.model
}
