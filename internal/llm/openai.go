package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kamilpajak/medguide/internal/config"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

const systemPrompt = "You are a helpful medical AI assistant. Always answer with valid JSON in the format the user asks for."

// ChatClient serves both OpenAI and Azure OpenAI; they share the
// chat-completions envelope and differ only in routing and auth.
type ChatClient struct {
	kind   config.ProviderKind
	model  string
	client openai.Client
	logger *zap.Logger
}

// NewOpenAIClient creates a client for api.openai.com (or a compatible base URL).
func NewOpenAIClient(pc config.ProviderConfig, opts ...Option) *ChatClient {
	o := newOptions(opts)
	reqOpts := []option.RequestOption{
		option.WithAPIKey(pc.APIKey),
		option.WithHTTPClient(o.httpClient),
		option.WithMaxRetries(0),
	}
	if pc.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(pc.BaseURL, "/")+"/"))
	}
	return &ChatClient{
		kind:   config.OpenAI,
		model:  pc.Model,
		client: openai.NewClient(reqOpts...),
		logger: o.logger,
	}
}

// NewAzureClient creates a client routed to an Azure OpenAI deployment.
func NewAzureClient(pc config.ProviderConfig, opts ...Option) *ChatClient {
	o := newOptions(opts)
	client := openai.NewClient(
		azure.WithEndpoint(pc.Endpoint, pc.APIVersion),
		azure.WithAPIKey(pc.APIKey),
		option.WithHTTPClient(o.httpClient),
		option.WithMaxRetries(0),
	)
	return &ChatClient{
		kind:   config.Azure,
		model:  pc.Deployment,
		client: client,
		logger: o.logger,
	}
}

func (c *ChatClient) buildRequest(req Request) openai.ChatCompletionNewParams {
	prompt := BuildPrompt(req)

	user := openai.UserMessage(prompt)
	if images := encodeImages(req.Images, c.logger); len(images) > 0 {
		parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(prompt)}
		for _, img := range images {
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: img.dataURL(),
			}))
		}
		user = openai.UserMessage(parts)
	}

	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			user,
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	}
}

// Send sends one chat completion request. The SDK's retries are disabled.
func (c *ChatClient) Send(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.buildRequest(req))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &ProviderError{Provider: c.kind, Status: apiErr.StatusCode, Message: apiErrorMessage(apiErr)}
		}
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	// choices[0].message.content
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: c.kind, Status: http.StatusOK, Message: "response has no choices"}
	}
	text := resp.Choices[0].Message.Content

	c.logger.Debug("chat completion received",
		zap.String("provider", string(c.kind)),
		zap.String("model", c.model),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
	)
	return text, nil
}

func apiErrorMessage(apiErr *openai.Error) string {
	if msg := errorMessage([]byte(apiErr.RawJSON())); msg != unknownErrorMessage {
		return msg
	}
	if strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return unknownErrorMessage
}

// Kind returns config.OpenAI or config.Azure.
func (c *ChatClient) Kind() config.ProviderKind {
	return c.kind
}

// Model returns the model name, or the deployment name on Azure.
func (c *ChatClient) Model() string {
	return c.model
}
