package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kamilpajak/medguide/internal/config"
	"go.uber.org/zap"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient talks to the Google Gemini generateContent API.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(pc config.ProviderConfig, opts ...Option) *GeminiClient {
	o := newOptions(opts)
	baseURL := pc.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiClient{
		apiKey:     pc.APIKey,
		model:      pc.Model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: o.httpClient,
		logger:     o.logger,
	}
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	SafetySettings   []geminiSafetySetting  `json:"safetySettings"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

var geminiSafetyCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

func (c *GeminiClient) buildRequest(req Request) geminiRequest {
	parts := []geminiPart{{Text: BuildPrompt(req)}}
	for _, img := range encodeImages(req.Images, c.logger) {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: img.MIMEType,
			Data:     img.Data,
		}})
	}

	safety := make([]geminiSafetySetting, 0, len(geminiSafetyCategories))
	for _, cat := range geminiSafetyCategories {
		safety = append(safety, geminiSafetySetting{Category: cat, Threshold: "BLOCK_MEDIUM_AND_ABOVE"})
	}

	return geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
			TopP:            0.8,
			TopK:            10,
		},
		SafetySettings: safety,
	}
}

// extractText returns candidates[0].content.parts[0].text.
func (c *GeminiClient) extractText(body []byte) (string, bool) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	return resp.Candidates[0].Content.Parts[0].Text, true
}

// Send sends one generateContent request.
func (c *GeminiClient) Send(ctx context.Context, req Request) (string, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	status, body, err := postJSON(ctx, c.httpClient, endpoint, nil, c.buildRequest(req))
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		return "", newProviderError(config.Gemini, status, body)
	}

	text, ok := c.extractText(body)
	if !ok {
		return "", &ProviderError{Provider: config.Gemini, Status: status, Message: "response has no candidates"}
	}

	c.logger.Debug("gemini reply received", zap.String("model", c.model), zap.Int("chars", len(text)))
	return text, nil
}

// Kind returns config.Gemini.
func (c *GeminiClient) Kind() config.ProviderKind {
	return config.Gemini
}

// Model returns the model name
func (c *GeminiClient) Model() string {
	return c.model
}
