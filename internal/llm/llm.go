// Package llm talks to the generative-AI providers that produce a diagnosis.
//
// Each provider is a small client that turns a Request into the provider's
// wire envelope, performs exactly one HTTP call and returns the reply text.
// Interpreting that text is the caller's job.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kamilpajak/medguide/internal/config"
	"go.uber.org/zap"
)

// Image is one user-supplied photo.
type Image struct {
	Data     []byte
	MIMEType string
	Name     string
}

const (
	// MaxImages is the most images accepted with one request.
	MaxImages = 3
	// MaxImageBytes is the largest accepted image.
	MaxImageBytes = 10 << 20
)

// Request is a single diagnosis request as sent to a provider.
type Request struct {
	Symptoms           []string
	Images             []Image
	ExistingConditions string
}

// Provider is implemented by every provider client.
type Provider interface {
	// Kind returns which provider this is.
	Kind() config.ProviderKind
	// Model returns the model (or Azure deployment) being used.
	Model() string
	// Send performs one request and returns the reply text.
	Send(ctx context.Context, req Request) (string, error)
}

const (
	temperature = 0.3
	maxTokens   = 2000
)

type options struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customizes a provider client.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates the client for a resolved provider configuration.
func New(pc config.ProviderConfig, opts ...Option) (Provider, error) {
	switch pc.Kind {
	case config.Gemini:
		return NewGeminiClient(pc, opts...), nil
	case config.OpenAI:
		return NewOpenAIClient(pc, opts...), nil
	case config.Azure:
		return NewAzureClient(pc, opts...), nil
	case config.Anthropic:
		return NewAnthropicClient(pc, opts...), nil
	}
	return nil, &config.ConfigurationError{
		Field:  "AI_SERVICE",
		Reason: fmt.Sprintf("unsupported provider %q", pc.Kind),
	}
}
