package config

import (
	"fmt"
	"strings"
)

// ProviderKind identifies a generative-AI backend.
type ProviderKind string

const (
	Gemini    ProviderKind = "gemini"
	OpenAI    ProviderKind = "openai"
	Azure     ProviderKind = "azure"
	Anthropic ProviderKind = "anthropic"
)

// Kinds lists the supported providers in display order.
var Kinds = []ProviderKind{Gemini, OpenAI, Azure, Anthropic}

// ProviderConfig is the resolved, complete configuration for one provider.
type ProviderConfig struct {
	Kind       ProviderKind
	APIKey     string
	Model      string
	BaseURL    string
	Endpoint   string // azure only
	Deployment string // azure only
	APIVersion string // azure only
}

// ConfigurationError reports a provider setting that is missing or still
// holds a template placeholder.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured: %s", e.Field, e.Reason)
}

// placeholders are the values shipped in the sample .env file.
var placeholders = map[string]bool{
	"your_gemini_api_key_here":       true,
	"your_openai_api_key_here":       true,
	"your_azure_openai_api_key_here": true,
	"your_azure_endpoint_here":       true,
	"your_deployment_name_here":      true,
	"your_anthropic_api_key_here":    true,
}

// IsPlaceholder reports whether v is a template value rather than a real
// setting. Any value ending in "_here" counts.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return placeholders[v] || strings.HasSuffix(v, "_here")
}

func checkField(field, value string) error {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return &ConfigurationError{Field: field, Reason: "missing"}
	case IsPlaceholder(value):
		return &ConfigurationError{Field: field, Reason: "placeholder value"}
	}
	return nil
}

// Provider resolves the selected provider. It fails with a
// *ConfigurationError naming the first unusable field.
func (c *Config) Provider() (ProviderConfig, error) {
	kind := ProviderKind(strings.ToLower(strings.TrimSpace(c.AI.Service)))

	switch kind {
	case Gemini:
		if err := checkField("GEMINI_API_KEY", c.AI.Gemini.APIKey); err != nil {
			return ProviderConfig{}, err
		}
		return ProviderConfig{
			Kind:    kind,
			APIKey:  strings.TrimSpace(c.AI.Gemini.APIKey),
			Model:   c.AI.Gemini.Model,
			BaseURL: c.AI.Gemini.BaseURL,
		}, nil

	case OpenAI:
		if err := checkField("OPENAI_API_KEY", c.AI.OpenAI.APIKey); err != nil {
			return ProviderConfig{}, err
		}
		return ProviderConfig{
			Kind:    kind,
			APIKey:  strings.TrimSpace(c.AI.OpenAI.APIKey),
			Model:   c.AI.OpenAI.Model,
			BaseURL: c.AI.OpenAI.BaseURL,
		}, nil

	case Azure:
		az := c.AI.Azure
		for _, f := range []struct{ name, value string }{
			{"AZURE_OPENAI_API_KEY", az.APIKey},
			{"AZURE_OPENAI_ENDPOINT", az.Endpoint},
			{"AZURE_OPENAI_DEPLOYMENT_NAME", az.Deployment},
		} {
			if err := checkField(f.name, f.value); err != nil {
				return ProviderConfig{}, err
			}
		}
		return ProviderConfig{
			Kind:       kind,
			APIKey:     strings.TrimSpace(az.APIKey),
			Model:      az.Deployment,
			Endpoint:   strings.TrimRight(strings.TrimSpace(az.Endpoint), "/"),
			Deployment: strings.TrimSpace(az.Deployment),
			APIVersion: az.APIVersion,
		}, nil

	case Anthropic:
		if err := checkField("ANTHROPIC_API_KEY", c.AI.Anthropic.APIKey); err != nil {
			return ProviderConfig{}, err
		}
		return ProviderConfig{
			Kind:    kind,
			APIKey:  strings.TrimSpace(c.AI.Anthropic.APIKey),
			Model:   c.AI.Anthropic.Model,
			BaseURL: c.AI.Anthropic.BaseURL,
		}, nil
	}

	return ProviderConfig{}, &ConfigurationError{
		Field:  "AI_SERVICE",
		Reason: fmt.Sprintf("unsupported provider %q", c.AI.Service),
	}
}

// Status summarizes whether the selected provider is usable.
type Status struct {
	Service    string `json:"service"`
	HasAPIKey  bool   `json:"has_api_key"`
	Configured bool   `json:"configured"`
	Error      string `json:"error,omitempty"`
}

// Status reports the configuration state of the selected provider without
// exposing any credential.
func (c *Config) Status() Status {
	st := Status{Service: strings.ToLower(strings.TrimSpace(c.AI.Service))}

	switch ProviderKind(st.Service) {
	case Gemini:
		st.HasAPIKey = checkField("", c.AI.Gemini.APIKey) == nil
	case OpenAI:
		st.HasAPIKey = checkField("", c.AI.OpenAI.APIKey) == nil
	case Azure:
		st.HasAPIKey = checkField("", c.AI.Azure.APIKey) == nil
	case Anthropic:
		st.HasAPIKey = checkField("", c.AI.Anthropic.APIKey) == nil
	}

	if _, err := c.Provider(); err != nil {
		st.Error = err.Error()
		return st
	}
	st.Configured = true
	return st
}
