package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kamilpajak/medguide/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRequest = Request{
	Symptoms:           []string{"headache", "fever"},
	ExistingConditions: "diabetes",
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNew_SelectsClient(t *testing.T) {
	tests := []struct {
		kind config.ProviderKind
		want any
	}{
		{config.Gemini, &GeminiClient{}},
		{config.OpenAI, &ChatClient{}},
		{config.Azure, &ChatClient{}},
		{config.Anthropic, &AnthropicClient{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p, err := New(config.ProviderConfig{Kind: tt.kind, APIKey: "k", Model: "m", Endpoint: "https://x", Deployment: "d"})
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
			assert.Equal(t, tt.kind, p.Kind())
		})
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(config.ProviderConfig{Kind: "cohere"})
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "AI_SERVICE", cfgErr.Field)
}

func TestGemini_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		body := decodeBody(t, r)
		contents := body["contents"].([]any)
		require.Len(t, contents, 1)
		parts := contents[0].(map[string]any)["parts"].([]any)
		require.Len(t, parts, 2)
		assert.Contains(t, parts[0].(map[string]any)["text"], "headache, fever")
		inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
		assert.Equal(t, "image/jpeg", inline["mime_type"])
		assert.Equal(t, "AQID", inline["data"])

		gen := body["generationConfig"].(map[string]any)
		assert.Equal(t, 0.3, gen["temperature"])
		assert.Equal(t, float64(2000), gen["maxOutputTokens"])
		assert.Equal(t, 0.8, gen["topP"])
		assert.Equal(t, float64(10), gen["topK"])

		safety := body["safetySettings"].([]any)
		require.Len(t, safety, 4)
		for _, s := range safety {
			assert.Equal(t, "BLOCK_MEDIUM_AND_ABOVE", s.(map[string]any)["threshold"])
		}

		writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"{\"conditions\":[]}"}]}}]}`)
	}))
	defer ts.Close()

	client := NewGeminiClient(config.ProviderConfig{APIKey: "test-key", Model: "gemini-1.5-flash", BaseURL: ts.URL})
	req := testRequest
	req.Images = []Image{{Data: []byte{1, 2, 3}, MIMEType: "image/jpeg"}}

	text, err := client.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"conditions":[]}`, text)
}

func TestGemini_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
	}))
	defer ts.Close()

	client := NewGeminiClient(config.ProviderConfig{APIKey: "bad", Model: "gemini-1.5-flash", BaseURL: ts.URL})
	_, err := client.Send(context.Background(), testRequest)

	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, config.Gemini, pErr.Provider)
	assert.Equal(t, http.StatusBadRequest, pErr.Status)
	assert.Equal(t, "API key not valid", pErr.Message)
}

func TestGemini_NoCandidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"candidates":[]}`)
	}))
	defer ts.Close()

	client := NewGeminiClient(config.ProviderConfig{APIKey: "k", Model: "gemini-1.5-flash", BaseURL: ts.URL})
	_, err := client.Send(context.Background(), testRequest)

	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, http.StatusOK, pErr.Status)
}

func TestAnthropic_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		body := decodeBody(t, r)
		assert.Equal(t, "claude-3-sonnet-20240229", body["model"])
		assert.Equal(t, float64(2000), body["max_tokens"])
		assert.Equal(t, 0.3, body["temperature"])
		messages := body["messages"].([]any)
		require.Len(t, messages, 1)
		msg := messages[0].(map[string]any)
		assert.Equal(t, "user", msg["role"])
		content := msg["content"].([]any)
		require.Len(t, content, 1)
		assert.Contains(t, content[0].(map[string]any)["text"], "diabetes")

		writeJSON(w, http.StatusOK, `{"content":[{"type":"text","text":"hello"}]}`)
	}))
	defer ts.Close()

	client := NewAnthropicClient(config.ProviderConfig{APIKey: "sk-ant", Model: "claude-3-sonnet-20240229", BaseURL: ts.URL})
	text, err := client.Send(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestAnthropic_ImageBlocks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		content := body["messages"].([]any)[0].(map[string]any)["content"].([]any)
		require.Len(t, content, 2)
		img := content[1].(map[string]any)
		assert.Equal(t, "image", img["type"])
		source := img["source"].(map[string]any)
		assert.Equal(t, "base64", source["type"])
		assert.Equal(t, "image/png", source["media_type"])

		writeJSON(w, http.StatusOK, `{"content":[{"type":"text","text":"ok"}]}`)
	}))
	defer ts.Close()

	client := NewAnthropicClient(config.ProviderConfig{APIKey: "k", Model: "m", BaseURL: ts.URL})
	req := testRequest
	req.Images = []Image{{Data: pngHeader, MIMEType: "image/png"}}

	_, err := client.Send(context.Background(), req)
	require.NoError(t, err)
}

func TestAnthropic_ErrorWithoutMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer ts.Close()

	client := NewAnthropicClient(config.ProviderConfig{APIKey: "k", Model: "m", BaseURL: ts.URL})
	_, err := client.Send(context.Background(), testRequest)

	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, http.StatusBadGateway, pErr.Status)
	assert.Equal(t, "Unknown error", pErr.Message)
}

func TestOpenAI_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		body := decodeBody(t, r)
		assert.Equal(t, "gpt-4", body["model"])
		assert.Equal(t, 0.3, body["temperature"])
		assert.Equal(t, float64(2000), body["max_tokens"])
		messages := body["messages"].([]any)
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]any)["role"])
		assert.Equal(t, "user", messages[1].(map[string]any)["role"])

		writeJSON(w, http.StatusOK, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"diagnosis text"}}]}`)
	}))
	defer ts.Close()

	client := NewOpenAIClient(config.ProviderConfig{APIKey: "sk-test", Model: "gpt-4", BaseURL: ts.URL + "/v1"})
	text, err := client.Send(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, "diagnosis text", text)
}

func TestOpenAI_ImageParts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		user := body["messages"].([]any)[1].(map[string]any)
		parts := user["content"].([]any)
		require.Len(t, parts, 2)
		assert.Equal(t, "text", parts[0].(map[string]any)["type"])
		imagePart := parts[1].(map[string]any)
		assert.Equal(t, "image_url", imagePart["type"])
		assert.Equal(t, "data:image/png;base64,AQID", imagePart["image_url"].(map[string]any)["url"])

		writeJSON(w, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer ts.Close()

	client := NewOpenAIClient(config.ProviderConfig{APIKey: "sk-test", Model: "gpt-4o", BaseURL: ts.URL})
	req := testRequest
	req.Images = []Image{{Data: []byte{1, 2, 3}, MIMEType: "image/png"}}

	_, err := client.Send(context.Background(), req)
	require.NoError(t, err)
}

func TestOpenAI_ServerErrorSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, `{"error":{"message":"overloaded"}}`)
	}))
	defer ts.Close()

	client := NewOpenAIClient(config.ProviderConfig{APIKey: "sk-test", Model: "gpt-4", BaseURL: ts.URL})
	_, err := client.Send(context.Background(), testRequest)

	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, config.OpenAI, pErr.Provider)
	assert.Equal(t, http.StatusInternalServerError, pErr.Status)
	assert.Equal(t, "overloaded", pErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAI_NoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"choices":[]}`)
	}))
	defer ts.Close()

	client := NewOpenAIClient(config.ProviderConfig{APIKey: "sk-test", Model: "gpt-4", BaseURL: ts.URL})
	_, err := client.Send(context.Background(), testRequest)

	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
}

func TestAzure_RoutesToDeployment(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/openai/deployments/gpt4-prod/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-02-15-preview", r.URL.Query().Get("api-version"))
		assert.Equal(t, "az-key", r.Header.Get("api-key"))

		writeJSON(w, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"from azure"}}]}`)
	}))
	defer ts.Close()

	client := NewAzureClient(config.ProviderConfig{
		Kind:       config.Azure,
		APIKey:     "az-key",
		Endpoint:   ts.URL,
		Deployment: "gpt4-prod",
		APIVersion: "2024-02-15-preview",
	})
	text, err := client.Send(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, "from azure", text)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "gpt4-prod", client.Model())
}

func TestAzure_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":{"code":"401","message":"Access denied due to invalid subscription key."}}`)
	}))
	defer ts.Close()

	client := NewAzureClient(config.ProviderConfig{APIKey: "bad", Endpoint: ts.URL, Deployment: "d", APIVersion: "2024-02-15-preview"})
	_, err := client.Send(context.Background(), testRequest)

	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, config.Azure, pErr.Provider)
	assert.Equal(t, http.StatusUnauthorized, pErr.Status)
	assert.Equal(t, "Access denied due to invalid subscription key.", pErr.Message)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested", `{"error":{"message":"quota exceeded"}}`, "quota exceeded"},
		{"flat", `{"message":"bad request"}`, "bad request"},
		{"empty message", `{"error":{"message":""}}`, "Unknown error"},
		{"no message", `{"error":{"code":500}}`, "Unknown error"},
		{"not json", `upstream timeout`, "Unknown error"},
		{"empty", ``, "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage([]byte(tt.body)))
		})
	}
}

func TestSend_ContextCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewGeminiClient(config.ProviderConfig{APIKey: "k", Model: "m", BaseURL: ts.URL})
	_, err := client.Send(ctx, testRequest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
