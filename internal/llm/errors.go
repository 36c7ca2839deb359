package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kamilpajak/medguide/internal/config"
)

const unknownErrorMessage = "Unknown error"

// ProviderError is returned when a provider answers with a non-success
// status or a reply that carries no text.
type ProviderError struct {
	Provider config.ProviderKind
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Message)
}

// errorMessage pulls a human-readable message out of an error body. Both
// {"error":{"message":...}} and a bare {"message":...} are understood.
func errorMessage(body []byte) string {
	var env struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return unknownErrorMessage
	}
	if env.Error != nil && strings.TrimSpace(env.Error.Message) != "" {
		return env.Error.Message
	}
	if strings.TrimSpace(env.Message) != "" {
		return env.Message
	}
	return unknownErrorMessage
}

func newProviderError(kind config.ProviderKind, status int, body []byte) *ProviderError {
	return &ProviderError{Provider: kind, Status: status, Message: errorMessage(body)}
}
