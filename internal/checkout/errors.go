package checkout

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FallbackMessage is shown when an error carries nothing more specific.
const FallbackMessage = "Something went wrong. Please try again."

type ProviderError struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// HTTPError is a non-2xx reply from the marketplace server. Provider
// failures arrive with the provider's own error list under details.
type HTTPError struct {
	StatusCode int
	Message    string
	Details    struct {
		Errors  []ProviderError `json:"errors"`
		Message string          `json:"message"`
	}
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.StatusCode)
}

// ErrorMessage picks the most specific message available: the provider's
// nested error detail, then the provider message, then the server or HTTP
// message, then FallbackMessage.
func ErrorMessage(err error) string {
	if err == nil {
		return FallbackMessage
	}
	var he *HTTPError
	if errors.As(err, &he) {
		for _, d := range he.Details.Errors {
			if s := strings.TrimSpace(d.Detail); s != "" {
				return s
			}
		}
		if s := strings.TrimSpace(he.Details.Message); s != "" {
			return s
		}
		if s := strings.TrimSpace(he.Message); s != "" {
			return s
		}
		if s := http.StatusText(he.StatusCode); s != "" {
			return s
		}
		return FallbackMessage
	}
	if s := strings.TrimSpace(err.Error()); s != "" {
		return s
	}
	return FallbackMessage
}
