package engine

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrRateLimited signals a provider quota/rate-limit. Callers surface it as
	// "try again later" instead of a generic failure.
	ErrRateLimited = errors.New("model provider rate limited")
	// ErrNoProvider means the selected provider has no usable credential.
	ErrNoProvider = errors.New("no model provider configured")
	// ErrNoGrounding means the active provider cannot run web-search grounding.
	ErrNoGrounding = errors.New("provider does not support web search")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("empty model response")
)

// rateLimitMarkers appear in OpenAI-compatible error texts.
var rateLimitMarkers = []string{"RESOURCE_EXHAUSTED", "rate limit", "rate_limit", "Too Many Requests"}

// statusRateLimit matches 429 only where it reads as a status code.
var statusRateLimit = regexp.MustCompile(`(?i)\b(?:status|code|error|http)\W{0,3}429\b`)

// IsRateLimited reports whether err is (or wraps) a provider rate-limit.
// Gemini errors are classified by their status code; other providers only
// expose text.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if code, ok := apiErrorCode(err); ok {
		return code == http.StatusTooManyRequests
	}
	msg := err.Error()
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return statusRateLimit.MatchString(msg)
}

// apiErrorCode returns the HTTP status of a wrapped genai.APIError.
func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
