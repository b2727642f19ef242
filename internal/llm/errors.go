package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ErrEmptyResponse means the service answered without any content to parse.
var ErrEmptyResponse = errors.New("extraction service returned no content")

// StatusError is a non-2xx answer from the extraction service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if msg := providerMessage(e.Body); msg != "" {
		return fmt.Sprintf("extraction service status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("extraction service status %d", e.StatusCode)
}

// ErrorKind groups extraction failures by what the user can do about them.
type ErrorKind string

const (
	KindQuota   ErrorKind = "quota"
	KindAuth    ErrorKind = "auth"
	KindNetwork ErrorKind = "network"
	KindGeneric ErrorKind = "generic"
)

// ExtractionError is a classified extraction-service failure.
type ExtractionError struct {
	Kind  ErrorKind
	Hint  string
	Cause error
}

func (e *ExtractionError) Error() string {
	if e.Cause == nil {
		return e.Hint
	}
	return e.Hint + ": " + e.Cause.Error()
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// UserMessage is the text shown to a reviewer.
func (e *ExtractionError) UserMessage() string {
	if e.Kind == KindGeneric && e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Hint
}

var quotaMarkers = []string{"context_length_exceeded", "maximum context length", "too many tokens", "request too large", "insufficient_quota", "rate limit"}

// Classify wraps err in an *ExtractionError. Already classified errors are returned as is.
func Classify(err error) *ExtractionError {
	if err == nil {
		return nil
	}
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusRequestEntityTooLarge, http.StatusTooManyRequests:
			return &ExtractionError{Kind: KindQuota, Hint: "content too large — remove PDFs or shorten email", Cause: err}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &ExtractionError{Kind: KindAuth, Hint: "API authentication error — check key", Cause: err}
		}
	}

	lower := strings.ToLower(err.Error())
	for _, m := range quotaMarkers {
		if strings.Contains(lower, m) {
			return &ExtractionError{Kind: KindQuota, Hint: "content too large — remove PDFs or shorten email", Cause: err}
		}
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return &ExtractionError{Kind: KindNetwork, Hint: "network error — check connection and retry", Cause: err}
	}
	return &ExtractionError{Kind: KindGeneric, Hint: "extraction failed", Cause: err}
}

// providerMessage pulls error.message out of an OpenAI-style error body.
func providerMessage(body string) string {
	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return ""
	}
	if env.Error.Code != "" && env.Error.Message != "" {
		return env.Error.Code + ": " + env.Error.Message
	}
	return env.Error.Message
}
