package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider is an external text-generation service
type Provider interface {
	Name() string
	GenerateResponse(ctx context.Context, input string, opts Options) (string, error)
}

// Options carries per-call hints to a provider
type Options struct {
	Sentiment  float64
	Topic      string
	IsFallback bool
	// Context holds short snippets of related memory, oldest first
	Context      []string
	SystemPrompt string
}

// ProviderConfig is the immutable configuration of one provider in the chain
type ProviderConfig struct {
	Name        string
	Rank        int
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Headers     map[string]string
}

// ErrorClass drives the retry policy of the fallback chain
type ErrorClass string

const (
	ClassRateLimit ErrorClass = "rate-limit"
	ClassTimeout   ErrorClass = "timeout"
	ClassParse     ErrorClass = "parse"
	ClassAuth      ErrorClass = "auth"
	ClassGeneric   ErrorClass = "generic"
)

// Retryable reports whether another attempt against the same provider may help
func (c ErrorClass) Retryable() bool {
	switch c {
	case ClassRateLimit, ClassAuth:
		return false
	default:
		return true
	}
}

// ProviderError is a classified provider failure
type ProviderError struct {
	Provider   string
	Class      ErrorClass
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", e.Provider, e.Class, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Class, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// errParse marks a response body that could not be understood
var errParse = errors.New("invalid response format")

// classify builds a ProviderError from an HTTP status code and/or error.
// An existing ProviderError is returned unchanged.
func classify(provider string, status int, err error) *ProviderError {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	if err == nil {
		err = fmt.Errorf("unexpected status code: %d", status)
	}
	return &ProviderError{
		Provider:   provider,
		Class:      classOf(status, err),
		StatusCode: status,
		Err:        err,
	}
}

func classOf(status int, err error) ErrorClass {
	switch status {
	case http.StatusTooManyRequests, http.StatusForbidden:
		return ClassRateLimit
	case http.StatusUnauthorized:
		return ClassAuth
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ClassTimeout
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	if errors.Is(err, errParse) {
		return ClassParse
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "rate limit", "rate_limit", "too many requests", "quota", "429", "resource_exhausted"):
		return ClassRateLimit
	case containsAny(msg, "unauthorized", "invalid api key", "api key not valid", "authentication", "permission_denied"):
		return ClassAuth
	case containsAny(msg, "timeout", "deadline exceeded"):
		return ClassTimeout
	case containsAny(msg, "failed to decode", "failed to parse", "unexpected end of json"):
		return ClassParse
	}
	return ClassGeneric
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
