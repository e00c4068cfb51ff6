package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Common errors
var (
	ErrNotAuthenticated = errors.New("not authenticated - run 'gh auth login' first")
	ErrNotFound         = errors.New("resource not found")
	ErrRateLimited      = errors.New("API rate limit exceeded")
)

// NetworkError reports a transport failure: the request never produced an
// HTTP response (timeout, refused connection, cancelled context).
type NetworkError struct {
	Operation string
	URL       string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError reports a non-success HTTP response from the catalog
type ServerError struct {
	Operation  string
	StatusCode int
	Message    string // server-provided message, empty when none was sent
	Body       []byte
	RetryAfter string // raw Retry-After header, if any
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server error %d: %s", e.Operation, e.StatusCode, e.UserMessage())
}

// UserMessage returns the server's message, or a generic one
func (e *ServerError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return "the server could not complete the request (" + strings.ToLower(text) + ")"
	}
	return "the server could not complete the request"
}

// HTTPStatusCode returns the response status
func (e *ServerError) HTTPStatusCode() int {
	return e.StatusCode
}

// RetryAfterSeconds returns the raw Retry-After header value
func (e *ServerError) RetryAfterSeconds() string {
	return e.RetryAfter
}

// APIError wraps GitHub API errors with additional context
type APIError struct {
	Operation string
	Resource  string
	Err       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Resource, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is a transport failure
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsServerError reports whether err is a non-success response
func IsServerError(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}

// IsNotFound checks if an error indicates a resource was not found
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	if err == nil {
		return false
	}
	var sc httpStatusCoder
	if errors.As(err, &sc) && sc.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	// Check for GraphQL "not found" patterns
	msg := err.Error()
	return strings.Contains(msg, "Could not resolve") ||
		strings.Contains(msg, "NOT_FOUND")
}

// httpStatusCoder is implemented by errors that carry an HTTP status code
type httpStatusCoder interface {
	HTTPStatusCode() int
}

// retryAfterProvider is implemented by errors that carry a Retry-After value.
type retryAfterProvider interface {
	RetryAfterSeconds() string
}

// IsRateLimited checks if an error indicates rate limiting.
// Detects rate limits via:
//   - Sentinel ErrRateLimited
//   - HTTP 429 status code (any 429 is a rate limit)
//   - HTTP 403 with rate-limit messaging (GitHub secondary rate limits)
//   - Error message containing "rate limit" or "RATE_LIMITED"
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if err == nil {
		return false
	}

	var sc httpStatusCoder
	if errors.As(err, &sc) {
		code := sc.HTTPStatusCode()
		if code == http.StatusTooManyRequests {
			return true
		}
		if code == http.StatusForbidden {
			msg := strings.ToLower(err.Error())
			return strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limited")
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "RATE_LIMITED")
}

// IsRetryable reports whether repeating the same request may succeed:
// transport failures, rate limits and gateway/unavailable responses.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsNetworkError(err) || IsRateLimited(err) {
		return true
	}
	var sc httpStatusCoder
	if errors.As(err, &sc) {
		switch sc.HTTPStatusCode() {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

// GetRetryAfter extracts a Retry-After duration from an error, if available.
// Returns 0 if no Retry-After information is present.
func GetRetryAfter(err error) time.Duration {
	var rap retryAfterProvider
	if errors.As(err, &rap) {
		if s := rap.RetryAfterSeconds(); s != "" {
			if seconds, parseErr := strconv.Atoi(s); parseErr == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	return 0
}

// IsAuthError checks if an error indicates authentication issues
func IsAuthError(err error) bool {
	if errors.Is(err, ErrNotAuthenticated) {
		return true
	}
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "401") ||
		strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "not authenticated")
}

// WrapError wraps a GitHub API error with operation context
func WrapError(operation, resource string, err error) error {
	if err == nil {
		return nil
	}

	if IsRateLimited(err) {
		return &APIError{
			Operation: operation,
			Resource:  resource,
			Err:       ErrRateLimited,
		}
	}

	if IsNotFound(err) {
		return &APIError{
			Operation: operation,
			Resource:  resource,
			Err:       ErrNotFound,
		}
	}

	return &APIError{
		Operation: operation,
		Resource:  resource,
		Err:       err,
	}
}

// UserMessage renders err for display. Network errors carry a retry hint;
// server errors show the server's message when there is one.
func UserMessage(err error) string {
	var se *ServerError
	if errors.As(err, &se) {
		return se.UserMessage()
	}
	if IsNetworkError(err) {
		return "could not reach the issue catalog - check your connection and retry"
	}
	if IsAuthError(err) {
		return ErrNotAuthenticated.Error()
	}
	return err.Error()
}
