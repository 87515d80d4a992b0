package confluence

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Kind classifies gateway failures.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound means the page, space, or homepage does not exist.
	KindNotFound
	// KindTransient covers network failures, timeouts and 5xx responses.
	KindTransient
	// KindAuth means the token was rejected (401/403).
	KindAuth
	KindConflict
	// KindRateLimited is a 429 response. It is retried like KindTransient.
	KindRateLimited
	// KindValidation is any other 4xx response.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindTransient:
		return "network error"
	case KindAuth:
		return "authentication failed"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate limited"
	case KindValidation:
		return "invalid request"
	default:
		return "error"
	}
}

// Sentinel errors matched with errors.Is against any *APIError of that kind.
var (
	ErrNotFound    = errors.New("confluence: not found")
	ErrTransient   = errors.New("confluence: transient failure")
	ErrAuth        = errors.New("confluence: authentication failed")
	ErrConflict    = errors.New("confluence: version conflict")
	ErrRateLimited = errors.New("confluence: rate limited")
	ErrValidation  = errors.New("confluence: invalid request")
)

var kindSentinels = map[Kind]error{
	KindNotFound:    ErrNotFound,
	KindTransient:   ErrTransient,
	KindAuth:        ErrAuth,
	KindConflict:    ErrConflict,
	KindRateLimited: ErrRateLimited,
	KindValidation:  ErrValidation,
}

// APIError describes a failed request after retries were exhausted.
type APIError struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *APIError) Error() string {
	where := e.Method + " " + e.Path
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: %s (HTTP %d): %s", where, e.Kind, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (HTTP %d)", where, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", where, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", where, e.Kind)
	}
}

// Unwrap exposes both the kind sentinel and the underlying transport error.
func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the failure kind of err, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	if isNetworkError(err) {
		return KindTransient
	}
	return KindUnknown
}

// IsTransient reports whether retrying the same request later may succeed.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindRateLimited:
		return true
	}
	return false
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindTransient
	case status >= 400:
		return KindValidation
	}
	return KindUnknown
}

// retryableStatus lists the responses worth another attempt.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
