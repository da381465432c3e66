// Package resilience classifies failures of outbound lookup and reasoning calls.
//
// Calls are never retried; the classification only labels a degraded step so
// logs can separate provider outages from permanent rejections.
package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// Failure kinds reported by Kind.
const (
	KindTimeout   = "timeout"
	KindTransient = "transient"
	KindPermanent = "permanent"
)

// TransientError marks a failure caused by a temporary provider condition
// (429, 5xx, quota exhaustion, network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

var transientPatterns = []string{
	"connection reset by peer",
	"broken pipe",
	"temporary failure in name resolution",
	"no such host",
	"tls handshake timeout",
	"i/o timeout",
	"server closed idle connection",
	"over_query_limit",
}

// IsTransient reports whether err (or anything in its chain) is a temporary failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	if isTimeout(err) {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Kind labels err as KindTimeout, KindTransient, or KindPermanent.
// A nil error returns "".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case isTimeout(err):
		return KindTimeout
	case IsTransient(err):
		return KindTransient
	default:
		return KindPermanent
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsTransientHTTPStatus reports whether an HTTP status code indicates a
// temporary server-side condition.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
