package mail

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// IsTransient reports whether an error is worth burning a retry attempt
// on. Only the curated set of infrastructure hiccups qualifies; auth
// failures, rejected recipients and other protocol errors short-circuit
// to the next transport immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transient *transientError
	if errors.As(err, &transient) {
		return true
	}
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return false
}

// transientError forces transient classification for wrapped errors whose
// chain does not expose a recognizable cause (e.g. SMTP 4xx greetings).
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func markTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}
