package provider

import (
	"context"
	"errors"
	"net"
	"strings"
)

// SendError classifies mail transport failures as transient/permanent.
type SendError struct {
	Message   string
	Transient bool
	Cause     error
}

func (e *SendError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 3)
	parts = append(parts, "send error")

	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *SendError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsTransient reports whether a send failure is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

func transientError(message string, cause error) *SendError {
	return &SendError{Message: message, Transient: true, Cause: cause}
}

func permanentError(message string, cause error) *SendError {
	return &SendError{Message: message, Transient: false, Cause: cause}
}

